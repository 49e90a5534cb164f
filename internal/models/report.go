package models

import (
	"encoding/json"
	"time"
)

// RunReport 运行报告
type RunReport struct {
	RunID     string    `json:"run_id"`
	Source    string    `json:"source"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	Stats RunStats `json:"stats"`

	// 配置快照
	Run RunConfig `json:"run"`
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *RunReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
