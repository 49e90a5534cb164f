package models

import (
	"fmt"
	"time"
)

// SourceKind 链接来源类型
type SourceKind string

const (
	SourceSheet SourceKind = "sheet" // Google试算表
	SourceList  SourceKind = "list"  // 文本列表
)

// Range 随机时长范围(含两端)
type Range struct {
	Min time.Duration `mapstructure:"min" json:"min"`
	Max time.Duration `mapstructure:"max" json:"max"`
}

// Validate 验证范围
func (r Range) Validate(name string) error {
	if r.Min < 0 {
		return fmt.Errorf("%s 最小值不能为负数", name)
	}
	if r.Max < r.Min {
		return fmt.Errorf("%s 最大值(%s)不能小于最小值(%s)", name, r.Max, r.Min)
	}
	return nil
}

// String 格式化输出
func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Min, r.Max)
}

// SourceConfig 链接来源配置
type SourceConfig struct {
	Kind               SourceKind    `mapstructure:"kind" json:"kind"`
	SheetID            string        `mapstructure:"sheet_id" json:"sheet_id"`
	GID                string        `mapstructure:"gid" json:"gid"`
	Query              string        `mapstructure:"query" json:"query"`
	BaseURL            string        `mapstructure:"base_url" json:"base_url"`
	ListFile           string        `mapstructure:"list_file" json:"list_file"`
	Links              string        `mapstructure:"links" json:"-"`
	DefaultDestination string        `mapstructure:"default_destination" json:"default_destination"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout" json:"fetch_timeout"`
	HeadersFile        string        `mapstructure:"headers_file" json:"headers_file"`
}

// Validate 验证来源配置
func (c *SourceConfig) Validate() error {
	switch c.Kind {
	case SourceSheet:
		if c.SheetID == "" {
			return fmt.Errorf("试算表来源需要 sheet_id")
		}
	case SourceList:
		if c.ListFile == "" && c.Links == "" {
			return fmt.Errorf("文本列表来源需要 list_file 或 links")
		}
	default:
		return fmt.Errorf("无效的来源类型: %s (有效值: sheet, list)", c.Kind)
	}
	if c.DefaultDestination != "" {
		if err := ValidateURL(c.DefaultDestination); err != nil {
			return fmt.Errorf("默认目的地无效: %w", err)
		}
	}
	return nil
}

// RunConfig 运行配置
type RunConfig struct {
	Workers         int           `mapstructure:"workers" json:"workers"`
	LaunchGap       int           `mapstructure:"launch_gap" json:"launch_gap"` // 毫秒
	ReloadEvery     int           `mapstructure:"reload_every" json:"reload_every"`
	SourceWait      Range         `mapstructure:"source_wait" json:"source_wait"`
	DestinationWait Range         `mapstructure:"destination_wait" json:"destination_wait"`
	Cooldown        Range         `mapstructure:"cooldown" json:"cooldown"`
	SettleDelay     time.Duration `mapstructure:"settle_delay" json:"settle_delay"`
}

// Validate 验证运行配置
func (c *RunConfig) Validate() error {
	if c.Workers < 1 || c.Workers > 50 {
		return fmt.Errorf("worker数量必须在1-50之间")
	}
	if c.LaunchGap < 0 {
		return fmt.Errorf("启动间隔不能为负数")
	}
	if c.ReloadEvery < 1 {
		return fmt.Errorf("重新载入间隔必须至少为1")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("关闭前等待时间不能为负数")
	}
	for name, r := range map[string]Range{
		"source_wait":      c.SourceWait,
		"destination_wait": c.DestinationWait,
		"cooldown":         c.Cooldown,
	} {
		if err := r.Validate(name); err != nil {
			return err
		}
	}
	return nil
}

// Normalize 套用下限: workers至少1,launch_gap至少0,reload_every至少1
func (c *RunConfig) Normalize() {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.LaunchGap < 0 {
		c.LaunchGap = 0
	}
	if c.ReloadEvery < 1 {
		c.ReloadEvery = 1
	}
}

// LaunchGapDuration 启动间隔
func (c *RunConfig) LaunchGapDuration() time.Duration {
	return time.Duration(c.LaunchGap) * time.Millisecond
}

// WindowConfig 弹出视窗大小与位置
type WindowConfig struct {
	Width  int `mapstructure:"width" json:"width"`
	Height int `mapstructure:"height" json:"height"`
	Left   int `mapstructure:"left" json:"left"`
	Top    int `mapstructure:"top" json:"top"`
}

// BrowserConfig 浏览器配置
type BrowserConfig struct {
	Headless        bool          `mapstructure:"headless" json:"headless"`
	Bin             string        `mapstructure:"bin" json:"bin"`
	UserDataDir     string        `mapstructure:"user_data_dir" json:"user_data_dir"`
	Window          WindowConfig  `mapstructure:"window" json:"window"`
	NavigateTimeout time.Duration `mapstructure:"navigate_timeout" json:"navigate_timeout"`
	MaxWindows      int           `mapstructure:"max_windows" json:"max_windows"`

	// 资源限制
	SafetyReserveMemory int `mapstructure:"safety_reserve_memory" json:"safety_reserve_memory"` // MB
	SafetyThreshold     int `mapstructure:"safety_threshold" json:"safety_threshold"`           // MB
	WindowMemoryUsage   int `mapstructure:"window_memory_usage" json:"window_memory_usage"`     // MB
	CPULoadThreshold    int `mapstructure:"cpu_load_threshold" json:"cpu_load_threshold"`       // %, >=200 表示不检查
}
