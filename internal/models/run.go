package models

import (
	"time"
)

// SessionState 标签页会话状态
type SessionState string

const (
	SessionOpening       SessionState = "opening"        // 正在开启视窗
	SessionAtSource      SessionState = "at_source"      // 停留在来源页
	SessionAtDestination SessionState = "at_destination" // 停留在目的地页
	SessionClosing       SessionState = "closing"        // 正在关闭
	SessionClosed        SessionState = "closed"         // 已关闭
	SessionAborted       SessionState = "aborted"        // 中止
)

// Terminal 是否为终止状态
func (s SessionState) Terminal() bool {
	return s == SessionClosed || s == SessionAborted
}

// StepError 单一步骤的尽力而为失败,不会中止会话
type StepError struct {
	Step string
	Err  error
}

// Error 实现error接口
func (e StepError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

// SessionResult 一次标签页会话的结果
type SessionResult struct {
	WorkerID      int
	WindowID      int
	Pair          LinkPair
	Destination   string
	State         SessionState
	AbortReason   string
	StepErrors    []StepError
	ClosedCleanly bool
	StartedAt     time.Time
	Duration      time.Duration
}

// Aborted 会话是否中止
func (r *SessionResult) Aborted() bool {
	return r.State == SessionAborted
}

// Completed 会话是否完整走完 开启→导航→关闭
func (r *SessionResult) Completed() bool {
	return r.State == SessionClosed
}

// WorkerState 单个worker的状态
type WorkerState struct {
	ID              int
	LastPickedIndex int    // -1 表示尚未挑选
	Generation      uint64 // 上次挑选时的链接池版本
}

// NewWorkerState 创建worker状态
func NewWorkerState(id int) *WorkerState {
	return &WorkerState{ID: id, LastPickedIndex: -1}
}

// Observe 链接池版本变化时重置上次挑选的索引
func (w *WorkerState) Observe(generation uint64) {
	if w.Generation != generation {
		w.Generation = generation
		w.LastPickedIndex = -1
	}
}

// RunStats 运行统计
type RunStats struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	Workers        int       `json:"workers"`
	Completed      int64     `json:"completed"`       // 完整流程次数
	Aborted        int64     `json:"aborted"`         // 中止次数
	OpenFailures   int64     `json:"open_failures"`   // 无法开启视窗次数
	StepFailures   int64     `json:"step_failures"`   // 导航/关闭失败次数
	Reloads        int64     `json:"reloads"`         // 重新载入成功次数
	ReloadFailures int64     `json:"reload_failures"` // 重新载入失败次数
	PoolSize       int       `json:"pool_size"`       // 当前链接池列数
}
