package models

import (
	"errors"
	"fmt"
)

// ErrReloadInProgress 已有重新载入在进行中
var ErrReloadInProgress = errors.New("另一个重新载入正在进行中")

// FetchError 链接来源无法访问(网络错误或非2xx状态码)
type FetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

// Error 实现error接口
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("载入来源失败 [%s] (HTTP %d): %v", e.URL, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("载入来源失败 [%s]: %v", e.URL, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// ParseError 来源内容不是预期格式
type ParseError struct {
	Source string
	Reason string
	Cause  error
}

// Error 实现error接口
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("无法解析来源内容 [%s]: %s: %v", e.Source, e.Reason, e.Cause)
	}
	return fmt.Sprintf("无法解析来源内容 [%s]: %s", e.Source, e.Reason)
}

// Unwrap 支持errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError 头部验证错误
type ValidationError struct {
	Field      string // "name" 或 "value"
	HeaderName string
	Reason     string
	Suggestion string
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("头部验证失败 [%s]: %s", e.HeaderName, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (建议: %s)", e.Suggestion)
	}
	return msg
}

// ConfigError 配置文件错误
type ConfigError struct {
	FilePath string
	Cause    error
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
