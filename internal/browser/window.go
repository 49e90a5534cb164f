// Package browser 封装弹出视窗的开启、导航与关闭
//
// Window 与 Opener 是会话层唯一依赖的接口,
// 正式运行使用 go-rod 实现 (RodBrowser),测试使用假实现。
package browser

import (
	"context"
	"errors"

	"github.com/RecoveryAshes/linkrelay/internal/models"
)

// ErrWindowClosed 视窗已被关闭
var ErrWindowClosed = errors.New("视窗已关闭")

// WindowSpec 新视窗的大小与位置
type WindowSpec struct {
	Width  int
	Height int
	Left   int
	Top    int
}

// SpecFromConfig 从配置创建视窗规格,未设置的值使用默认
func SpecFromConfig(cfg models.WindowConfig) WindowSpec {
	spec := WindowSpec{
		Width:  cfg.Width,
		Height: cfg.Height,
		Left:   cfg.Left,
		Top:    cfg.Top,
	}
	if spec.Width <= 0 {
		spec.Width = 375
	}
	if spec.Height <= 0 {
		spec.Height = 812
	}
	return spec
}

// Window 一个已开启的弹出视窗
type Window interface {
	// ID 视窗编号,在同一个浏览器内递增
	ID() int
	// WriteDocument 直接写入文档内容
	WriteDocument(html string) error
	// Navigate 导航到网址
	Navigate(url string) error
	// Closed 视窗是否已关闭(包括被使用者手动关闭)
	Closed() bool
	// Close 关闭视窗
	Close() error
}

// Opener 开启弹出视窗
type Opener interface {
	Open(ctx context.Context, spec WindowSpec) (Window, error)
}
