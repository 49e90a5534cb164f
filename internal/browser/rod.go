package browser

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RecoveryAshes/linkrelay/internal/models"
	"github.com/RecoveryAshes/linkrelay/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// DefaultNavigateTimeout 单次导航超时
const DefaultNavigateTimeout = 30 * time.Second

// RodBrowser 基于go-rod的弹出视窗开启器
type RodBrowser struct {
	config   models.BrowserConfig
	launcher *launcher.Launcher
	browser  *rod.Browser

	tracker         *WindowTracker
	resourceMonitor *ResourceMonitor

	mu sync.Mutex
}

// NewRodBrowser 创建浏览器实例(尚未启动)
func NewRodBrowser(config models.BrowserConfig, resourceMonitor *ResourceMonitor) *RodBrowser {
	if config.NavigateTimeout <= 0 {
		config.NavigateTimeout = DefaultNavigateTimeout
	}
	return &RodBrowser{
		config:          config,
		tracker:         NewWindowTracker(),
		resourceMonitor: resourceMonitor,
	}
}

// Launch 启动并连接浏览器
func (rb *RodBrowser) Launch(ctx context.Context) error {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.browser != nil {
		return nil
	}

	l := launcher.New().Headless(rb.config.Headless)
	if rb.config.Bin != "" {
		l = l.Bin(rb.config.Bin)
	}
	if rb.config.UserDataDir != "" {
		l = l.UserDataDir(rb.config.UserDataDir)
	}
	// 允许脚本开启视窗
	l = l.Set("disable-popup-blocking")

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("连接浏览器失败: %w", err)
	}

	// 不在浏览器内下载文件
	err = proto.BrowserSetDownloadBehavior{
		Behavior:         proto.BrowserSetDownloadBehaviorBehaviorDeny,
		BrowserContextID: browser.BrowserContextID,
	}.Call(browser)
	if err != nil {
		utils.Warnf("设置下载行为失败: %v", err)
	}

	rb.launcher = l
	rb.browser = browser
	utils.Debugf("浏览器已启动: %s", controlURL)
	return nil
}

// Open 开启新的弹出视窗
func (rb *RodBrowser) Open(ctx context.Context, spec WindowSpec) (Window, error) {
	rb.mu.Lock()
	browser := rb.browser
	rb.mu.Unlock()

	if browser == nil {
		return nil, fmt.Errorf("浏览器尚未启动")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if rb.resourceMonitor != nil {
		if ok, reason := rb.resourceMonitor.CheckResourceAvailability(); !ok {
			return nil, fmt.Errorf("资源不足,无法开启视窗: %s", reason)
		}
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank", NewWindow: true})
	if err != nil {
		return nil, fmt.Errorf("开启视窗失败(浏览器可能已崩溃): %w", err)
	}

	err = page.SetWindow(&proto.BrowserBounds{
		Left:        gson.Int(spec.Left),
		Top:         gson.Int(spec.Top),
		Width:       gson.Int(spec.Width),
		Height:      gson.Int(spec.Height),
		WindowState: proto.BrowserWindowStateNormal,
	})
	if err != nil {
		// 无头模式下可能没有视窗边界,不影响后续导航
		utils.Debugf("设置视窗位置失败: %v", err)
	}

	w := newRodWindow(rb.tracker.NextID(), page, rb.config.NavigateTimeout, rb.tracker)
	if !rb.tracker.Register(w) {
		_ = w.Close()
		return nil, fmt.Errorf("浏览器正在关闭")
	}
	return w, nil
}

// OpenWindows 当前开启的视窗数
func (rb *RodBrowser) OpenWindows() int {
	return rb.tracker.Count()
}

// Close 关闭所有视窗与浏览器
func (rb *RodBrowser) Close() error {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.browser == nil {
		return nil
	}

	rb.tracker.CloseAll()

	err := rb.browser.Close()
	if rb.launcher != nil {
		rb.launcher.Kill()
		rb.launcher.Cleanup()
	}
	rb.browser = nil
	rb.launcher = nil

	utils.Debugf("浏览器已关闭")
	if err != nil {
		return fmt.Errorf("关闭浏览器失败: %w", err)
	}
	return nil
}

// rodWindow 以rod.Page实现的视窗
type rodWindow struct {
	id         int
	page       *rod.Page
	navTimeout time.Duration
	tracker    *WindowTracker

	closed      atomic.Bool
	stopDialogs context.CancelFunc
}

func newRodWindow(id int, page *rod.Page, navTimeout time.Duration, tracker *WindowTracker) *rodWindow {
	evCtx, cancel := context.WithCancel(context.Background())
	w := &rodWindow{
		id:          id,
		page:        page,
		navTimeout:  navTimeout,
		tracker:     tracker,
		stopDialogs: cancel,
	}

	// 自动关闭 alert/confirm/prompt,避免导航卡住
	p := page.Context(evCtx)
	go p.EachEvent(func(e *proto.PageJavascriptDialogOpening) {
		_ = proto.PageHandleJavaScriptDialog{Accept: false}.Call(p)
	})()

	return w
}

func (w *rodWindow) ID() int {
	return w.id
}

func (w *rodWindow) WriteDocument(html string) error {
	if w.closed.Load() {
		return ErrWindowClosed
	}
	return w.page.SetDocumentContent(html)
}

func (w *rodWindow) Navigate(url string) error {
	if w.closed.Load() {
		return ErrWindowClosed
	}
	page := w.page.Timeout(w.navTimeout)
	defer page.CancelTimeout()
	return page.Navigate(url)
}

// Closed 目标不存在时视为已关闭
func (w *rodWindow) Closed() bool {
	if w.closed.Load() {
		return true
	}
	if _, err := w.page.Info(); err != nil {
		w.markClosed()
		return true
	}
	return false
}

func (w *rodWindow) Close() error {
	if w.closed.Load() {
		return nil
	}
	err := w.page.Close()
	w.markClosed()
	return err
}

func (w *rodWindow) markClosed() {
	if w.closed.CompareAndSwap(false, true) {
		w.stopDialogs()
		w.tracker.Unregister(w.id)
	}
}
