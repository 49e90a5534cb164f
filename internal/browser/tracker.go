package browser

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// WindowTracker 跟踪当前开启的视窗
// 职责: 分配视窗编号,在停止时关闭所有残留视窗
type WindowTracker struct {
	mu      sync.Mutex
	nextID  int
	windows map[int]Window
	closed  bool
}

// NewWindowTracker 创建视窗跟踪器
func NewWindowTracker() *WindowTracker {
	return &WindowTracker{
		windows: make(map[int]Window),
	}
}

// NextID 分配下一个视窗编号(从1开始)
func (wt *WindowTracker) NextID() int {
	wt.mu.Lock()
	defer wt.mu.Unlock()
	wt.nextID++
	return wt.nextID
}

// Register 登记视窗,跟踪器已关闭时返回false
func (wt *WindowTracker) Register(w Window) bool {
	wt.mu.Lock()
	defer wt.mu.Unlock()
	if wt.closed {
		return false
	}
	wt.windows[w.ID()] = w
	log.Debug().Int("window", w.ID()).Int("open", len(wt.windows)).Msg("登记视窗")
	return true
}

// Unregister 取消登记
func (wt *WindowTracker) Unregister(id int) {
	wt.mu.Lock()
	defer wt.mu.Unlock()
	delete(wt.windows, id)
}

// Count 当前开启的视窗数
func (wt *WindowTracker) Count() int {
	wt.mu.Lock()
	defer wt.mu.Unlock()
	return len(wt.windows)
}

// CloseAll 关闭所有残留视窗,之后不再接受登记
func (wt *WindowTracker) CloseAll() int {
	wt.mu.Lock()
	windows := make([]Window, 0, len(wt.windows))
	for _, w := range wt.windows {
		windows = append(windows, w)
	}
	wt.windows = make(map[int]Window)
	wt.closed = true
	wt.mu.Unlock()

	closed := 0
	for _, w := range windows {
		if w.Closed() {
			continue
		}
		if err := w.Close(); err != nil {
			log.Warn().Err(err).Int("window", w.ID()).Msg("关闭视窗失败")
			continue
		}
		closed++
	}

	if closed > 0 {
		log.Info().Msgf("已关闭 %d 个残留视窗", closed)
	}
	return closed
}
