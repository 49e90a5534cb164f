package browser

import (
	"errors"
	"sync"
	"testing"

	"github.com/RecoveryAshes/linkrelay/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWindow struct {
	id       int
	mu       sync.Mutex
	closed   bool
	closeErr error
}

func (w *stubWindow) ID() int                   { return w.id }
func (w *stubWindow) WriteDocument(string) error { return nil }
func (w *stubWindow) Navigate(string) error      { return nil }

func (w *stubWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *stubWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closeErr != nil {
		return w.closeErr
	}
	w.closed = true
	return nil
}

func TestWindowTracker(t *testing.T) {
	wt := NewWindowTracker()

	assert.Equal(t, 1, wt.NextID())
	assert.Equal(t, 2, wt.NextID())

	a := &stubWindow{id: 1}
	b := &stubWindow{id: 2, closed: true}
	c := &stubWindow{id: 3, closeErr: errors.New("boom")}

	require.True(t, wt.Register(a))
	require.True(t, wt.Register(b))
	require.True(t, wt.Register(c))
	assert.Equal(t, 3, wt.Count())

	wt.Unregister(3)
	assert.Equal(t, 2, wt.Count())
	require.True(t, wt.Register(c))

	// 只计算真正由这次关闭的视窗
	assert.Equal(t, 1, wt.CloseAll())
	assert.True(t, a.Closed())
	assert.Equal(t, 0, wt.Count())

	assert.False(t, wt.Register(&stubWindow{id: 4}), "关闭后不应接受登记")
}

func TestSpecFromConfig(t *testing.T) {
	spec := SpecFromConfig(models.WindowConfig{Left: 100, Top: 100})
	assert.Equal(t, WindowSpec{Width: 375, Height: 812, Left: 100, Top: 100}, spec)

	spec = SpecFromConfig(models.WindowConfig{Width: 800, Height: 600})
	assert.Equal(t, WindowSpec{Width: 800, Height: 600}, spec)
}

func newTestMonitor(cfg ResourceMonitorConfig, avail uint64, memErr error, cpu float64) *ResourceMonitor {
	rm := NewResourceMonitor(cfg)
	rm.availableMemory = func() (uint64, error) { return avail, memErr }
	rm.cpuUsage = func() (float64, error) { return cpu, nil }
	rm.numCPU = 4
	return rm
}

func TestResourceMonitor_CalculateMaxWindows(t *testing.T) {
	tests := []struct {
		name   string
		config ResourceMonitorConfig
		avail  uint64
		memErr error
		want   int
	}{
		{
			name:   "内存充足受CPU限制",
			config: ResourceMonitorConfig{MaxWindowsLimit: 50, WindowMemoryUsage: 100 * mb},
			avail:  16 * 1024 * mb,
			want:   8,
		},
		{
			name:   "受配置上限限制",
			config: ResourceMonitorConfig{MaxWindowsLimit: 3, WindowMemoryUsage: 100 * mb},
			avail:  16 * 1024 * mb,
			want:   3,
		},
		{
			name: "受内存限制",
			config: ResourceMonitorConfig{
				MaxWindowsLimit:     50,
				SafetyReserveMemory: 1024 * mb,
				SafetyThreshold:     500 * mb,
				WindowMemoryUsage:   100 * mb,
			},
			avail: 1024*mb + 500*mb + 250*mb,
			want:  2,
		},
		{
			name:   "内存不足至少1个",
			config: ResourceMonitorConfig{MaxWindowsLimit: 50, SafetyReserveMemory: 1024 * mb},
			avail:  512 * mb,
			want:   1,
		},
		{
			name:   "读不到内存时不限制",
			config: ResourceMonitorConfig{MaxWindowsLimit: 5},
			memErr: errors.New("unsupported"),
			want:   5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := newTestMonitor(tt.config, tt.avail, tt.memErr, 0)
			assert.Equal(t, tt.want, rm.CalculateMaxWindows())
		})
	}
}

func TestResourceMonitor_CheckResourceAvailability(t *testing.T) {
	cfg := ResourceMonitorConfig{SafetyReserveMemory: 100 * mb, SafetyThreshold: 200 * mb}

	rm := newTestMonitor(cfg, 1024*mb, nil, 0)
	ok, reason := rm.CheckResourceAvailability()
	assert.True(t, ok)
	assert.Empty(t, reason)

	rm = newTestMonitor(cfg, 250*mb, nil, 0)
	ok, reason = rm.CheckResourceAvailability()
	assert.False(t, ok)
	assert.Contains(t, reason, "内存不足")

	cfg.CPULoadThreshold = 80
	rm = newTestMonitor(cfg, 1024*mb, nil, 95)
	ok, reason = rm.CheckResourceAvailability()
	assert.False(t, ok)
	assert.Contains(t, reason, "CPU")
}

func TestResourceMonitor_GetMemoryStatus(t *testing.T) {
	rm := newTestMonitor(ResourceMonitorConfig{SafetyReserveMemory: 100 * mb}, 350*mb, nil, 0)
	status := rm.GetMemoryStatus()
	assert.Equal(t, int64(250*mb), status.AvailableMemory)
	assert.Equal(t, "critical", status.MemoryPressure)
}

func TestMonitorConfigFromBrowser(t *testing.T) {
	cfg := MonitorConfigFromBrowser(models.BrowserConfig{
		MaxWindows:          8,
		SafetyReserveMemory: 1024,
		SafetyThreshold:     500,
		WindowMemoryUsage:   100,
		CPULoadThreshold:    90,
	})
	assert.Equal(t, int64(1024*mb), cfg.SafetyReserveMemory)
	assert.Equal(t, int64(500*mb), cfg.SafetyThreshold)
	assert.Equal(t, int64(100*mb), cfg.WindowMemoryUsage)
	assert.Equal(t, 8, cfg.MaxWindowsLimit)
	assert.Equal(t, 90, cfg.CPULoadThreshold)
}
