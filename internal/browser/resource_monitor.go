package browser

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/RecoveryAshes/linkrelay/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const mb = 1024 * 1024

// ResourceMonitor 系统资源监控器
// 职责: 根据可用内存与CPU计算同时开启视窗的上限
type ResourceMonitor struct {
	config ResourceMonitorConfig

	// 可替换的采样函数
	availableMemory func() (uint64, error)
	cpuUsage        func() (float64, error)
	numCPU          int

	// 缓存的CalculateMaxWindows结果(每秒更新一次)
	cachedMax     int
	lastCacheTime time.Time
	cacheMu       sync.Mutex
}

// ResourceMonitorConfig 资源监控器配置
type ResourceMonitorConfig struct {
	SafetyReserveMemory int64 // 安全保留内存(字节)
	SafetyThreshold     int64 // 安全阈值(字节)
	CPULoadThreshold    int   // CPU负载阈值(%), >=200 视为禁用
	MaxWindowsLimit     int   // 绝对最大视窗数
	WindowMemoryUsage   int64 // 单个视窗平均内存消耗(字节)
}

// MemoryStatus 内存状态信息
type MemoryStatus struct {
	AvailableMemory int64  // 扣除保留后的可用内存(字节)
	SafetyReserve   int64  // 安全保留内存(字节)
	SafetyThreshold int64  // 安全阈值(字节)
	MemoryPressure  string // 内存压力等级
}

// MonitorConfigFromBrowser 从浏览器配置换算(MB转字节)
func MonitorConfigFromBrowser(cfg models.BrowserConfig) ResourceMonitorConfig {
	return ResourceMonitorConfig{
		SafetyReserveMemory: int64(cfg.SafetyReserveMemory) * mb,
		SafetyThreshold:     int64(cfg.SafetyThreshold) * mb,
		CPULoadThreshold:    cfg.CPULoadThreshold,
		MaxWindowsLimit:     cfg.MaxWindows,
		WindowMemoryUsage:   int64(cfg.WindowMemoryUsage) * mb,
	}
}

// NewResourceMonitor 创建资源监控器实例
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	if config.WindowMemoryUsage <= 0 {
		config.WindowMemoryUsage = 100 * mb
	}
	if config.MaxWindowsLimit <= 0 {
		config.MaxWindowsLimit = 16
	}
	if config.CPULoadThreshold <= 0 {
		config.CPULoadThreshold = 200
	}

	rm := &ResourceMonitor{
		config:          config,
		availableMemory: systemAvailableMemory,
		cpuUsage:        systemCPUUsage,
		numCPU:          runtime.NumCPU(),
	}

	if avail, err := rm.availableMemory(); err != nil {
		log.Warn().Err(err).Msg("获取系统内存失败,将不按内存限制视窗数")
	} else {
		log.Debug().Msgf("系统可用内存: %.2f GB", float64(avail)/(1024*mb))
	}

	return rm
}

// systemAvailableMemory 使用gopsutil获取系统可用内存
// 视窗跑在浏览器进程里,所以看系统可用内存而不是本进程的堆
func systemAvailableMemory() (uint64, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vmStat.Available, nil
}

// systemCPUUsage 所有核心的平均CPU使用率
func systemCPUUsage() (float64, error) {
	percentages, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		return 0, err
	}
	if len(percentages) == 0 {
		return 0, fmt.Errorf("CPU使用率数据为空")
	}
	return percentages[0], nil
}

// usableMemory 可用内存减去安全保留
func (rm *ResourceMonitor) usableMemory() (int64, bool) {
	avail, err := rm.availableMemory()
	if err != nil {
		return 0, false
	}
	return int64(avail) - rm.config.SafetyReserveMemory, true
}

// CalculateMaxWindows 计算当前允许的最大视窗数
// 结果缓存1秒
func (rm *ResourceMonitor) CalculateMaxWindows() int {
	rm.cacheMu.Lock()
	defer rm.cacheMu.Unlock()

	if time.Since(rm.lastCacheTime) < time.Second && rm.cachedMax > 0 {
		return rm.cachedMax
	}

	result := rm.config.MaxWindowsLimit

	// 基于内存计算上限,内存读不到时不限制
	if usable, ok := rm.usableMemory(); ok {
		byMemory := 1
		if usable > rm.config.SafetyThreshold {
			byMemory = int((usable - rm.config.SafetyThreshold) / rm.config.WindowMemoryUsage)
		}
		if byMemory < result {
			result = byMemory
		}
	}

	// 每个核心最多两个视窗
	if byCPU := rm.numCPU * 2; byCPU < result {
		result = byCPU
	}

	if result < 1 {
		result = 1
	}

	rm.cachedMax = result
	rm.lastCacheTime = time.Now()
	return result
}

// CheckResourceAvailability 检查当前资源是否允许开启新视窗
func (rm *ResourceMonitor) CheckResourceAvailability() (canCreate bool, reason string) {
	if usable, ok := rm.usableMemory(); ok && usable < rm.config.SafetyThreshold {
		usableMB := usable / mb
		log.Warn().Msgf("可用内存不足(当前%dMB),视窗开启受限", usableMB)
		return false, fmt.Sprintf("内存不足(当前%dMB)", usableMB)
	}

	if rm.config.CPULoadThreshold < 200 {
		usage, err := rm.cpuUsage()
		if err != nil {
			log.Warn().Err(err).Msg("获取CPU使用率失败")
		} else if usage > float64(rm.config.CPULoadThreshold) {
			return false, fmt.Sprintf("CPU负载过高(当前%.1f%%)", usage)
		}
	}

	return true, ""
}

// GetMemoryStatus 获取当前内存状态
func (rm *ResourceMonitor) GetMemoryStatus() MemoryStatus {
	usable, _ := rm.usableMemory()

	var pressure string
	usableMB := usable / mb
	switch {
	case usableMB < 200:
		pressure = "emergency"
	case usableMB < 300:
		pressure = "critical"
	case usableMB < 500:
		pressure = "warning"
	default:
		pressure = "normal"
	}

	return MemoryStatus{
		AvailableMemory: usable,
		SafetyReserve:   rm.config.SafetyReserveMemory,
		SafetyThreshold: rm.config.SafetyThreshold,
		MemoryPressure:  pressure,
	}
}
