package crawlers

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/RecoveryAshes/DocPack/internal/utils"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// 资源监控默认参数
const (
	defaultTabMemoryUsage  = 150 * 1024 * 1024 // 单个标签页平均内存消耗
	defaultSafetyReserve   = 512 * 1024 * 1024 // 安全保留内存
	defaultCPUThreshold    = 85.0              // CPU负载阈值(%)
	maxTabsCacheTTL        = time.Second       // CalculateMaxTabs结果缓存时长
	monitorSampleInterval  = 2 * time.Second   // 后台采样间隔
	cpuSampleWindow        = 100 * time.Millisecond
)

// ResourceMonitor 系统资源监控器
// 根据可用内存和CPU负载计算允许同时打开的标签页数量
type ResourceMonitor struct {
	totalMemory    uint64
	tabMemoryUsage int64
	safetyReserve  int64
	cpuThreshold   float64

	mu           sync.RWMutex
	lastMemStats runtime.MemStats
	lastCPUUsage float64

	cacheMu       sync.RWMutex
	cachedMaxTabs int
	lastCacheTime time.Time

	cancel    context.CancelFunc
	isRunning bool
}

// NewResourceMonitor 创建资源监控器
func NewResourceMonitor() *ResourceMonitor {
	var totalMem uint64
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		utils.Warnf("获取系统内存失败,使用默认值4GB: %v", err)
		totalMem = 4 * 1024 * 1024 * 1024
	} else {
		totalMem = vmStat.Total
		utils.Debugf("系统总内存: %.2f GB", float64(totalMem)/(1024*1024*1024))
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &ResourceMonitor{
		totalMemory:    totalMem,
		tabMemoryUsage: defaultTabMemoryUsage,
		safetyReserve:  defaultSafetyReserve,
		cpuThreshold:   defaultCPUThreshold,
		lastMemStats:   memStats,
	}
}

// Start 启动后台采样goroutine,幂等
func (rm *ResourceMonitor) Start() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.isRunning {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	rm.cancel = cancel
	rm.isRunning = true
	go rm.sampleLoop(ctx)
}

// Stop 停止后台采样
func (rm *ResourceMonitor) Stop() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.isRunning && rm.cancel != nil {
		rm.cancel()
		rm.isRunning = false
		rm.cancel = nil
	}
}

func (rm *ResourceMonitor) sampleLoop(ctx context.Context) {
	ticker := time.NewTicker(monitorSampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)
			cpuUsage := sampleCPUUsage()

			rm.mu.Lock()
			rm.lastMemStats = memStats
			rm.lastCPUUsage = cpuUsage
			rm.mu.Unlock()
		}
	}
}

// sampleCPUUsage 采样系统CPU平均使用率(百分比)
func sampleCPUUsage() float64 {
	percentages, err := cpu.Percent(cpuSampleWindow, false)
	if err != nil || len(percentages) == 0 {
		return 0.0
	}
	return percentages[0]
}

// CalculateMaxTabs 计算当前资源允许的最大标签页数
// 结果缓存1秒,configuredMax是用户配置的上限
func (rm *ResourceMonitor) CalculateMaxTabs(configuredMax int) int {
	rm.cacheMu.RLock()
	if time.Since(rm.lastCacheTime) < maxTabsCacheTTL && rm.cachedMaxTabs > 0 {
		cached := rm.cachedMaxTabs
		rm.cacheMu.RUnlock()
		if cached > configuredMax {
			return configuredMax
		}
		return cached
	}
	rm.cacheMu.RUnlock()

	availableMemory := rm.availableMemory()

	maxByMemory := 1
	if availableMemory > rm.tabMemoryUsage {
		maxByMemory = int(availableMemory / rm.tabMemoryUsage)
	}

	result := maxByMemory
	if cpuCount := runtime.NumCPU(); cpuCount < result {
		result = cpuCount
	}
	if result < 1 {
		result = 1
	}

	rm.cacheMu.Lock()
	rm.cachedMaxTabs = result
	rm.lastCacheTime = time.Now()
	rm.cacheMu.Unlock()

	if result > configuredMax {
		return configuredMax
	}
	return result
}

// CheckResourceAvailability 检查当前资源是否允许创建新标签页
func (rm *ResourceMonitor) CheckResourceAvailability() (bool, string) {
	availableMemory := rm.availableMemory()
	if availableMemory < rm.tabMemoryUsage {
		return false, "内存不足"
	}

	rm.mu.RLock()
	cpuUsage := rm.lastCPUUsage
	rm.mu.RUnlock()

	if cpuUsage > rm.cpuThreshold {
		return false, "CPU负载过高"
	}
	return true, ""
}

// availableMemory 估算当前可用内存(字节)
func (rm *ResourceMonitor) availableMemory() int64 {
	rm.mu.RLock()
	allocated := rm.lastMemStats.Alloc
	rm.mu.RUnlock()
	return int64(rm.totalMemory) - int64(allocated) - rm.safetyReserve
}
