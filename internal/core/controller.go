package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RecoveryAshes/linkrelay/internal/browser"
	"github.com/RecoveryAshes/linkrelay/internal/models"
	"github.com/RecoveryAshes/linkrelay/internal/sources"
	"github.com/RecoveryAshes/linkrelay/internal/utils"
)

// ProgressTracker 记录完成次数,*progressbar.ProgressBar 满足此接口
type ProgressTracker interface {
	Add(num int) error
}

// WindowLimiter 同时开启视窗数的上限,*browser.ResourceMonitor 满足此接口
type WindowLimiter interface {
	CalculateMaxWindows() int
}

// ControllerConfig 控制器配置
type ControllerConfig struct {
	Run                models.RunConfig
	Window             browser.WindowSpec
	DefaultDestination string
}

// Controller 运行状态与worker池的协调器
// 职责: 启动/停止/重新载入,统计完成次数,每K次自动重新载入来源
type Controller struct {
	config ControllerConfig
	source sources.Source
	opener browser.Opener

	limiter  WindowLimiter
	progress ProgressTracker
	picker   *Picker

	// 测试时可替换
	sleep  func(ctx context.Context, d time.Duration) error
	random func(r models.Range) time.Duration

	// 链接池快照,重新载入时整体替换
	pool       atomic.Pointer[models.LinkPool]
	generation atomic.Uint64
	reloading  atomic.Bool

	// 运行状态
	mu        sync.Mutex
	running   bool
	stopping  bool
	cancel    context.CancelFunc
	done      chan struct{}
	wg        sync.WaitGroup
	runID     string
	startedAt time.Time
	workers   int

	// 统计
	completed      atomic.Int64
	aborted        atomic.Int64
	openFailures   atomic.Int64
	stepFailures   atomic.Int64
	reloads        atomic.Int64
	reloadFailures atomic.Int64
}

// NewController 创建控制器
func NewController(config ControllerConfig, source sources.Source, opener browser.Opener) *Controller {
	config.Run.Normalize()
	return &Controller{
		config: config,
		source: source,
		opener: opener,
		picker: NewPicker(),
		sleep:  utils.Sleep,
		random: utils.RandomDuration,
	}
}

// SetLimiter 设置视窗数上限来源
func (c *Controller) SetLimiter(limiter WindowLimiter) {
	c.limiter = limiter
}

// SetProgress 设置进度记录
func (c *Controller) SetProgress(progress ProgressTracker) {
	c.progress = progress
}

// Start 载入来源并启动worker
// 已在运行时不做任何事;载入失败时恢复停止状态并返回错误;没有可用列时恢复停止状态并返回nil
// 载入期间收到停止指令时不启动worker
func (c *Controller) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		cancel()
		utils.Info("已在运行中,忽略启动指令")
		return nil
	}
	c.running = true
	c.stopping = false
	c.cancel = cancel
	c.resetStats()
	c.mu.Unlock()

	utils.Infof("▶️ 开始运行 (run_id=%s)", c.runID)

	err := c.load(runCtx)
	if runCtx.Err() != nil {
		cancel()
		c.setStopped()
		utils.Info("⏹️ 载入期间已停止,不启动worker")
		return ctx.Err()
	}
	if err != nil {
		cancel()
		utils.Errorf("❌ 载入失败: %v", err)
		c.setStopped()
		return err
	}

	if c.PoolSize() == 0 {
		cancel()
		utils.Warn("⚠️ 没有可用列,不启动worker")
		c.setStopped()
		return nil
	}

	workers := c.workerCount()
	gap := c.config.Run.LaunchGapDuration()
	done := make(chan struct{})

	c.mu.Lock()
	c.done = done
	c.workers = workers
	c.mu.Unlock()

	utils.Infof("🚀 启动 %d 个流程,间隔 %dms…", workers, c.config.Run.LaunchGap)

	c.wg.Add(1)
	go c.spawnWorkers(runCtx, workers, gap)

	go func() {
		c.wg.Wait()
		cancel()
		c.setStopped()
		utils.Info("⏹️ 所有流程已结束")
		close(done)
	}()

	return nil
}

// spawnWorkers 依间隔逐个启动worker,停止后不再启动新的
func (c *Controller) spawnWorkers(ctx context.Context, workers int, gap time.Duration) {
	defer c.wg.Done()

	for i := 1; i <= workers; i++ {
		if ctx.Err() != nil {
			utils.Debugf("已停止,不再启动剩余 %d 个worker", workers-i+1)
			return
		}

		c.wg.Add(1)
		go c.runWorker(ctx, i)

		if gap > 0 && i < workers {
			if err := c.sleep(ctx, gap); err != nil {
				return
			}
		}
	}
}

// workerCount 配置的worker数,受资源上限限制
func (c *Controller) workerCount() int {
	workers := c.config.Run.Workers
	if workers < 1 {
		workers = 1
	}
	if c.limiter != nil {
		if max := c.limiter.CalculateMaxWindows(); max > 0 && workers > max {
			utils.Warnf("⚠️ worker数量 %d 超过资源上限,调整为 %d", workers, max)
			workers = max
		}
	}
	return workers
}

// Stop 停止运行,进行中的会话会在下一个检查点结束
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.stopping || c.cancel == nil {
		return
	}
	c.stopping = true
	c.cancel()
	utils.Info("🛑 收到停止指令,等待现有流程收尾…")
}

// Wait 等待所有worker结束
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Running 是否在运行
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Reload 手动重新载入来源,与运行状态无关
// 已有重新载入进行中时返回 models.ErrReloadInProgress;失败时保留现有链接池
func (c *Controller) Reload(ctx context.Context) error {
	if !c.reloading.CompareAndSwap(false, true) {
		utils.Info("另一个重新载入正在进行中,略过此次触发")
		return models.ErrReloadInProgress
	}
	defer c.reloading.Store(false)

	return c.reload(ctx)
}

// maybeReload 每完成K次触发一次非同步重新载入
func (c *Controller) maybeReload(ctx context.Context, completed int64) {
	every := int64(c.config.Run.ReloadEvery)
	if completed <= 0 || completed%every != 0 {
		return
	}

	if !c.reloading.CompareAndSwap(false, true) {
		utils.Info("另一个重新载入正在进行中,略过此次触发")
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.reloading.Store(false)

		utils.Infof("🔄 达到 %d 次,重新载入来源…", every)
		_ = c.reload(ctx)
	}()
}

func (c *Controller) reload(ctx context.Context) error {
	if err := c.load(ctx); err != nil {
		c.reloadFailures.Add(1)
		utils.Errorf("❌ 重新载入失败: %v", err)
		return err
	}
	c.reloads.Add(1)
	utils.Info("✅ 重新载入完成")
	return nil
}

// load 载入来源并替换链接池快照
func (c *Controller) load(ctx context.Context) error {
	utils.Infof("尝试载入来源资料: %s", c.source.Name())

	pairs, err := c.source.Load(ctx)
	if err != nil {
		return err
	}

	pool := models.NewLinkPool(pairs, c.generation.Add(1))
	if !c.storePool(pool) {
		utils.Debugf("已有更新的链接池,丢弃第 %d 代载入结果", pool.Generation)
		return nil
	}

	utils.Infof("资料载入完成,总列数: %d", pool.Len())
	if pool.Len() == 0 {
		utils.Warn("⚠️ 没有可用列 (来源需为 http/https)")
	}
	return nil
}

// storePool 只接受比现有代数新的链接池,同时进行的两次载入以较新的为准
func (c *Controller) storePool(pool *models.LinkPool) bool {
	for {
		cur := c.pool.Load()
		if cur != nil && cur.Generation >= pool.Generation {
			return false
		}
		if c.pool.CompareAndSwap(cur, pool) {
			return true
		}
	}
}

// Pool 当前链接池快照
func (c *Controller) Pool() *models.LinkPool {
	return c.pool.Load()
}

// PoolSize 当前链接池列数
func (c *Controller) PoolSize() int {
	return c.pool.Load().Len()
}

// Stats 统计快照
func (c *Controller) Stats() models.RunStats {
	c.mu.Lock()
	runID, startedAt, workers := c.runID, c.startedAt, c.workers
	c.mu.Unlock()

	return models.RunStats{
		RunID:          runID,
		StartedAt:      startedAt,
		Workers:        workers,
		Completed:      c.completed.Load(),
		Aborted:        c.aborted.Load(),
		OpenFailures:   c.openFailures.Load(),
		StepFailures:   c.stepFailures.Load(),
		Reloads:        c.reloads.Load(),
		ReloadFailures: c.reloadFailures.Load(),
		PoolSize:       c.PoolSize(),
	}
}

// Report 生成运行报告
func (c *Controller) Report() *models.RunReport {
	stats := c.Stats()
	end := time.Now()
	return &models.RunReport{
		RunID:     stats.RunID,
		Source:    c.source.Name(),
		StartTime: stats.StartedAt,
		EndTime:   end,
		Duration:  end.Sub(stats.StartedAt).Seconds(),
		Stats:     stats,
		Run:       c.config.Run,
	}
}

// resetStats 调用方需持有c.mu
func (c *Controller) resetStats() {
	c.runID = models.NewRunID()
	c.startedAt = time.Now()
	c.workers = 0
	c.completed.Store(0)
	c.aborted.Store(0)
	c.openFailures.Store(0)
	c.stepFailures.Store(0)
	c.reloads.Store(0)
	c.reloadFailures.Store(0)
}

func (c *Controller) setStopped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.stopping = false
	c.cancel = nil
}
