package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/linkrelay/internal/browser"
	"github.com/RecoveryAshes/linkrelay/internal/core"
	"github.com/RecoveryAshes/linkrelay/internal/sources"
	"github.com/RecoveryAshes/linkrelay/internal/utils"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "启动弹出视窗轮播,直到 Ctrl+C",
	Long: `启动弹出视窗轮播

信号:
  SIGINT/SIGTERM  停止,等待现有流程收尾(再按一次立即退出)
  SIGHUP          重新载入来源`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig
		applySourceFlags(cmd, cfg)
		applyRunFlags(cmd, cfg)

		if err := ValidateFlags(cfg); err != nil {
			return err
		}

		headerManager, err := core.NewHeaderManager(cfg.Source.HeadersFile, headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		source, err := sources.New(cfg.Source, headerManager)
		if err != nil {
			return err
		}

		monitor := browser.NewResourceMonitor(browser.MonitorConfigFromBrowser(cfg.Browser))
		rodBrowser := browser.NewRodBrowser(cfg.Browser, monitor)
		logMemoryStatus(monitor.GetMemoryStatus())

		ctx := context.Background()
		utils.Info("🌐 启动浏览器...")
		if err := rodBrowser.Launch(ctx); err != nil {
			return err
		}
		defer func() {
			if err := rodBrowser.Close(); err != nil {
				utils.Warnf("%v", err)
			}
		}()

		controller := core.NewController(core.ControllerConfig{
			Run:                cfg.Run,
			Window:             browser.SpecFromConfig(cfg.Browser.Window),
			DefaultDestination: cfg.Source.DefaultDestination,
		}, source, rodBrowser)
		controller.SetLimiter(monitor)

		if cfg.Report.Progress {
			bar := utils.NewProgressBar(os.Stderr, -1, "已完成")
			controller.SetProgress(bar)
			defer func() { _ = bar.Finish() }()
		}

		stopSignals := handleSignals(ctx, controller)
		defer stopSignals()

		if err := controller.Start(ctx); err != nil {
			return fmt.Errorf("启动失败: %w", err)
		}

		controller.Wait()
		printStats(controller)
		if n := rodBrowser.OpenWindows(); n > 0 {
			utils.Warnf("⚠️ 仍有 %d 个视窗未关闭,将随浏览器一起关闭", n)
		}

		if cfg.Report.Enabled {
			reporter := utils.NewReporter(cfg.Report.Dir)
			path, err := reporter.WriteRunReport(controller.Report())
			if err != nil {
				utils.Warnf("写入运行报告失败: %v", err)
			} else {
				utils.Infof("📄 运行报告: %s", path)
			}
		}

		utils.Info("✨ 运行结束")
		return nil
	},
}

// handleSignals SIGINT/SIGTERM 停止,第二次立即退出;SIGHUP 重新载入
func handleSignals(ctx context.Context, controller *core.Controller) func() {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	done := make(chan struct{})

	go func() {
		stopping := false
		for {
			select {
			case <-done:
				return
			case sig := <-sigChan:
				if sig == syscall.SIGHUP {
					go func() {
						if err := controller.Reload(ctx); err != nil {
							utils.Warnf("重新载入未完成: %v", err)
						}
					}()
					continue
				}
				if stopping {
					utils.Warnf("再次收到 %v, 立即退出", sig)
					os.Exit(130)
				}
				stopping = true
				utils.Warnf("收到中断信号: %v, 正在优雅关闭...", sig)
				controller.Stop()
			}
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

// logMemoryStatus 启动前提示内存压力,有压力时返回true
func logMemoryStatus(status browser.MemoryStatus) bool {
	availableMB := status.AvailableMemory / 1024 / 1024
	if status.MemoryPressure == "normal" {
		utils.Debugf("可用内存 %dMB (已扣除保留)", availableMB)
		return false
	}
	utils.Warnf("⚠️ 内存压力 %s: 可用 %dMB,视窗数量可能受限", status.MemoryPressure, availableMB)
	return true
}

func printStats(controller *core.Controller) {
	stats := controller.Stats()
	fmt.Println("\n==================================================")
	fmt.Println("📊 运行统计")
	fmt.Println("==================================================")
	fmt.Printf("✅ 完成流程: %d\n", stats.Completed)
	fmt.Printf("⏹️  中止流程: %d\n", stats.Aborted)
	fmt.Printf("🚫 无法开启视窗: %d\n", stats.OpenFailures)
	fmt.Printf("⚠️  步骤失败: %d\n", stats.StepFailures)
	fmt.Printf("🔄 重新载入: %d (失败 %d)\n", stats.Reloads, stats.ReloadFailures)
	fmt.Printf("📋 链接池列数: %d\n", stats.PoolSize)
	fmt.Println("==================================================")
}

func init() {
	addSourceFlags(runCmd)
	addRunFlags(runCmd)
}
