package main

import (
	"github.com/RecoveryAshes/linkrelay/internal/core"
	"github.com/RecoveryAshes/linkrelay/internal/models"
	"github.com/spf13/cobra"
)

// 来源参数(run 与 check 共用)
var (
	sheetID     string
	gid         string
	query       string
	linksFile   string
	links       string
	defaultDest string
)

// 运行参数
var (
	workers     int
	launchGap   int
	reloadEvery int
	headless    bool
	browserBin  string
	userDataDir string
	reportDir   string
	noProgress  bool
)

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sheetID, "sheet-id", "", "Google试算表ID")
	cmd.Flags().StringVar(&gid, "gid", "0", "工作表gid")
	cmd.Flags().StringVar(&query, "query", "", "gviz查询语句 (默认: select E,F where E is not null)")
	cmd.Flags().StringVar(&linksFile, "links-file", "", "文本列表文件,每行一个网址 ('-' 表示标准输入)")
	cmd.Flags().StringVar(&links, "links", "", "内联文本列表,以换行分隔")
	cmd.Flags().StringVar(&defaultDest, "default-dest", "", "目的地为空时使用的网址")
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&workers, "workers", "n", 1, "并行worker数量 (1-50)")
	cmd.Flags().IntVar(&launchGap, "launch-gap", 0, "worker启动间隔(毫秒)")
	cmd.Flags().IntVar(&reloadEvery, "reload-every", 20, "每完成N次重新载入来源")
	cmd.Flags().BoolVar(&headless, "headless", false, "无头浏览器模式")
	cmd.Flags().StringVar(&browserBin, "browser-bin", "", "浏览器执行文件路径(默认自动下载)")
	cmd.Flags().StringVar(&userDataDir, "user-data-dir", "", "浏览器用户资料目录")
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "运行报告输出目录")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "不显示进度条")
}

// applySourceFlags 只覆盖命令行明确指定的参数
func applySourceFlags(cmd *cobra.Command, cfg *core.Config) {
	flags := cmd.Flags()

	if flags.Changed("sheet-id") {
		cfg.Source.SheetID = sheetID
		cfg.Source.Kind = models.SourceSheet
	}
	if flags.Changed("gid") {
		cfg.Source.GID = gid
	}
	if flags.Changed("query") {
		cfg.Source.Query = query
	}
	if flags.Changed("links-file") {
		cfg.Source.ListFile = linksFile
		cfg.Source.Kind = models.SourceList
	}
	if flags.Changed("links") {
		cfg.Source.Links = links
		cfg.Source.Kind = models.SourceList
	}
	if flags.Changed("default-dest") {
		cfg.Source.DefaultDestination = defaultDest
	}
}

// applyRunFlags 只覆盖命令行明确指定的参数
func applyRunFlags(cmd *cobra.Command, cfg *core.Config) {
	flags := cmd.Flags()

	if flags.Changed("workers") {
		cfg.Run.Workers = workers
	}
	if flags.Changed("launch-gap") {
		cfg.Run.LaunchGap = launchGap
	}
	if flags.Changed("reload-every") {
		cfg.Run.ReloadEvery = reloadEvery
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if flags.Changed("browser-bin") {
		cfg.Browser.Bin = browserBin
	}
	if flags.Changed("user-data-dir") {
		cfg.Browser.UserDataDir = userDataDir
	}
	if flags.Changed("report-dir") {
		cfg.Report.Dir = reportDir
	}
	if flags.Changed("no-progress") {
		cfg.Report.Progress = !noProgress
	}
}
