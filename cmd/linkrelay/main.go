package main

import (
	"fmt"
	"os"

	"github.com/RecoveryAshes/linkrelay/internal/core"
	"github.com/RecoveryAshes/linkrelay/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string
	noColor    bool

	// 试算表请求的自定义HTTP头部
	headers []string

	// PersistentPreRunE 载入的配置
	appConfig *core.Config
)

var rootCmd = &cobra.Command{
	Use:   "linkrelay",
	Short: "弹出视窗链接轮播工具",
	Long: `linkrelay - 以浏览器弹出视窗轮播链接

从Google试算表(E=来源,F=目的地)或文本列表载入链接,
多个worker并行: 开启视窗 → 来源页 → 目的地页 → 关闭 → 冷却,直到停止。

示例:
  # 生成默认配置
  linkrelay init

  # 使用试算表
  linkrelay run --sheet-id 1AbC... --gid 0 -n 3 --launch-gap 2000

  # 使用文本列表(每行一个网址)
  linkrelay run --links-file links.txt --default-dest https://www.google.com

  # 检查来源内容
  linkrelay check --sheet-id 1AbC...

  # 附加HTTP头部(私有试算表)
  linkrelay run --sheet-id 1AbC... -H "Cookie: SID=..."

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		logConfig := config.LogConfig()

		// 命令行参数覆盖配置文件
		if verbose {
			logConfig.Level = "debug"
		}
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if noColor {
			logConfig.NoColor = true
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		appConfig = config
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("linkrelay %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "关闭控制台颜色")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "试算表请求的HTTP头部,格式: 'Name: Value',可多次指定")

	rootCmd.AddCommand(runCmd, checkCmd, initCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
