package main

import (
	"context"
	"fmt"

	"github.com/RecoveryAshes/linkrelay/internal/config"
	"github.com/RecoveryAshes/linkrelay/internal/core"
	"github.com/RecoveryAshes/linkrelay/internal/sources"
	"github.com/RecoveryAshes/linkrelay/internal/utils"
	"github.com/spf13/cobra"
)

var showHeaders bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "载入来源一次并列出所有列",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig
		applySourceFlags(cmd, cfg)

		if err := ValidateFlags(cfg); err != nil {
			return err
		}

		headerManager, err := core.NewHeaderManager(cfg.Source.HeadersFile, headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		if showHeaders {
			if err := headerManager.LoadConfig(); err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}
			if err := headerManager.Validate(); err != nil {
				return fmt.Errorf("配置验证失败: %w", err)
			}
			safeHeaders := headerManager.GetSafeHeaders()
			utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
			for name, value := range safeHeaders {
				utils.Infof("  %s: %s", name, value)
			}
		}

		source, err := sources.New(cfg.Source, headerManager)
		if err != nil {
			return err
		}

		utils.Infof("🔍 载入来源: %s", source.Name())
		pairs, err := source.Load(context.Background())
		if err != nil {
			return err
		}

		for i, pair := range pairs {
			dest := pair.DestinationOr(cfg.Source.DefaultDestination)
			if pair.Destination == "" {
				dest += " (默认)"
			}
			fmt.Printf("第 %d 列: %s → %s\n", i+1, pair.Source, dest)
		}
		fmt.Printf("总列数: %d\n", len(pairs))

		if len(pairs) == 0 {
			utils.Warn("⚠️ 没有可用列 (来源需为 http/https)")
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "生成默认配置文件 (configs/config.yaml, configs/headers.yaml)",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFile
		written, err := config.WriteConfigTemplate(path)
		if err != nil {
			return err
		}
		if path == "" {
			path = config.DefaultConfigFile
		}
		if written {
			utils.Infof("✅ 已生成配置文件: %s", path)
		} else {
			utils.Infof("配置文件已存在: %s", path)
		}

		loader := config.NewHeaderConfigLoader(appConfig.Source.HeadersFile)
		if err := loader.EnsureConfigExists(); err != nil {
			return err
		}
		utils.Infof("✅ 头部配置文件: %s", loader.Path())
		return nil
	},
}

func init() {
	addSourceFlags(checkCmd)
	checkCmd.Flags().BoolVar(&showHeaders, "show-headers", false, "显示合并后的HTTP头部(脱敏)")
}
