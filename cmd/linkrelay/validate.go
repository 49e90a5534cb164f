package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/RecoveryAshes/linkrelay/internal/core"
)

// ValidateFlags 验证合并命令行参数后的配置
// 默认目的地会被规范化(缺少协议时补https)
func ValidateFlags(cfg *core.Config) error {
	if cfg.Source.DefaultDestination != "" {
		normalized, err := NormalizeURL(cfg.Source.DefaultDestination)
		if err != nil {
			return fmt.Errorf("无效的默认目的地: %w", err)
		}
		cfg.Source.DefaultDestination = normalized
	}

	if err := cfg.Source.Validate(); err != nil {
		return err
	}

	if err := ValidateListFile(cfg.Source.ListFile); err != nil {
		return err
	}

	if err := cfg.Run.Validate(); err != nil {
		return err
	}

	if cfg.Browser.Window.Width < 0 || cfg.Browser.Window.Height < 0 {
		return fmt.Errorf("视窗大小不能为负数")
	}
	if cfg.Browser.NavigateTimeout < 0 {
		return fmt.Errorf("导航超时不能为负数")
	}

	return nil
}

// ValidateListFile 验证列表文件存在,"-" 表示标准输入
func ValidateListFile(path string) error {
	if path == "" || path == "-" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("无法读取列表文件 [%s]: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("列表文件是目录: %s", path)
	}
	return nil
}

// NormalizeURL 规范化URL
func NormalizeURL(urlStr string) (string, error) {
	urlStr = strings.TrimSpace(urlStr)
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	// 如果没有协议,默认使用https
	if parsed.Scheme == "" {
		urlStr = "https://" + urlStr
		parsed, err = url.Parse(urlStr)
		if err != nil {
			return "", err
		}
	}

	return parsed.String(), nil
}
