package main

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/go-rod/rod/lib/launcher"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  linkrelay 环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	fmt.Printf("✅ Go版本: %s\n", runtime.Version())
	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 检查浏览器
	if bin, ok := launcher.LookPath(); ok {
		fmt.Printf("✅ 找到浏览器: %s\n", bin)
	} else {
		fmt.Println("⚠️  未找到本机Chrome/Chromium,首次运行时rod会自动下载")
	}

	// 检查Google Sheets可达性
	fmt.Println()
	fmt.Println("检查网络...")
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Head("https://docs.google.com/")
	if err != nil {
		fmt.Printf("⚠️  无法连接docs.google.com: %v (sheet来源将不可用)\n", err)
	} else {
		resp.Body.Close()
		fmt.Printf("✅ docs.google.com 可达 (HTTP %d)\n", resp.StatusCode)
	}

	// 检查项目结构
	fmt.Println()
	fmt.Println("检查项目结构...")
	requiredDirs := []string{
		"cmd/linkrelay",
		"internal/core",
		"internal/browser",
		"internal/sources",
		"internal/utils",
		"internal/models",
	}

	for _, dir := range requiredDirs {
		if _, err := os.Stat(dir); err == nil {
			fmt.Printf("✅ %s/\n", dir)
		} else {
			fmt.Printf("❌ %s/ 不存在\n", dir)
			allOK = false
		}
	}

	fmt.Println()
	fmt.Println("==============================================")
	if allOK {
		fmt.Println("✅ 环境验证通过!")
		fmt.Println()
		fmt.Println("下一步:")
		fmt.Println("  1. 运行 'go build ./cmd/linkrelay' 构建项目")
		fmt.Println("  2. 运行 './linkrelay init' 生成配置文件")
		fmt.Println("  3. 运行 './linkrelay --help' 查看帮助")
		os.Exit(0)
	}
	fmt.Println("❌ 环境验证失败,请解决上述问题。")
	os.Exit(1)
}
