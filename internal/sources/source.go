// Package sources 提供链接池的来源: Google试算表(gviz)与文本列表
package sources

import (
	"context"
	"fmt"

	"github.com/RecoveryAshes/linkrelay/internal/models"
)

// Source 链接来源
type Source interface {
	// Name 来源名称,用于日志与报告
	Name() string
	// Load 载入链接,只保留来源为http/https的列
	Load(ctx context.Context) ([]models.LinkPair, error)
}

// New 根据配置创建来源
func New(cfg models.SourceConfig, headers models.HeaderProvider) (Source, error) {
	switch cfg.Kind {
	case models.SourceSheet:
		if cfg.SheetID == "" {
			return nil, fmt.Errorf("试算表来源需要 sheet_id")
		}
		return NewSheetSource(cfg, headers), nil
	case models.SourceList:
		return NewListSource(cfg), nil
	default:
		return nil, fmt.Errorf("无效的来源类型: %s", cfg.Kind)
	}
}
