package models

import (
	"strings"
	"time"
)

// LinkPair 一组来源/目的地网址
// Destination 为空时使用配置的默认目的地
type LinkPair struct {
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
}

// DestinationOr 返回目的地网址,为空时返回fallback
func (p LinkPair) DestinationOr(fallback string) string {
	if strings.TrimSpace(p.Destination) == "" {
		return fallback
	}
	return p.Destination
}

// LinkPool 链接池快照
// 创建后不可修改,重新载入时整体替换
type LinkPool struct {
	Pairs      []LinkPair
	Generation uint64
	LoadedAt   time.Time
}

// NewLinkPool 创建链接池快照,会复制pairs
func NewLinkPool(pairs []LinkPair, generation uint64) *LinkPool {
	cp := make([]LinkPair, len(pairs))
	copy(cp, pairs)
	return &LinkPool{
		Pairs:      cp,
		Generation: generation,
		LoadedAt:   time.Now(),
	}
}

// Len 返回链接数量,nil安全
func (p *LinkPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Pairs)
}

// At 返回第i个链接
func (p *LinkPool) At(i int) LinkPair {
	return p.Pairs[i]
}
