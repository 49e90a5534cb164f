package sources

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/RecoveryAshes/linkrelay/internal/models"
	"github.com/RecoveryAshes/linkrelay/internal/utils"
)

// ListSource 每行一个网址的文本列表
// path 为 "-" 时从标准输入读取,只读一次,之后的重新载入使用缓存内容
type ListSource struct {
	path   string
	inline string
	stdin  io.Reader

	stdinOnce sync.Once
	stdinData []byte
	stdinErr  error
}

// NewListSource 创建文本列表来源
func NewListSource(cfg models.SourceConfig) *ListSource {
	return &ListSource{
		path:   cfg.ListFile,
		inline: cfg.Links,
		stdin:  os.Stdin,
	}
}

// Name 来源名称
func (s *ListSource) Name() string {
	switch {
	case s.path == "-":
		return "list:stdin"
	case s.path != "":
		return "list:" + s.path
	default:
		return "list:inline"
	}
}

// Load 读取并解析列表
func (s *ListSource) Load(ctx context.Context) ([]models.LinkPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var r io.Reader
	switch {
	case s.path == "-":
		s.stdinOnce.Do(func() {
			s.stdinData, s.stdinErr = io.ReadAll(s.stdin)
		})
		if s.stdinErr != nil {
			return nil, &models.FetchError{URL: "stdin", Cause: s.stdinErr}
		}
		r = bytes.NewReader(s.stdinData)
	case s.path != "":
		file, err := os.Open(s.path)
		if err != nil {
			return nil, &models.FetchError{URL: s.path, Cause: err}
		}
		defer file.Close()
		r = file
	default:
		r = strings.NewReader(s.inline)
	}

	pairs, err := ParseLinkList(r)
	if err != nil {
		return nil, &models.ParseError{Source: s.Name(), Reason: "读取列表失败", Cause: err}
	}
	return pairs, nil
}

// ParseLinkList 解析文本列表
// 跳过空行与 # 注释行,只保留http/https网址,目的地留空
func ParseLinkList(r io.Reader) ([]models.LinkPair, error) {
	pairs := []models.LinkPair{}
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !models.IsHTTP(line) {
			utils.Debugf("跳过无效URL (行 %d): %s", lineNum, line)
			continue
		}

		pairs = append(pairs, models.LinkPair{Source: line})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取失败 (行 %d): %w", lineNum, err)
	}
	return pairs, nil
}
