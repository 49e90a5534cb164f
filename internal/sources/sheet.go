package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/RecoveryAshes/linkrelay/internal/models"
	"github.com/RecoveryAshes/linkrelay/internal/utils"
	"github.com/gocolly/colly/v2"
)

// DefaultFetchTimeout 试算表请求超时
const DefaultFetchTimeout = 30 * time.Second

// SheetSource 透过gviz端点读取Google试算表
type SheetSource struct {
	baseURL string
	sheetID string
	gid     string
	query   string
	timeout time.Duration

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 测试时替换传输层
	transport http.RoundTripper
}

// NewSheetSource 创建试算表来源
func NewSheetSource(cfg models.SourceConfig, headerProvider models.HeaderProvider) *SheetSource {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	gid := cfg.GID
	if gid == "" {
		gid = "0"
	}
	return &SheetSource{
		baseURL:        cfg.BaseURL,
		sheetID:        cfg.SheetID,
		gid:            gid,
		query:          cfg.Query,
		timeout:        timeout,
		headerProvider: headerProvider,
	}
}

// Name 来源名称
func (s *SheetSource) Name() string {
	return fmt.Sprintf("sheet:%s#gid=%s", s.sheetID, s.gid)
}

// URL gviz查询网址
func (s *SheetSource) URL() string {
	return BuildSheetURL(s.baseURL, s.sheetID, s.gid, s.query)
}

// Load 抓取并解析试算表
func (s *SheetSource) Load(ctx context.Context) ([]models.LinkPair, error) {
	body, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := ParseGvizRows(s.Name(), body)
	if err != nil {
		return nil, err
	}

	pairs := PairsFromRows(rows)
	utils.Debugf("试算表共 %d 列, 有效 %d 列", len(rows), len(pairs))
	return pairs, nil
}

// fetch 每次载入使用新的collector,避免colly的已访问记录
func (s *SheetSource) fetch(ctx context.Context) ([]byte, error) {
	target := s.URL()

	var headers http.Header
	if s.headerProvider != nil {
		h, err := s.headerProvider.GetHeaders()
		if err != nil {
			return nil, &models.FetchError{URL: target, Cause: fmt.Errorf("获取HTTP头部失败: %w", err)}
		}
		headers = h
	}

	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(s.timeout)
	if s.transport != nil {
		c.WithTransport(s.transport)
	}

	c.OnRequest(func(r *colly.Request) {
		for name, values := range headers {
			if len(values) > 0 {
				r.Headers.Set(name, values[0])
			}
		}
		utils.Debugf("📥 请求试算表: %s", r.URL.String())
	})

	var (
		body       []byte
		statusCode int
		fetchErr   error
	)

	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = r.Body

		contentEncoding := r.Headers.Get("Content-Encoding")
		if contentEncoding != "" {
			decompressed, err := decompressResponse(contentEncoding, r.Body)
			if err != nil {
				// 解压失败,仍然尝试使用原始body
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", target, contentEncoding, err)
				return
			}
			body = decompressed
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = err
	})

	if err := c.Visit(target); err != nil && fetchErr == nil {
		fetchErr = err
	}
	c.Wait()

	if fetchErr != nil {
		return nil, &models.FetchError{URL: target, StatusCode: statusCode, Cause: fetchErr}
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, &models.FetchError{URL: target, StatusCode: statusCode, Cause: fmt.Errorf("非预期的状态码")}
	}
	return body, nil
}
