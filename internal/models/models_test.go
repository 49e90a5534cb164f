package models

import (
	"errors"
	"testing"
	"time"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"有效的HTTP URL", "http://example.com", false},
		{"有效的HTTPS URL", "https://example.com", false},
		{"带路径的URL", "https://example.com/path/to/resource", false},
		{"无效的协议", "ftp://example.com", true},
		{"无效的URL", "not a url", true},
		{"空URL", "", true},
		{"无协议", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsHTTP(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://a.example", true},
		{"http://a.example/path", true},
		{"HTTPS://A.EXAMPLE", true},
		{"ftp://a.example", false},
		{"a.example", false},
		{"", false},
		{"  https://a.example", false},
	}

	for _, tt := range tests {
		if got := IsHTTP(tt.url); got != tt.want {
			t.Errorf("IsHTTP(%q) = %v, 期望 %v", tt.url, got, tt.want)
		}
	}
}

func TestLinkPair_DestinationOr(t *testing.T) {
	p := LinkPair{Source: "https://a.example"}
	if got := p.DestinationOr("https://fallback.example"); got != "https://fallback.example" {
		t.Errorf("空目的地应使用默认值, 得到: %s", got)
	}

	p.Destination = "https://b.example"
	if got := p.DestinationOr("https://fallback.example"); got != "https://b.example" {
		t.Errorf("应使用指定目的地, 得到: %s", got)
	}
}

func TestLinkPool_Snapshot(t *testing.T) {
	pairs := []LinkPair{{Source: "https://a.example"}, {Source: "https://b.example"}}
	pool := NewLinkPool(pairs, 3)

	pairs[0].Source = "https://changed.example"
	if pool.At(0).Source != "https://a.example" {
		t.Error("链接池应复制输入,不受外部修改影响")
	}
	if pool.Len() != 2 {
		t.Errorf("长度错误: %d", pool.Len())
	}
	if pool.Generation != 3 {
		t.Errorf("版本错误: %d", pool.Generation)
	}

	var nilPool *LinkPool
	if nilPool.Len() != 0 {
		t.Error("nil链接池长度应为0")
	}
}

func TestWorkerState_Observe(t *testing.T) {
	w := NewWorkerState(1)
	if w.LastPickedIndex != -1 {
		t.Fatalf("初始索引应为-1, 得到 %d", w.LastPickedIndex)
	}

	w.Observe(1)
	w.LastPickedIndex = 4
	w.Observe(1)
	if w.LastPickedIndex != 4 {
		t.Error("相同版本不应重置索引")
	}

	w.Observe(2)
	if w.LastPickedIndex != -1 {
		t.Error("版本变化应重置索引")
	}
}

func TestRunConfig_Validate(t *testing.T) {
	valid := RunConfig{
		Workers:         2,
		LaunchGap:       500,
		ReloadEvery:     20,
		SourceWait:      Range{Min: 40 * time.Second, Max: 60 * time.Second},
		DestinationWait: Range{Min: 60 * time.Second, Max: 100 * time.Second},
		Cooldown:        Range{Min: 15 * time.Second, Max: 25 * time.Second},
		SettleDelay:     600 * time.Millisecond,
	}

	tests := []struct {
		name    string
		mutate  func(c *RunConfig)
		wantErr bool
	}{
		{"有效配置", func(c *RunConfig) {}, false},
		{"worker过少", func(c *RunConfig) { c.Workers = 0 }, true},
		{"worker过多", func(c *RunConfig) { c.Workers = 51 }, true},
		{"启动间隔为负", func(c *RunConfig) { c.LaunchGap = -1 }, true},
		{"重新载入间隔为0", func(c *RunConfig) { c.ReloadEvery = 0 }, true},
		{"范围颠倒", func(c *RunConfig) { c.Cooldown = Range{Min: 2 * time.Second, Max: time.Second} }, true},
		{"范围相等", func(c *RunConfig) { c.Cooldown = Range{Min: time.Second, Max: time.Second} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunConfig_Normalize(t *testing.T) {
	c := RunConfig{Workers: 0, LaunchGap: -5, ReloadEvery: 0}
	c.Normalize()
	if c.Workers != 1 || c.LaunchGap != 0 || c.ReloadEvery != 1 {
		t.Errorf("下限套用错误: %+v", c)
	}
	if c.LaunchGapDuration() != 0 {
		t.Errorf("启动间隔应为0, 得到 %s", c.LaunchGapDuration())
	}
}

func TestSourceConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  SourceConfig
		wantErr bool
	}{
		{"试算表", SourceConfig{Kind: SourceSheet, SheetID: "abc"}, false},
		{"试算表缺ID", SourceConfig{Kind: SourceSheet}, true},
		{"文本列表文件", SourceConfig{Kind: SourceList, ListFile: "links.txt"}, false},
		{"文本列表内联", SourceConfig{Kind: SourceList, Links: "https://a.example"}, false},
		{"文本列表为空", SourceConfig{Kind: SourceList}, true},
		{"无效类型", SourceConfig{Kind: "ftp"}, true},
		{"默认目的地无效", SourceConfig{Kind: SourceSheet, SheetID: "abc", DefaultDestination: "nope"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadErrors_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")

	fetchErr := &FetchError{URL: "https://docs.example", Cause: cause}
	if !errors.Is(fetchErr, cause) {
		t.Error("FetchError应支持errors.Is")
	}

	parseErr := &ParseError{Source: "sheet", Reason: "缺少外层包装"}
	var target *ParseError
	if !errors.As(error(parseErr), &target) {
		t.Error("ParseError应支持errors.As")
	}
	if target.Reason != "缺少外层包装" {
		t.Errorf("原因错误: %s", target.Reason)
	}
}

func TestRunReport_JSON(t *testing.T) {
	report := &RunReport{
		RunID:     NewRunID(),
		Source:    "list",
		StartTime: time.Now().Add(-time.Minute),
		EndTime:   time.Now(),
		Duration:  60,
		Stats:     RunStats{Completed: 3, Aborted: 1, PoolSize: 5},
	}

	data, err := report.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var decoded RunReport
	if err := decoded.FromJSON(data); err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if decoded.RunID != report.RunID || decoded.Stats.Completed != 3 {
		t.Errorf("反序列化结果不一致: %+v", decoded)
	}
}

func TestCliHeaders_Parse(t *testing.T) {
	t.Run("空数组", func(t *testing.T) {
		headers, err := CliHeaders(nil).Parse()
		if err != nil || len(headers) != 0 {
			t.Errorf("nil数组应该无错误, 得到: %v %v", headers, err)
		}
	})

	t.Run("前后空格", func(t *testing.T) {
		headers, err := CliHeaders([]string{"  Cookie  :  a=1; b=2  "}).Parse()
		if err != nil {
			t.Fatalf("应该自动trim空格, 得到错误: %v", err)
		}
		if got := headers.Get("Cookie"); got != "a=1; b=2" {
			t.Errorf("值错误: '%s'", got)
		}
	})

	t.Run("值中包含冒号", func(t *testing.T) {
		headers, err := CliHeaders([]string{"Referer: https://example.com:8080/path"}).Parse()
		if err != nil {
			t.Fatalf("应该允许值中包含冒号, 得到错误: %v", err)
		}
		if got := headers.Get("Referer"); got != "https://example.com:8080/path" {
			t.Errorf("值中的冒号应该保留, 得到: '%s'", got)
		}
	})

	t.Run("缺少冒号", func(t *testing.T) {
		if _, err := CliHeaders([]string{"NoColon"}).Parse(); err == nil {
			t.Error("缺少冒号应返回错误")
		}
	})

	t.Run("空名称", func(t *testing.T) {
		if _, err := CliHeaders([]string{": value"}).Parse(); err == nil {
			t.Error("空名称应返回错误")
		}
	})
}
