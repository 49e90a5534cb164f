package sources

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/RecoveryAshes/linkrelay/internal/models"
)

const (
	// DefaultSheetBaseURL 试算表服务地址
	DefaultSheetBaseURL = "https://docs.google.com/spreadsheets/d"

	// DefaultSheetQuery 只取E/F两栏并忽略空的E
	DefaultSheetQuery = "select E,F where E is not null"
)

// gviz 回应包在 google.visualization.Query.setResponse(...) 里
var gvizEnvelopeRe = regexp.MustCompile(`google\.visualization\.Query\.setResponse\(([\s\S]*)\);?`)

type gvizResponse struct {
	Status string      `json:"status"`
	Errors []gvizError `json:"errors"`
	Table  *gvizTable  `json:"table"`
}

type gvizError struct {
	Reason          string `json:"reason"`
	Message         string `json:"message"`
	DetailedMessage string `json:"detailed_message"`
}

type gvizTable struct {
	Rows []gvizRow `json:"rows"`
}

type gvizRow struct {
	C []*gvizCell `json:"c"`
}

type gvizCell struct {
	V interface{} `json:"v"`
}

// BuildSheetURL 组合gviz查询网址
func BuildSheetURL(baseURL, sheetID, gid, query string) string {
	if baseURL == "" {
		baseURL = DefaultSheetBaseURL
	}
	if query == "" {
		query = DefaultSheetQuery
	}
	return fmt.Sprintf("%s/%s/gviz/tq?tq=%s&gid=%s",
		strings.TrimRight(baseURL, "/"),
		url.PathEscape(sheetID),
		url.QueryEscape(query),
		url.QueryEscape(gid),
	)
}

// ParseGvizRows 从gviz回应中取出 table.rows[].c[].v
// 缺少外层包装、JSON无效或 status=error 都返回 *models.ParseError
func ParseGvizRows(source string, body []byte) ([][]string, error) {
	m := gvizEnvelopeRe.FindSubmatch(body)
	if m == nil {
		return nil, &models.ParseError{Source: source, Reason: "无法解析 gviz 回应 (缺少 setResponse 包装)"}
	}

	var resp gvizResponse
	if err := json.Unmarshal(m[1], &resp); err != nil {
		return nil, &models.ParseError{Source: source, Reason: "gviz JSON 无效", Cause: err}
	}

	if resp.Status == "error" {
		reason := "gviz 回报错误"
		if len(resp.Errors) > 0 {
			e := resp.Errors[0]
			detail := e.DetailedMessage
			if detail == "" {
				detail = e.Message
			}
			reason = fmt.Sprintf("gviz 回报错误: %s %s", e.Reason, detail)
		}
		return nil, &models.ParseError{Source: source, Reason: strings.TrimSpace(reason)}
	}

	if resp.Table == nil {
		return [][]string{}, nil
	}

	rows := make([][]string, 0, len(resp.Table.Rows))
	for _, r := range resp.Table.Rows {
		cells := make([]string, len(r.C))
		for i, c := range r.C {
			if c != nil {
				cells[i] = cellString(c.V)
			}
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// PairsFromRows 第1栏为来源,第2栏为目的地
// 来源不是http(s)的列丢弃,目的地不是http(s)时留空以使用默认目的地
func PairsFromRows(rows [][]string) []models.LinkPair {
	pairs := make([]models.LinkPair, 0, len(rows))
	for _, row := range rows {
		var src, dest string
		if len(row) > 0 {
			src = strings.TrimSpace(row[0])
		}
		if len(row) > 1 {
			dest = strings.TrimSpace(row[1])
		}
		if !models.IsHTTP(src) {
			continue
		}
		if !models.IsHTTP(dest) {
			dest = ""
		}
		pairs = append(pairs, models.LinkPair{Source: src, Destination: dest})
	}
	return pairs
}
