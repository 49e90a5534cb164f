package utils

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/RecoveryAshes/linkrelay/internal/models"
)

// MaxHeaderValueLength 试算表请求头部值最大长度 (8KB)
const MaxHeaderValueLength = 8192

// SupportedEncodings 来源回应可解压的编码,Accept-Encoding 只能从中挑选
var SupportedEncodings = []string{"gzip", "deflate", "br", "identity"}

// headerRule 不允许自定义的头部及原因
type headerRule struct {
	reason     string
	suggestion string
}

var (
	hopByHop = headerRule{
		reason:     "逐跳头部由HTTP客户端自动管理,不允许自定义",
		suggestion: "移除此头部",
	}
	partialBody = headerRule{
		reason:     "条件/范围请求会让gviz回应不完整或返回304,无法解析",
		suggestion: "移除此头部,每次载入都需要完整的回应",
	}

	// forbiddenHeaders 键为小写头部名称
	forbiddenHeaders = map[string]headerRule{
		"host":              hopByHop,
		"content-length":    hopByHop,
		"transfer-encoding": hopByHop,
		"connection":        hopByHop,
		"keep-alive":        hopByHop,
		"proxy-connection":  hopByHop,
		"upgrade":           hopByHop,
		"te":                hopByHop,
		"trailer":           hopByHop,
		"range":             partialBody,
		"if-range":          partialBody,
		"if-none-match":     partialBody,
		"if-modified-since": partialBody,
	}

	// tokenRegex RFC 7230 token (tchar)
	tokenRegex = regexp.MustCompile("^[A-Za-z0-9!#$%&'*+.^_`|~-]+$")

	// printableRegex 可打印ASCII + 空格/制表符
	printableRegex = regexp.MustCompile(`^[\x20-\x7E\t]*$`)
)

// HeaderValidator 检查要送往试算表来源的请求头部
type HeaderValidator struct {
	maxValueLength int
	encodings      map[string]bool
}

// NewHeaderValidator 创建验证器
func NewHeaderValidator() *HeaderValidator {
	encodings := make(map[string]bool, len(SupportedEncodings))
	for _, enc := range SupportedEncodings {
		encodings[enc] = true
	}
	return &HeaderValidator{
		maxValueLength: MaxHeaderValueLength,
		encodings:      encodings,
	}
}

func invalidHeader(field, name, reason, suggestion string) error {
	return &models.ValidationError{
		Field:      field,
		HeaderName: name,
		Reason:     reason,
		Suggestion: suggestion,
	}
}

// ValidateName 名称需为RFC 7230 token
func (hv *HeaderValidator) ValidateName(name string) error {
	if name == "" {
		return invalidHeader("name", name, "头部名称不能为空", "")
	}
	if !tokenRegex.MatchString(name) {
		return invalidHeader("name", name,
			"头部名称包含非法字符 (不可含空白、冒号或括号等分隔符)",
			"使用如 'User-Agent', 'X-Custom-Header' 的名称")
	}
	return nil
}

// ValidateValue 检查长度与字符,Accept-Encoding 额外检查编码是否能解压
func (hv *HeaderValidator) ValidateValue(name, value string) error {
	if len(value) > hv.maxValueLength {
		return invalidHeader("value", name,
			fmt.Sprintf("头部值过长: %d 字节 (最大 %d)", len(value), hv.maxValueLength),
			fmt.Sprintf("将值缩短至 %d 字节以内", hv.maxValueLength))
	}
	if !printableRegex.MatchString(value) {
		return invalidHeader("value", name,
			"头部值包含非法字符 (仅允许可打印ASCII字符)",
			"移除控制字符和非ASCII字符")
	}
	if strings.EqualFold(name, "Accept-Encoding") {
		return hv.validateEncodings(name, value)
	}
	return nil
}

// validateEncodings 逐项检查 "br, gzip;q=0.8" 形式的编码列表
func (hv *HeaderValidator) validateEncodings(name, value string) error {
	for _, item := range strings.Split(value, ",") {
		enc := strings.TrimSpace(item)
		if i := strings.IndexByte(enc, ';'); i >= 0 {
			enc = strings.TrimSpace(enc[:i])
		}
		enc = strings.ToLower(enc)
		if enc == "" || enc == "*" || hv.encodings[enc] {
			continue
		}
		return invalidHeader("value", name,
			fmt.Sprintf("不支持的编码 '%s',回应将无法解压", enc),
			"仅使用 "+strings.Join(SupportedEncodings, ", "))
	}
	return nil
}

// ValidateHeader 验证头部名称+值
func (hv *HeaderValidator) ValidateHeader(name, value string) error {
	if rule, ok := forbiddenHeaders[strings.ToLower(name)]; ok {
		return invalidHeader("name", name, rule.reason, fmt.Sprintf("%s: '%s'", rule.suggestion, name))
	}
	if err := hv.ValidateName(name); err != nil {
		return err
	}
	return hv.ValidateValue(name, value)
}

// Validate 按名称排序检查,返回第一个错误
func (hv *HeaderValidator) Validate(headers http.Header) error {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range headers[name] {
			if err := hv.ValidateHeader(name, value); err != nil {
				return err
			}
		}
	}
	return nil
}
