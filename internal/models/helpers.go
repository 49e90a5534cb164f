package models

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/google/uuid"
)

var httpSchemeRe = regexp.MustCompile(`(?i)^https?://`)

// IsHTTP 判断网址是否以http://或https://开头(不区分大小写)
func IsHTTP(rawURL string) bool {
	return httpSchemeRe.MatchString(rawURL)
}

// ValidateURL 验证URL
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL必须包含主机名")
	}
	return nil
}

// NewRunID 生成唯一运行ID
func NewRunID() string {
	return uuid.New().String()
}
