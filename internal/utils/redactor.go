package utils

import (
	"strings"

	"github.com/RecoveryAshes/DocPack/internal/models"
)

var (
	// SensitiveCookieKeywords 敏感Cookie名称关键字 (用于脱敏)
	SensitiveCookieKeywords = []string{
		"session",
		"token",
		"auth",
		"key",
		"secret",
		"password",
		"credential",
		"sid",
	}
)

// CookieRedactor Cookie脱敏器
// 登录态Cookie的值不允许出现在日志中
type CookieRedactor struct {
	sensitiveKeywords []string
}

// NewCookieRedactor 创建Cookie脱敏器
func NewCookieRedactor() *CookieRedactor {
	return &CookieRedactor{
		sensitiveKeywords: SensitiveCookieKeywords,
	}
}

// IsSensitiveCookie 根据Cookie名称关键字判断是否敏感
func (cr *CookieRedactor) IsSensitiveCookie(name string) bool {
	nameLower := strings.ToLower(name)
	for _, keyword := range cr.sensitiveKeywords {
		if strings.Contains(nameLower, keyword) {
			return true
		}
	}
	return false
}

// RedactCookieValue 脱敏单个Cookie值
func (cr *CookieRedactor) RedactCookieValue(name, value string) string {
	if !cr.IsSensitiveCookie(name) {
		return value
	}

	// 足够长时显示前4位+后4位,否则完全隐藏
	if len(value) > 8 {
		return value[:4] + "***" + value[len(value)-4:]
	}
	return "***"
}

// RedactToString 脱敏Cookie列表并返回格式化字符串 (用于日志输出)
// 格式: "name1=value1, name2=value2, ..."
func (cr *CookieRedactor) RedactToString(cookies []models.Cookie) string {
	var parts []string
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+cr.RedactCookieValue(c.Name, c.Value))
	}
	return strings.Join(parts, ", ")
}
