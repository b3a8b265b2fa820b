package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/DocPack/internal/models"
)

const (
	// MaxCookieValueLength Cookie值最大长度 (4KB)
	MaxCookieValueLength = 4096
)

// CookieValidator 验证Cookie是否符合RFC 6265规范
type CookieValidator struct {
	// nameRegex 验证Cookie名称 (HTTP token字符)
	nameRegex *regexp.Regexp

	// valueRegex 验证Cookie值 (cookie-octet,可带双引号)
	valueRegex *regexp.Regexp

	// maxValueLength Cookie值最大长度 (字节)
	maxValueLength int
}

// NewCookieValidator 创建验证器
func NewCookieValidator() *CookieValidator {
	return &CookieValidator{
		// Cookie名称 (RFC 6265 token): 不含分隔符和控制字符
		nameRegex: regexp.MustCompile(`^[!#$%&'*+\-.^_` + "`" + `|~0-9A-Za-z]+$`),

		// Cookie值 (RFC 6265 cookie-octet): 排除控制字符、空格、双引号、逗号、分号、反斜杠
		valueRegex: regexp.MustCompile(`^"?[\x21\x23-\x2B\x2D-\x3A\x3C-\x5B\x5D-\x7E]*"?$`),

		maxValueLength: MaxCookieValueLength,
	}
}

// ValidateName 验证Cookie名称
// 返回: 如果名称非法,返回ValidationError
func (cv *CookieValidator) ValidateName(name string) error {
	if name == "" {
		return &models.ValidationError{
			Field:      "name",
			CookieName: name,
			Reason:     "Cookie名称不能为空",
		}
	}

	if !cv.nameRegex.MatchString(name) {
		return &models.ValidationError{
			Field:      "name",
			CookieName: name,
			Reason:     "Cookie名称包含非法字符 (不允许分隔符、空格和控制字符)",
			Suggestion: "使用字母、数字和token符号 (如 'session_id', 'auth-token')",
		}
	}

	return nil
}

// ValidateValue 验证Cookie值
// 返回: 如果值非法,返回ValidationError
func (cv *CookieValidator) ValidateValue(name, value string) error {
	if len(value) > cv.maxValueLength {
		return &models.ValidationError{
			Field:      "value",
			CookieName: name,
			Reason:     fmt.Sprintf("Cookie值过长: %d 字节 (最大 %d)", len(value), cv.maxValueLength),
			Suggestion: fmt.Sprintf("将值缩短至 %d 字节以内", cv.maxValueLength),
		}
	}

	// 引号只允许成对出现在首尾
	trimmed := value
	if strings.HasPrefix(trimmed, `"`) != strings.HasSuffix(trimmed, `"`) {
		return &models.ValidationError{
			Field:      "value",
			CookieName: name,
			Reason:     "Cookie值引号不匹配",
			Suggestion: "移除引号或使用成对的双引号",
		}
	}

	if !cv.valueRegex.MatchString(value) {
		return &models.ValidationError{
			Field:      "value",
			CookieName: name,
			Reason:     "Cookie值包含非法字符 (不允许空格、逗号、分号、反斜杠和控制字符)",
			Suggestion: "对特殊字符进行URL编码后再配置",
		}
	}

	return nil
}

// ValidateCookie 验证Cookie名称+值
func (cv *CookieValidator) ValidateCookie(name, value string) error {
	if err := cv.ValidateName(name); err != nil {
		return err
	}
	if err := cv.ValidateValue(name, value); err != nil {
		return err
	}
	return nil
}

// Validate 验证Cookie列表中的所有Cookie
// 返回: 第一个非法Cookie的ValidationError
func (cv *CookieValidator) Validate(cookies []models.Cookie) error {
	for _, c := range cookies {
		if err := cv.ValidateCookie(c.Name, c.Value); err != nil {
			return err
		}
	}
	return nil
}
