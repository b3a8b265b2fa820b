package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/RecoveryAshes/DocPack/internal/models"
)

func TestCookieValidatorValidateName(t *testing.T) {
	cv := NewCookieValidator()

	tests := []struct {
		name     string
		cookie   string
		wantErr  bool
	}{
		{"合法名称", "session_id", false},
		{"带连字符", "auth-token", false},
		{"带点号", "my.cookie", false},
		{"空名称", "", true},
		{"含空格", "session id", true},
		{"含分号", "session;id", true},
		{"含等号", "session=id", true},
		{"含中文", "会话", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cv.ValidateName(tt.cookie)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.cookie, err, tt.wantErr)
			}
		})
	}
}

func TestCookieValidatorValidateValue(t *testing.T) {
	cv := NewCookieValidator()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"普通值", "abc123", false},
		{"空值", "", false},
		{"带引号的值", `"abc123"`, false},
		{"JWT", "eyJhbGciOiJIUzI1NiJ9.payload.signature", false},
		{"含空格", "abc 123", true},
		{"含分号", "abc;123", true},
		{"含逗号", "abc,123", true},
		{"含反斜杠", `abc\123`, true},
		{"引号不匹配", `"abc123`, true},
		{"超长值", strings.Repeat("a", MaxCookieValueLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cv.ValidateValue("test", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateValue(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestCookieValidatorValidate(t *testing.T) {
	cv := NewCookieValidator()

	cookies := []models.Cookie{
		{Name: "session_id", Value: "abc123"},
		{Name: "bad cookie", Value: "x"},
	}

	err := cv.Validate(cookies)
	if err == nil {
		t.Fatal("期望返回验证错误")
	}

	var validationErr *models.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("期望ValidationError类型,得到 %T", err)
	}
	if validationErr.CookieName != "bad cookie" {
		t.Errorf("错误应指向'bad cookie',得到 %q", validationErr.CookieName)
	}
}

func TestCookieRedactor(t *testing.T) {
	cr := NewCookieRedactor()

	tests := []struct {
		name   string
		cookie string
		value  string
		want   string
	}{
		{"敏感长值部分显示", "session_id", "abcdefghijklmn", "abcd***klmn"},
		{"敏感短值完全隐藏", "token", "short", "***"},
		{"非敏感值原样返回", "locale", "zh-CN", "zh-CN"},
		{"auth关键字", "x-auth-cookie", "1234567890ab", "1234***90ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cr.RedactCookieValue(tt.cookie, tt.value)
			if got != tt.want {
				t.Errorf("RedactCookieValue(%q, %q) = %q, 期望 %q", tt.cookie, tt.value, got, tt.want)
			}
		})
	}
}

func TestCookieRedactorRedactToString(t *testing.T) {
	cr := NewCookieRedactor()

	cookies := []models.Cookie{
		{Name: "session", Value: "verysecretvalue"},
		{Name: "locale", Value: "en"},
	}

	got := cr.RedactToString(cookies)
	if strings.Contains(got, "verysecretvalue") {
		t.Errorf("脱敏输出不应包含原始值: %s", got)
	}
	if !strings.Contains(got, "locale=en") {
		t.Errorf("非敏感Cookie应原样输出: %s", got)
	}
}
