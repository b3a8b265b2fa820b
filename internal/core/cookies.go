package core

import (
	"github.com/RecoveryAshes/DocPack/internal/models"
	"github.com/RecoveryAshes/DocPack/internal/utils"
)

// CookieManager 管理注入页面的登录态Cookie
// 合并配置文件和命令行两个来源,命令行优先覆盖同名Cookie
type CookieManager struct {
	validator *utils.CookieValidator
	redactor  *utils.CookieRedactor

	cookies []models.Cookie
}

// NewCookieManager 创建Cookie管理器
// configCookies来自配置文件,cliCookies为命令行的name=value字符串
func NewCookieManager(configCookies []models.Cookie, cliCookies []string) (*CookieManager, error) {
	cm := &CookieManager{
		validator: utils.NewCookieValidator(),
		redactor:  utils.NewCookieRedactor(),
	}

	parsed, err := models.CliCookies(cliCookies).Parse()
	if err != nil {
		return nil, err
	}

	cm.cookies = mergeCookies(configCookies, parsed)
	return cm, nil
}

// mergeCookies 合并两组Cookie,overrides中的同名Cookie覆盖base
func mergeCookies(base, overrides []models.Cookie) []models.Cookie {
	merged := make([]models.Cookie, 0, len(base)+len(overrides))
	index := make(map[string]int, len(base))

	for _, c := range base {
		index[c.Name] = len(merged)
		merged = append(merged, c)
	}
	for _, c := range overrides {
		if i, exists := index[c.Name]; exists {
			merged[i] = c
			continue
		}
		index[c.Name] = len(merged)
		merged = append(merged, c)
	}
	return merged
}

// Validate 验证全部Cookie
// 任何一个非法都返回错误,爬取不应在Cookie非法时开始
func (cm *CookieManager) Validate() error {
	if err := cm.validator.Validate(cm.cookies); err != nil {
		return err
	}
	if len(cm.cookies) > 0 {
		utils.Debugf("Cookie验证通过: %s", cm.redactor.RedactToString(cm.cookies))
	}
	return nil
}

// Cookies 返回验证后的Cookie列表
func (cm *CookieManager) Cookies() []models.Cookie {
	return cm.cookies
}

// SafeString 返回脱敏后的Cookie描述,用于日志和配置验证输出
func (cm *CookieManager) SafeString() string {
	return cm.redactor.RedactToString(cm.cookies)
}
