package models

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// Cookie 注入到页面的Cookie
type Cookie struct {
	Name  string `mapstructure:"name" json:"name"`
	Value string `mapstructure:"value" json:"value"`
}

// CliCookies 命令行传递的Cookie字符串列表 (格式: name=value)
type CliCookies []string

// Parse 解析命令行Cookie为Cookie列表
// 值中允许出现等号,只在第一个等号处分割
func (cc CliCookies) Parse() ([]Cookie, error) {
	cookies := make([]Cookie, 0, len(cc))
	for _, raw := range cc {
		idx := strings.Index(raw, "=")
		if idx <= 0 {
			return nil, fmt.Errorf("Cookie格式无效 [%s]: 期望 name=value", raw)
		}
		cookies = append(cookies, Cookie{
			Name:  strings.TrimSpace(raw[:idx]),
			Value: strings.TrimSpace(raw[idx+1:]),
		})
	}
	return cookies, nil
}

// ValidResourceTypes 可屏蔽的资源类型(对应CDP的ResourceType)
var ValidResourceTypes = []string{
	"document", "stylesheet", "image", "media", "font", "script",
	"texttrack", "xhr", "fetch", "eventsource", "websocket",
	"manifest", "other",
}

// DefaultAPIMarker 内部API响应URL的缺省识别子串
const DefaultAPIMarker = "/api/"

// CrawlConfig 爬取配置
type CrawlConfig struct {
	URL              string   `mapstructure:"url" json:"url"`                             // 种子URL(必填,sitemap URL自动展开)
	Match            []string `mapstructure:"match" json:"match"`                         // 链接匹配glob模式(必填)
	Exclude          []string `mapstructure:"exclude" json:"exclude"`                     // 链接排除glob模式
	MaxPages         int      `mapstructure:"max_pages" json:"max_pages"`                 // 最大爬取页面数(必填)
	WaitTime         int      `mapstructure:"wait_time" json:"wait_time"`                 // 页面加载后等待时间(秒)
	Headless         bool     `mapstructure:"headless" json:"headless"`                   // 无头模式 (默认:true)
	MaxTabs          int      `mapstructure:"max_tabs" json:"max_tabs"`                   // 标签页数上限 (默认:4)
	APIMarker        string   `mapstructure:"api_marker" json:"api_marker"`               // API响应URL识别子串
	Cookies          []Cookie `mapstructure:"cookies" json:"cookies"`                     // 注入的Cookie列表
	ExcludeResources []string `mapstructure:"exclude_resources" json:"exclude_resources"` // 屏蔽的资源类型
}

// Validate 验证爬取配置
// 在爬取开始前调用一次,失败则中止整个流程
func (c *CrawlConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("种子URL不能为空")
	}
	if err := ValidateURL(c.URL); err != nil {
		return fmt.Errorf("种子URL无效: %w", err)
	}
	if len(c.Match) == 0 {
		return fmt.Errorf("链接匹配模式(match)不能为空")
	}
	for _, pattern := range c.Match {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("链接匹配模式无效 [%s]: %w", pattern, err)
		}
	}
	for _, pattern := range c.Exclude {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("链接排除模式无效 [%s]: %w", pattern, err)
		}
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("最大页面数必须大于0,当前值: %d", c.MaxPages)
	}
	if c.WaitTime < 0 || c.WaitTime > 60 {
		return fmt.Errorf("等待时间必须在0-60秒之间")
	}
	if c.MaxTabs < 1 || c.MaxTabs > 20 {
		return fmt.Errorf("标签页数必须在1-20之间")
	}
	for _, rt := range c.ExcludeResources {
		if !isValidResourceType(rt) {
			return fmt.Errorf("无效的资源类型: %s (有效值: %s)", rt, strings.Join(ValidResourceTypes, ", "))
		}
	}
	return nil
}

// Marker 返回API识别子串,未配置时使用缺省值
func (c *CrawlConfig) Marker() string {
	if c.APIMarker == "" {
		return DefaultAPIMarker
	}
	return c.APIMarker
}

func isValidResourceType(rt string) bool {
	lower := strings.ToLower(rt)
	for _, valid := range ValidResourceTypes {
		if lower == valid {
			return true
		}
	}
	return false
}

// OutputConfig 输出配置
// MaxFileSizeMB/MaxTokens为0表示不限制
type OutputConfig struct {
	BaseDir       string `mapstructure:"base_dir" json:"base_dir"`               // 输出根目录 (默认:output)
	FileName      string `mapstructure:"file_name" json:"file_name"`             // 输出文件名词干(必填,如 data.json)
	MaxFileSizeMB int    `mapstructure:"max_file_size_mb" json:"max_file_size_mb"` // 单文件最大大小(MB,0=不限)
	MaxTokens     int    `mapstructure:"max_tokens" json:"max_tokens"`           // 单文件最大token数(0=不限)
}

// Validate 验证输出配置
func (c *OutputConfig) Validate() error {
	if c.FileName == "" {
		return fmt.Errorf("输出文件名(file_name)不能为空")
	}
	if c.MaxFileSizeMB < 0 {
		return fmt.Errorf("单文件最大大小不能为负数,当前值: %d", c.MaxFileSizeMB)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("单文件最大token数不能为负数,当前值: %d", c.MaxTokens)
	}
	return nil
}

// Stem 返回去掉.json后缀的输出文件名词干
func (c *OutputConfig) Stem() string {
	return strings.TrimSuffix(c.FileName, ".json")
}

// ValidateURL 验证URL格式
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("URL格式无效: %w", err)
	}
	if parsed.Scheme == "" {
		return fmt.Errorf("URL缺少协议(http/https)")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL协议必须是http或https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL缺少主机名")
	}
	return nil
}
