package models

import (
	"testing"
)

func TestCrawlConfigValidate(t *testing.T) {
	valid := CrawlConfig{
		URL:      "https://docs.test/",
		Match:    []string{"https://docs.test/**"},
		MaxPages: 100,
		WaitTime: 3,
		MaxTabs:  4,
	}

	tests := []struct {
		name    string
		modify  func(*CrawlConfig)
		wantErr bool
	}{
		{"合法配置", func(c *CrawlConfig) {}, false},
		{"带排除模式", func(c *CrawlConfig) { c.Exclude = []string{"**/internal/**"} }, false},
		{"带资源屏蔽", func(c *CrawlConfig) { c.ExcludeResources = []string{"image", "Media"} }, false},
		{"空URL", func(c *CrawlConfig) { c.URL = "" }, true},
		{"非法URL协议", func(c *CrawlConfig) { c.URL = "ftp://docs.test" }, true},
		{"缺少match模式", func(c *CrawlConfig) { c.Match = nil }, true},
		{"match模式语法错误", func(c *CrawlConfig) { c.Match = []string{"[unclosed"} }, true},
		{"exclude模式语法错误", func(c *CrawlConfig) { c.Exclude = []string{"[unclosed"} }, true},
		{"页面数为0", func(c *CrawlConfig) { c.MaxPages = 0 }, true},
		{"等待时间为负", func(c *CrawlConfig) { c.WaitTime = -1 }, true},
		{"等待时间过长", func(c *CrawlConfig) { c.WaitTime = 61 }, true},
		{"标签页数为0", func(c *CrawlConfig) { c.MaxTabs = 0 }, true},
		{"标签页数过多", func(c *CrawlConfig) { c.MaxTabs = 21 }, true},
		{"无效资源类型", func(c *CrawlConfig) { c.ExcludeResources = []string{"video"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.modify(&config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCrawlConfigMarker(t *testing.T) {
	c := CrawlConfig{}
	if c.Marker() != DefaultAPIMarker {
		t.Errorf("未配置时应返回缺省值 %q, 得到 %q", DefaultAPIMarker, c.Marker())
	}

	c.APIMarker = "/internal-api/"
	if c.Marker() != "/internal-api/" {
		t.Errorf("Marker() = %q", c.Marker())
	}
}

func TestOutputConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  OutputConfig
		wantErr bool
	}{
		{"合法配置", OutputConfig{FileName: "data.json", MaxFileSizeMB: 5, MaxTokens: 1000}, false},
		{"不限大小", OutputConfig{FileName: "data.json"}, false},
		{"空文件名", OutputConfig{}, true},
		{"负的大小上限", OutputConfig{FileName: "data.json", MaxFileSizeMB: -1}, true},
		{"负的token上限", OutputConfig{FileName: "data.json", MaxTokens: -1}, true},
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

func TestOutputConfigStem(t *testing.T) {
	tests := []struct {
		fileName string
		want     string
	}{
		{"data.json", "data"},
		{"data", "data"},
		{"my.data.json", "my.data"},
	}

	for _, tt := range tests {
		c := OutputConfig{FileName: tt.fileName}
		if got := c.Stem(); got != tt.want {
			t.Errorf("Stem(%q) = %q, 期望 %q", tt.fileName, got, tt.want)
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://docs.test/guide", false},
		{"http", "http://docs.test", false},
		{"缺少协议", "docs.test/guide", true},
		{"ftp协议", "ftp://docs.test", true},
		{"缺少主机", "https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestPageRecordApplyDefaults(t *testing.T) {
	r := PageRecord{}
	r.ApplyDefaults()
	if r.Title != DefaultTitle || r.URL != DefaultURL || r.Text != DefaultText {
		t.Errorf("缺省值未填充: %+v", r)
	}

	full := PageRecord{Title: "标题", URL: "https://docs.test/", Text: "正文"}
	full.ApplyDefaults()
	if full.Title != "标题" || full.URL != "https://docs.test/" || full.Text != "正文" {
		t.Errorf("已有字段不应被覆盖: %+v", full)
	}
}

func TestCliCookiesParse(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    []Cookie
		wantErr bool
	}{
		{"单个Cookie", []string{"session=abc"}, []Cookie{{Name: "session", Value: "abc"}}, false},
		{"值中带等号", []string{"jwt=a=b=c"}, []Cookie{{Name: "jwt", Value: "a=b=c"}}, false},
		{"多个Cookie", []string{"a=1", "b=2"}, []Cookie{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}}, false},
		{"缺少等号", []string{"invalid"}, nil, true},
		{"空名称", []string{"=value"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CliCookies(tt.input).Parse()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Cookie数 = %d, 期望 %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("cookies[%d] = %+v, 期望 %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
