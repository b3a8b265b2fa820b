package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/DocPack/internal/models"
)

func TestLoadConfigDefaults(t *testing.T) {
	// 不存在的路径不指定,走默认搜索,找不到则全部使用默认值
	tmp := t.TempDir()
	cwd, _ := os.Getwd()
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("切换目录失败: %v", err)
	}
	defer func() { _ = os.Chdir(cwd) }()

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("加载默认配置失败: %v", err)
	}

	if config.Crawl.WaitTime != 3 {
		t.Errorf("默认等待时间 = %d, 期望 3", config.Crawl.WaitTime)
	}
	if config.Crawl.MaxPages != 100 {
		t.Errorf("默认页面上限 = %d, 期望 100", config.Crawl.MaxPages)
	}
	if config.Crawl.MaxTabs != 4 {
		t.Errorf("默认标签页数 = %d, 期望 4", config.Crawl.MaxTabs)
	}
	if !config.Crawl.Headless {
		t.Error("默认应为无头模式")
	}
	if config.Crawl.APIMarker != models.DefaultAPIMarker {
		t.Errorf("默认API标记 = %q", config.Crawl.APIMarker)
	}
	if config.Output.BaseDir != "output" {
		t.Errorf("默认输出目录 = %q", config.Output.BaseDir)
	}
	if config.Output.FileName != "data.json" {
		t.Errorf("默认输出文件名 = %q", config.Output.FileName)
	}
	if config.Logging.Level != "info" {
		t.Errorf("默认日志级别 = %q", config.Logging.Level)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	content := `
crawl:
  url: https://docs.test/
  match:
    - "https://docs.test/**"
  max_pages: 50
  wait_time: 5
  cookies:
    - name: session
      value: abc123
output:
  file_name: docs.json
  max_tokens: 20000
logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if config.Crawl.URL != "https://docs.test/" {
		t.Errorf("URL = %q", config.Crawl.URL)
	}
	if config.Crawl.MaxPages != 50 {
		t.Errorf("MaxPages = %d, 期望 50", config.Crawl.MaxPages)
	}
	if len(config.Crawl.Cookies) != 1 || config.Crawl.Cookies[0].Name != "session" {
		t.Errorf("Cookies = %+v", config.Crawl.Cookies)
	}
	if config.Output.FileName != "docs.json" {
		t.Errorf("FileName = %q", config.Output.FileName)
	}
	if config.Output.MaxTokens != 20000 {
		t.Errorf("MaxTokens = %d", config.Output.MaxTokens)
	}
	// 未指定的字段保留默认值
	if config.Crawl.MaxTabs != 4 {
		t.Errorf("未配置的MaxTabs应为默认值4, 得到 %d", config.Crawl.MaxTabs)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Level = %q", config.Logging.Level)
	}
}

func TestLoadConfigInvalidFile(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(configPath, []byte("crawl: [not a map"), 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("语法错误的配置文件应返回错误")
	}
}

func TestMergeCLIFlags(t *testing.T) {
	config := &Config{
		Crawl: models.CrawlConfig{
			URL:      "https://from-config.test/",
			Match:    []string{"**/config/**"},
			MaxPages: 100,
			WaitTime: 3,
			MaxTabs:  4,
		},
		Output: models.OutputConfig{FileName: "data.json"},
	}

	config.MergeCLIFlags(
		"https://from-cli.test/",
		[]string{"**/cli/**"},
		nil,
		50, 10, 8, false,
		"cli.json", 5, 10000,
	)

	if config.Crawl.URL != "https://from-cli.test/" {
		t.Errorf("命令行URL应覆盖配置文件: %q", config.Crawl.URL)
	}
	if len(config.Crawl.Match) != 1 || config.Crawl.Match[0] != "**/cli/**" {
		t.Errorf("Match = %v", config.Crawl.Match)
	}
	if config.Crawl.MaxPages != 50 || config.Crawl.WaitTime != 10 || config.Crawl.MaxTabs != 8 {
		t.Errorf("数值参数未覆盖: %+v", config.Crawl)
	}
	if config.Crawl.Headless {
		t.Error("headless应被命令行覆盖为false")
	}
	if config.Output.FileName != "cli.json" || config.Output.MaxFileSizeMB != 5 || config.Output.MaxTokens != 10000 {
		t.Errorf("输出参数未覆盖: %+v", config.Output)
	}

	// 零值参数不覆盖
	config.MergeCLIFlags("", nil, nil, 0, -1, 0, false, "", 0, 0)
	if config.Crawl.URL != "https://from-cli.test/" || config.Crawl.MaxPages != 50 {
		t.Errorf("零值参数不应覆盖已有配置: %+v", config.Crawl)
	}
	if config.Crawl.WaitTime != 10 {
		t.Errorf("wait为-1时不应覆盖: %d", config.Crawl.WaitTime)
	}
}

func TestRecordsDir(t *testing.T) {
	config := &Config{Output: models.OutputConfig{BaseDir: "out"}}
	if got := config.RecordsDir(); got != filepath.Join("out", "records") {
		t.Errorf("RecordsDir() = %q", got)
	}
}
