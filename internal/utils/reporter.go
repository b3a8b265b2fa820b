package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/DocPack/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 报告生成器
type Reporter struct {
	outputDir string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// GenerateReport 生成爬取报告并写入输出目录
// 报告中的Cookie值经过脱敏处理
func (r *Reporter) GenerateReport(
	stats models.CrawlStats,
	visitedURLs []string,
	recordsDir string,
	outputFile string,
	crawlConfig models.CrawlConfig,
	outputConfig models.OutputConfig,
) error {
	reportsDir := filepath.Join(r.outputDir, "reports")
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	report := models.CrawlReport{
		TargetURL:   crawlConfig.URL,
		StartTime:   time.Now().Add(-time.Duration(stats.Duration * float64(time.Second))),
		EndTime:     time.Now(),
		Duration:    stats.Duration,
		Stats:       stats,
		VisitedURLs: visitedURLs,
		RecordsDir:  recordsDir,
		OutputFile:  outputFile,
		Crawl:       redactCrawlConfig(crawlConfig),
		Output:      outputConfig,
	}

	if err := r.saveJSONReport(reportsDir, "crawl_report.json", report); err != nil {
		return err
	}

	Infof("✅ 报告已生成: %s", reportsDir)
	return nil
}

// redactCrawlConfig 返回Cookie值已脱敏的配置副本
func redactCrawlConfig(config models.CrawlConfig) models.CrawlConfig {
	redactor := NewCookieRedactor()
	redacted := config
	redacted.Cookies = make([]models.Cookie, len(config.Cookies))
	for i, c := range config.Cookies {
		redacted.Cookies[i] = models.Cookie{
			Name:  c.Name,
			Value: redactor.RedactCookieValue(c.Name, c.Value),
		}
	}
	return redacted
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(dir string, filename string, data interface{}) error {
	path := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
