package core

import (
	"fmt"
	"os"
	"sync"

	"github.com/RecoveryAshes/DocPack/internal/crawlers"
	"github.com/RecoveryAshes/DocPack/internal/models"
	"github.com/RecoveryAshes/DocPack/internal/utils"
	"github.com/RecoveryAshes/DocPack/internal/writer"
)

// EnvSkipCrawl 设置后跳过爬取阶段,只对已有记录执行分批写出
const EnvSkipCrawl = "DOCPACK_NO_CRAWL"

// Runner 执行完整的采集流程: 爬取 → 分批写出 → 报告
type Runner struct {
	config        *Config
	cookieManager *CookieManager
	skipCrawl     bool

	mu      sync.Mutex
	crawler *crawlers.SiteCrawler
}

// NewRunner 创建流程执行器
func NewRunner(config *Config, cookieManager *CookieManager, skipCrawl bool) *Runner {
	if os.Getenv(EnvSkipCrawl) != "" {
		skipCrawl = true
	}
	return &Runner{
		config:        config,
		cookieManager: cookieManager,
		skipCrawl:     skipCrawl,
	}
}

// Stop 请求中止正在进行的爬取,幂等
// 已采集的记录保留,后续阶段照常执行
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.crawler != nil {
		r.crawler.Stop()
	}
}

// Run 执行完整流程
// 爬取中途失败不丢弃已采集的记录,分批写出阶段照常运行
func (r *Runner) Run() error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	if err := r.cookieManager.Validate(); err != nil {
		return fmt.Errorf("Cookie验证失败: %w", err)
	}

	recordsDir := r.config.RecordsDir()

	var stats models.CrawlStats
	var visitedURLs []string
	var crawlErr error

	if r.skipCrawl {
		utils.Infof("⏭️  跳过爬取阶段,直接写出已有记录: %s", recordsDir)
	} else {
		stats, visitedURLs, crawlErr = r.crawl(recordsDir)
		if crawlErr != nil {
			utils.Warnf("爬取阶段出错,已采集的记录仍会写出: %v", crawlErr)
		}
	}

	w, err := writer.NewWriter(recordsDir, r.config.Output)
	if err != nil {
		return fmt.Errorf("初始化写出器失败: %w", err)
	}
	lastFile, err := w.Write()
	if err != nil {
		return fmt.Errorf("分批写出失败: %w", err)
	}
	if lastFile != "" {
		utils.Infof("💾 输出完成,最后一个文件: %s", lastFile)
	}

	if !r.skipCrawl {
		reporter := utils.NewReporter(r.config.Output.BaseDir)
		if reportErr := reporter.GenerateReport(
			stats, visitedURLs, recordsDir, lastFile,
			r.config.Crawl, r.config.Output,
		); reportErr != nil {
			utils.Warnf("生成报告失败: %v", reportErr)
		}
	}

	return crawlErr
}

// crawl 执行爬取阶段
func (r *Runner) crawl(recordsDir string) (models.CrawlStats, []string, error) {
	store, err := crawlers.NewRecordStore(recordsDir)
	if err != nil {
		return models.CrawlStats{}, nil, fmt.Errorf("初始化记录目录失败: %w", err)
	}

	crawler, err := crawlers.NewSiteCrawler(r.config.Crawl, store, r.cookieManager.Cookies())
	if err != nil {
		return models.CrawlStats{}, nil, err
	}

	r.mu.Lock()
	r.crawler = crawler
	r.mu.Unlock()

	stats, crawlErr := crawler.Crawl()
	return stats, crawler.VisitedURLs(), crawlErr
}
