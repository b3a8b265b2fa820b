package models

import "time"

// CrawlReport 爬取报告
// 爬取结束后写入输出目录,记录本次运行的配置和统计
type CrawlReport struct {
	TargetURL   string      `json:"target_url"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     time.Time   `json:"end_time"`
	Duration    float64     `json:"duration_seconds"`
	Stats       CrawlStats  `json:"stats"`
	VisitedURLs []string    `json:"visited_urls"`
	RecordsDir  string      `json:"records_dir"`
	OutputFile  string      `json:"output_file,omitempty"`
	Crawl       CrawlConfig `json:"crawl_config"`
	Output      OutputConfig `json:"output_config"`
}
