package models

// CrawlStats 爬取统计
type CrawlStats struct {
	VisitedPages     int     `json:"visited_pages"`     // 已访问页面数
	Records          int     `json:"records"`           // 产生的采集记录数
	SkippedResponses int     `json:"skipped_responses"` // 缺少文档载荷被跳过的响应数
	ParseFailures    int     `json:"parse_failures"`    // 响应体JSON解析失败数
	FailedPages      int     `json:"failed_pages"`      // 导航/加载失败页面数
	EnqueuedURLs     int     `json:"enqueued_urls"`     // 入队的链接数
	BrowserRestarts  int     `json:"browser_restarts"`  // 浏览器重启次数
	Duration         float64 `json:"duration"`          // 总耗时(秒)
}
