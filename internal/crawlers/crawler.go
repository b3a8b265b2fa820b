package crawlers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RecoveryAshes/DocPack/internal/models"
	"github.com/RecoveryAshes/DocPack/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/schollz/progressbar/v3"
)

// 错误类型定义
var (
	ErrBrowserCrashed    = errors.New("浏览器崩溃")
	ErrMaxRetriesReached = errors.New("已达最大重试次数")
)

// sitemapFetchTimeout sitemap下载超时
const sitemapFetchTimeout = 30 * time.Second

// browserRestartDelay 浏览器崩溃后重启前的等待时间
const browserRestartDelay = 2 * time.Second

// maxBrowserRetries 浏览器崩溃最大重启次数
const maxBrowserRetries = 3

// SiteCrawler 站点爬取编排器
// 职责: 管理浏览器生命周期,调度worker并发访问页面,
// 每个页面挂载响应采集器并提取站内链接,直到队列耗尽或达到页面上限
type SiteCrawler struct {
	config  models.CrawlConfig
	store   *RecordStore
	queue   *URLQueue
	monitor *ResourceMonitor
	pool    *PagePool
	browser *rod.Browser

	// 屏蔽的资源类型(小写)
	blockedResources map[string]struct{}

	// 注入页面的cookie(已通过校验)
	cookies []models.Cookie

	// 统计
	stats   models.CrawlStats
	statsMu sync.Mutex

	// 活跃worker计数,用于检测爬取结束
	activeWorkers atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSiteCrawler 创建站点爬取编排器
func NewSiteCrawler(config models.CrawlConfig, store *RecordStore, cookies []models.Cookie) (*SiteCrawler, error) {
	matcher, err := NewLinkMatcher(config.Match, config.Exclude)
	if err != nil {
		return nil, fmt.Errorf("编译链接模式失败: %w", err)
	}

	blocked := make(map[string]struct{}, len(config.ExcludeResources))
	for _, rt := range config.ExcludeResources {
		blocked[strings.ToLower(rt)] = struct{}{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &SiteCrawler{
		config:           config,
		store:            store,
		queue:            NewURLQueue(matcher, config.MaxPages),
		monitor:          NewResourceMonitor(),
		blockedResources: blocked,
		cookies:          cookies,
		ctx:              ctx,
		cancel:           cancel,
	}, nil
}

// Stop 请求中止爬取,幂等
// 已采集的记录保留在记录目录中
func (sc *SiteCrawler) Stop() {
	sc.cancel()
}

// VisitedURLs 返回已访问的URL列表
func (sc *SiteCrawler) VisitedURLs() []string {
	return sc.queue.Visited()
}

// Crawl 执行整个爬取流程,返回统计信息
// 浏览器崩溃自动重启,最多重试3次
func (sc *SiteCrawler) Crawl() (models.CrawlStats, error) {
	startTime := time.Now()

	utils.Infof("🚀 开始爬取")
	utils.Infof("种子URL: %s", sc.config.URL)
	utils.Infof("页面上限: %d, 标签页上限: %d, 等待时间: %d秒",
		sc.config.MaxPages, sc.config.MaxTabs, sc.config.WaitTime)

	sc.monitor.Start()
	defer sc.monitor.Stop()
	defer sc.queue.Close()

	if err := sc.seedQueue(); err != nil {
		return sc.snapshotStats(startTime), err
	}

	var crawlErr error
	for retry := 0; retry <= maxBrowserRetries; retry++ {
		if err := sc.launchBrowser(); err != nil {
			utils.Errorf("浏览器启动失败(重试%d/%d): %v", retry, maxBrowserRetries, err)
			if retry == maxBrowserRetries {
				crawlErr = fmt.Errorf("浏览器启动失败: %w", ErrMaxRetriesReached)
				break
			}
			time.Sleep(browserRestartDelay)
			continue
		}

		crawlErr = sc.crawlWithBrowser()
		sc.closeBrowser()

		if errors.Is(crawlErr, ErrBrowserCrashed) {
			sc.statsMu.Lock()
			sc.stats.BrowserRestarts++
			sc.statsMu.Unlock()

			if retry == maxBrowserRetries {
				crawlErr = fmt.Errorf("浏览器崩溃: %w", ErrMaxRetriesReached)
				break
			}
			utils.Warnf("浏览器崩溃,准备重启(重试%d/%d)", retry+1, maxBrowserRetries)
			time.Sleep(browserRestartDelay)
			continue
		}
		break
	}

	stats := sc.snapshotStats(startTime)

	utils.Infof("✅ 爬取完成")
	utils.Infof("访问页面数: %d, 采集记录数: %d", stats.VisitedPages, stats.Records)
	utils.Infof("跳过响应数: %d, 解析失败数: %d, 失败页面数: %d",
		stats.SkippedResponses, stats.ParseFailures, stats.FailedPages)
	if stats.BrowserRestarts > 0 {
		utils.Infof("浏览器重启次数: %d", stats.BrowserRestarts)
	}
	utils.Infof("总耗时: %.2f秒", stats.Duration)

	return stats, crawlErr
}

// seedQueue 解析种子并填充队列
// 种子为sitemap时展开其中全部URL,展开出的URL不经过match/exclude过滤
func (sc *SiteCrawler) seedQueue() error {
	if !IsSitemapURL(sc.config.URL) {
		return sc.queue.PushSeed(sc.config.URL)
	}

	fetcher := NewSitemapFetcher(sitemapFetchTimeout)
	urls, err := fetcher.FetchURLs(sc.ctx, sc.config.URL)
	if err != nil {
		return fmt.Errorf("展开sitemap失败: %w", err)
	}
	if len(urls) == 0 {
		return fmt.Errorf("sitemap中没有可爬取的URL: %s", sc.config.URL)
	}

	for _, u := range urls {
		if err := sc.queue.PushSeed(u); err != nil {
			utils.Debugf("入队失败 [%s]: %v", u, err)
		}
	}
	utils.Infof("📦 sitemap种子入队完成: %d 个URL", sc.queue.EnqueuedCount())
	return nil
}

// crawlWithBrowser 在当前浏览器实例中执行爬取
// panic被转换为ErrBrowserCrashed以触发重启
func (sc *SiteCrawler) crawlWithBrowser() (err error) {
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("浏览器操作panic: %v", r)
			err = ErrBrowserCrashed
		}
	}()

	sc.pool = NewPagePool(sc.browser, sc.monitor, sc.config.MaxTabs)
	defer sc.pool.Close()

	maxWorkers := sc.monitor.CalculateMaxTabs(sc.config.MaxTabs)
	utils.Debugf("worker数量: %d", maxWorkers)

	bar := utils.NewProgressBar(sc.config.MaxPages, "爬取页面")

	// 所有worker空闲且无待处理URL时关闭队列,worker随之退出
	idleCtx, idleCancel := context.WithCancel(sc.ctx)
	defer idleCancel()
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-idleCtx.Done():
				return
			case <-ticker.C:
				if sc.activeWorkers.Load() == 0 && sc.queue.PendingCount() == 0 {
					utils.Debugf("所有worker空闲且队列为空,关闭队列")
					sc.queue.Close()
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	sc.activeWorkers.Store(int32(maxWorkers))
	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			sc.worker(workerID, bar)
		}(i)
	}
	wg.Wait()

	_ = bar.Finish()
	return nil
}

// worker 从队列拉取URL并访问,队列关闭后退出
func (sc *SiteCrawler) worker(workerID int, bar *progressbar.ProgressBar) {
	for {
		sc.activeWorkers.Add(-1)
		pageURL, ok := sc.queue.Pop(sc.ctx)
		if !ok {
			return
		}
		sc.activeWorkers.Add(1)

		if err := sc.visitPage(pageURL); err != nil {
			utils.Warnf("Worker %d 访问失败 [%s]: %v", workerID, pageURL, err)
			sc.statsMu.Lock()
			sc.stats.FailedPages++
			sc.statsMu.Unlock()
		}
		_ = bar.Add(1)
	}
}

// visitPage 访问单个页面
// 流程: 取标签页 → 屏蔽资源 → 注入cookie → 挂载采集器 → 导航 →
// 等待加载 → 提取链接 → 等待响应处理完毕
func (sc *SiteCrawler) visitPage(pageURL string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("页面访问panic [%s]: %v", pageURL, r)
			err = fmt.Errorf("页面访问panic: %v", r)
		}
	}()

	sc.queue.MarkVisited(pageURL)
	sc.statsMu.Lock()
	sc.stats.VisitedPages++
	sc.statsMu.Unlock()

	utils.Debugf("访问页面: %s", pageURL)

	rawPage, acquireErr := sc.pool.Acquire(sc.ctx)
	if acquireErr != nil {
		return fmt.Errorf("获取标签页失败: %w", acquireErr)
	}
	defer sc.pool.Release(rawPage)

	// 每次访问独立context,访问结束时终止事件订阅
	visitCtx, visitCancel := context.WithCancel(sc.ctx)
	defer visitCancel()
	page := rawPage.Context(visitCtx)

	if len(sc.blockedResources) > 0 {
		router := sc.setupResourceBlocking(page)
		defer func() { _ = router.Stop() }()
	}

	if len(sc.cookies) > 0 {
		if cookieErr := page.SetCookies(sc.cookieParams(pageURL)); cookieErr != nil {
			utils.Warnf("注入Cookie失败 [%s]: %v", pageURL, cookieErr)
		}
	}

	harvester := NewPageHarvester(page, pageURL, sc.config.Marker(), sc.store)
	harvester.Attach()

	if navErr := page.Navigate(pageURL); navErr != nil {
		return fmt.Errorf("导航失败: %w", navErr)
	}
	if loadErr := page.WaitLoad(); loadErr != nil {
		return fmt.Errorf("等待页面加载失败: %w", loadErr)
	}

	// 额外等待,让页面的API请求发出并完成
	if sc.config.WaitTime > 0 {
		select {
		case <-visitCtx.Done():
			return visitCtx.Err()
		case <-time.After(time.Duration(sc.config.WaitTime) * time.Second):
		}
	}

	sc.extractLinks(page, pageURL)

	// 等待采集器处理完已到达的响应,再计入统计
	harvester.Drain()
	sc.statsMu.Lock()
	sc.stats.Records += harvester.Records()
	sc.stats.SkippedResponses += harvester.Skipped()
	sc.stats.ParseFailures += harvester.ParseFailures()
	sc.statsMu.Unlock()

	return nil
}

// setupResourceBlocking 拦截并屏蔽配置中排除的资源类型
func (sc *SiteCrawler) setupResourceBlocking(page *rod.Page) *rod.HijackRouter {
	router := page.HijackRequests()
	router.MustAdd("*", func(ctx *rod.Hijack) {
		resourceType := strings.ToLower(string(ctx.Request.Type()))
		if _, blocked := sc.blockedResources[resourceType]; blocked {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}

// cookieParams 构造作用于当前页面URL的cookie参数
func (sc *SiteCrawler) cookieParams(pageURL string) []*proto.NetworkCookieParam {
	params := make([]*proto.NetworkCookieParam, 0, len(sc.cookies))
	for _, c := range sc.cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:  c.Name,
			Value: c.Value,
			URL:   pageURL,
		})
	}
	return params
}

// extractLinks 提取页面HTML中的站内链接并入队
func (sc *SiteCrawler) extractLinks(page *rod.Page, pageURL string) {
	html, htmlErr := page.HTML()
	if htmlErr != nil {
		utils.Warnf("获取页面HTML失败 [%s]: %v", pageURL, htmlErr)
		return
	}

	parsed, parseErr := url.Parse(pageURL)
	if parseErr != nil {
		return
	}

	extractor := NewURLExtractor(sc.queue, parsed.Host)
	count, extractErr := extractor.ExtractFromHTML(html, pageURL)
	if extractErr != nil {
		utils.Warnf("提取链接失败 [%s]: %v", pageURL, extractErr)
		return
	}
	if count > 0 {
		sc.statsMu.Lock()
		sc.stats.EnqueuedURLs += count
		sc.statsMu.Unlock()
	}
}

// launchBrowser 启动浏览器
func (sc *SiteCrawler) launchBrowser() error {
	l := launcher.New().Headless(sc.config.Headless)

	// 跳过证书验证,允许访问自签名证书的内网文档站
	l = l.Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("启动浏览器失败: %w", err)
	}

	sc.browser = rod.New().ControlURL(controlURL)
	if err := sc.browser.Connect(); err != nil {
		return fmt.Errorf("连接浏览器失败: %w", err)
	}

	utils.Debugf("浏览器已启动: %s", controlURL)
	return nil
}

// closeBrowser 关闭浏览器
// 浏览器已崩溃时Close会报错,不影响后续重启
func (sc *SiteCrawler) closeBrowser() {
	if sc.browser != nil {
		if err := sc.browser.Close(); err != nil {
			utils.Debugf("关闭浏览器失败: %v", err)
		}
		sc.browser = nil
		utils.Debugf("浏览器已关闭")
	}
}

func (sc *SiteCrawler) snapshotStats(startTime time.Time) models.CrawlStats {
	sc.statsMu.Lock()
	defer sc.statsMu.Unlock()
	sc.stats.Duration = time.Since(startTime).Seconds()
	return sc.stats
}
