package crawlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/RecoveryAshes/DocPack/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// PagePool 浏览器标签页池
// 按需创建标签页,数量受ResourceMonitor和配置双重限制
// 登录态cookie由每次访问前写入,归还时不清理
type PagePool struct {
	browser *rod.Browser
	monitor *ResourceMonitor
	maxTabs int

	mu        sync.Mutex
	pages     []*rod.Page
	available chan *rod.Page
	closed    bool
}

// NewPagePool 创建标签页池
func NewPagePool(browser *rod.Browser, monitor *ResourceMonitor, maxTabs int) *PagePool {
	return &PagePool{
		browser:   browser,
		monitor:   monitor,
		maxTabs:   maxTabs,
		pages:     make([]*rod.Page, 0, maxTabs),
		available: make(chan *rod.Page, maxTabs),
	}
}

// Acquire 获取一个可用标签页,无可用且未达上限时创建新的
func (pp *PagePool) Acquire(ctx context.Context) (*rod.Page, error) {
	pp.mu.Lock()
	if pp.closed {
		pp.mu.Unlock()
		return nil, fmt.Errorf("标签页池已关闭")
	}
	pp.mu.Unlock()

	select {
	case page := <-pp.available:
		return page, nil
	default:
	}

	pp.mu.Lock()
	currentSize := len(pp.pages)
	pp.mu.Unlock()

	limit := pp.monitor.CalculateMaxTabs(pp.maxTabs)
	if currentSize < limit {
		if canCreate, reason := pp.monitor.CheckResourceAvailability(); !canCreate {
			utils.Warnf("资源不足,暂停创建新标签页: %s", reason)
		} else {
			return pp.createPage()
		}
	}

	// 已达上限或资源紧张,阻塞等待归还
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case page, ok := <-pp.available:
		if !ok {
			return nil, fmt.Errorf("标签页池已关闭")
		}
		return page, nil
	}
}

func (pp *PagePool) createPage() (*rod.Page, error) {
	page, err := pp.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("创建标签页失败(浏览器可能已崩溃): %w", err)
	}

	pp.mu.Lock()
	pp.pages = append(pp.pages, page)
	size := len(pp.pages)
	pp.mu.Unlock()

	utils.Debugf("创建新标签页,当前标签页数: %d", size)
	return page, nil
}

// Release 归还标签页
// 导航回空白页以断开上一次访问的事件流,失败则销毁
func (pp *PagePool) Release(page *rod.Page) {
	if page == nil {
		return
	}

	pp.mu.Lock()
	closed := pp.closed
	pp.mu.Unlock()
	if closed {
		pp.destroyPage(page)
		return
	}

	if err := page.Navigate("about:blank"); err != nil {
		utils.Warnf("重置标签页失败,销毁该标签页: %v", err)
		pp.destroyPage(page)
		return
	}

	select {
	case pp.available <- page:
	default:
		pp.destroyPage(page)
	}
}

// destroyPage 从池中移除并关闭标签页
func (pp *PagePool) destroyPage(page *rod.Page) {
	pp.mu.Lock()
	for i, p := range pp.pages {
		if p == page {
			pp.pages = append(pp.pages[:i], pp.pages[i+1:]...)
			break
		}
	}
	size := len(pp.pages)
	pp.mu.Unlock()

	if err := page.Close(); err != nil {
		utils.Warnf("关闭标签页失败: %v", err)
	}
	utils.Debugf("销毁标签页,当前标签页数: %d", size)
}

// Close 关闭标签页池,释放所有标签页
func (pp *PagePool) Close() {
	pp.mu.Lock()
	if pp.closed {
		pp.mu.Unlock()
		return
	}
	pp.closed = true
	pages := pp.pages
	pp.pages = nil
	close(pp.available)
	pp.mu.Unlock()

	for _, page := range pages {
		if err := page.Close(); err != nil {
			utils.Warnf("关闭标签页失败: %v", err)
		}
	}
	utils.Debugf("标签页池已关闭")
}
