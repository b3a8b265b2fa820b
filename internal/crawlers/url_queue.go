package crawlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// LinkMatcher 链接匹配器
// 编译后的包含/排除glob模式,链接需命中任一match且不命中任何exclude
type LinkMatcher struct {
	match   []glob.Glob
	exclude []glob.Glob
}

// NewLinkMatcher 编译glob模式列表
func NewLinkMatcher(match, exclude []string) (*LinkMatcher, error) {
	m := &LinkMatcher{}
	for _, pattern := range match {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("编译匹配模式失败 [%s]: %w", pattern, err)
		}
		m.match = append(m.match, g)
	}
	for _, pattern := range exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("编译排除模式失败 [%s]: %w", pattern, err)
		}
		m.exclude = append(m.exclude, g)
	}
	return m, nil
}

// Allow 判断链接是否通过匹配规则
func (m *LinkMatcher) Allow(link string) bool {
	matched := false
	for _, g := range m.match {
		if g.Match(link) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, g := range m.exclude {
		if g.Match(link) {
			return false
		}
	}
	return true
}

// URLQueue URL队列管理器
// 职责: 管理待爬和已入队的URL,实施总页面数硬上限,并发安全
type URLQueue struct {
	// 待处理URL队列
	pending chan string

	// 已入队URL集合(入队即去重)
	enqueued map[string]bool

	// 已访问URL列表(报告用)
	visited []string

	mu sync.RWMutex

	// 链接匹配器(仅应用于发现的链接,种子URL绕过)
	matcher *LinkMatcher

	// 总页面数硬上限
	maxPages int

	closed bool
}

// NewURLQueue 创建URL队列
func NewURLQueue(matcher *LinkMatcher, maxPages int) *URLQueue {
	return &URLQueue{
		pending:  make(chan string, 1000),
		enqueued: make(map[string]bool),
		matcher:  matcher,
		maxPages: maxPages,
	}
}

// PushSeed 入队种子URL
// 种子绕过glob匹配,但仍受去重和页面数上限约束
func (q *URLQueue) PushSeed(rawURL string) error {
	return q.push(rawURL, false)
}

// Push 入队发现的链接
// 依次检查: URL有效性、协议、glob匹配、去重、页面数上限
func (q *URLQueue) Push(rawURL string) error {
	return q.push(rawURL, true)
}

func (q *URLQueue) push(rawURL string, applyMatcher bool) error {
	rawURL = normalizeLink(rawURL)

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("URL格式无效: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("不支持的协议: %s", parsed.Scheme)
	}

	if applyMatcher && q.matcher != nil && !q.matcher.Allow(rawURL) {
		return fmt.Errorf("链接未通过匹配规则: %s", rawURL)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("队列已关闭")
	}
	if q.enqueued[rawURL] {
		return fmt.Errorf("URL已入队: %s", rawURL)
	}
	if len(q.enqueued) >= q.maxPages {
		return fmt.Errorf("已达页面数上限: %d", q.maxPages)
	}

	select {
	case q.pending <- rawURL:
		q.enqueued[rawURL] = true
		return nil
	default:
		return fmt.Errorf("队列已满")
	}
}

// Pop 阻塞获取下一个待爬URL
// 队列关闭或context取消时返回 ("", false)
func (q *URLQueue) Pop(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case rawURL, ok := <-q.pending:
		if !ok {
			return "", false
		}
		return rawURL, true
	}
}

// MarkVisited 记录URL已访问
func (q *URLQueue) MarkVisited(rawURL string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.visited = append(q.visited, rawURL)
}

// Visited 已访问URL列表快照
func (q *URLQueue) Visited() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]string(nil), q.visited...)
}

// EnqueuedCount 已入队URL总数
func (q *URLQueue) EnqueuedCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.enqueued)
}

// PendingCount 待处理URL数量
func (q *URLQueue) PendingCount() int {
	return len(q.pending)
}

// Close 关闭队列,幂等
func (q *URLQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.pending)
}

// normalizeLink 去掉链接的fragment部分
// 同一页面的不同锚点不应产生多次访问
func normalizeLink(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
