package crawlers

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/RecoveryAshes/DocPack/internal/utils"
	"golang.org/x/net/html"
)

// URLExtractor URL提取器
// 职责: 从渲染后的页面HTML中提取同站链接并入队
type URLExtractor struct {
	queue *URLQueue

	// 目标主机名(仅跟随同站链接)
	targetHost string
}

// NewURLExtractor 创建URL提取器
func NewURLExtractor(queue *URLQueue, targetHost string) *URLExtractor {
	return &URLExtractor{
		queue:      queue,
		targetHost: targetHost,
	}
}

// ExtractFromHTML 从HTML字符串提取链接并尝试入队
// 返回成功入队的链接数;glob过滤、去重和上限由队列负责
func (e *URLExtractor) ExtractFromHTML(htmlContent string, baseURL string) (int, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return 0, fmt.Errorf("解析HTML失败: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return 0, fmt.Errorf("解析baseURL失败: %w", err)
	}

	enqueued := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				linkURL, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil {
					break
				}
				absolute := base.ResolveReference(linkURL)

				if e.shouldFollow(absolute) {
					if err := e.queue.Push(absolute.String()); err == nil {
						enqueued++
					}
				}
				break
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if enqueued > 0 {
		utils.Debugf("从页面提取了 %d 个新链接: %s", enqueued, baseURL)
	}

	return enqueued, nil
}

// shouldFollow 链接跟随前置检查(协议和同站)
func (e *URLExtractor) shouldFollow(link *url.URL) bool {
	if link.Scheme != "http" && link.Scheme != "https" {
		return false
	}
	return link.Host == e.targetHost
}
