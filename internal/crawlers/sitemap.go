package crawlers

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/RecoveryAshes/DocPack/internal/utils"
	"github.com/andybalholm/brotli"
)

// sitemapURLPattern sitemap类种子URL的命名模式
var sitemapURLPattern = regexp.MustCompile(`(?i)sitemap[^/]*\.xml(\.gz)?$`)

// maxSitemapIndexDepth sitemapindex递归展开的最大层数
const maxSitemapIndexDepth = 4

// IsSitemapURL 判断种子URL是否为sitemap文件
func IsSitemapURL(rawURL string) bool {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	return sitemapURLPattern.MatchString(rawURL)
}

// xmlURLSet 标准sitemap根元素
type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []xmlLoc `xml:"url"`
}

// xmlSitemapIndex sitemap索引根元素
type xmlSitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []xmlLoc `xml:"sitemap"`
}

type xmlLoc struct {
	Loc string `xml:"loc"`
}

// SitemapFetcher sitemap下载器
// 下载并解析sitemap XML,递归展开sitemapindex,支持gzip/brotli压缩
type SitemapFetcher struct {
	client *http.Client
}

// NewSitemapFetcher 创建sitemap下载器
func NewSitemapFetcher(timeout time.Duration) *SitemapFetcher {
	return &SitemapFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true,
				},
			},
		},
	}
}

// FetchURLs 下载sitemap并返回其中枚举的全部页面URL
// sitemapindex递归展开,单个子sitemap下载失败记警告后继续
func (f *SitemapFetcher) FetchURLs(ctx context.Context, sitemapURL string) ([]string, error) {
	return f.fetch(ctx, sitemapURL, 0)
}

func (f *SitemapFetcher) fetch(ctx context.Context, sitemapURL string, depth int) ([]string, error) {
	if depth > maxSitemapIndexDepth {
		return nil, fmt.Errorf("sitemap索引嵌套过深: %s", sitemapURL)
	}

	body, err := f.download(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	// 先按标准sitemap解析
	var urlset xmlURLSet
	if err := xml.Unmarshal(body, &urlset); err == nil && len(urlset.URLs) > 0 {
		urls := make([]string, 0, len(urlset.URLs))
		for _, entry := range urlset.URLs {
			if loc := strings.TrimSpace(entry.Loc); loc != "" {
				urls = append(urls, loc)
			}
		}
		utils.Infof("🗺️  sitemap展开: %s → %d 个URL", sitemapURL, len(urls))
		return urls, nil
	}

	// 再按sitemapindex解析并递归展开
	var index xmlSitemapIndex
	if err := xml.Unmarshal(body, &index); err != nil || len(index.Sitemaps) == 0 {
		return nil, fmt.Errorf("无法解析sitemap [%s]: 既不是urlset也不是sitemapindex", sitemapURL)
	}

	var urls []string
	for _, child := range index.Sitemaps {
		loc := strings.TrimSpace(child.Loc)
		if loc == "" {
			continue
		}
		childURLs, err := f.fetch(ctx, loc, depth+1)
		if err != nil {
			utils.Warnf("展开子sitemap失败 [%s]: %v", loc, err)
			continue
		}
		urls = append(urls, childURLs...)
	}
	return urls, nil
}

// download 下载sitemap内容并解压
func (f *SitemapFetcher) download(ctx context.Context, sitemapURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("下载sitemap失败 [%s]: %w", sitemapURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("下载sitemap失败 [%s]: HTTP %d", sitemapURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取sitemap内容失败: %w", err)
	}

	return decodeSitemapBody(body, resp.Header.Get("Content-Encoding"), sitemapURL)
}

// decodeSitemapBody 按Content-Encoding或.gz后缀解压sitemap内容
func decodeSitemapBody(body []byte, encoding string, sitemapURL string) ([]byte, error) {
	switch strings.ToLower(encoding) {
	case "br":
		decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decoded, nil
	case "gzip":
		return gunzip(body)
	}

	// 部分服务器对.gz文件不带Content-Encoding,按魔数识别
	if strings.HasSuffix(strings.ToLower(sitemapURL), ".gz") &&
		len(body) > 2 && body[0] == 0x1f && body[1] == 0x8b {
		return gunzip(body)
	}

	return body, nil
}

func gunzip(body []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gzip读取失败: %w", err)
	}
	defer reader.Close()

	decoded, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("gzip读取失败: %w", err)
	}
	return decoded, nil
}
