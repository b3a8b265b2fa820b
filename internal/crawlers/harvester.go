package crawlers

import (
	"encoding/base64"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/RecoveryAshes/DocPack/internal/extract"
	"github.com/RecoveryAshes/DocPack/internal/models"
	"github.com/RecoveryAshes/DocPack/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// PageHarvester 页面采集器
// 职责: 监听单个页面访问期间的网络响应,命中内部API的响应解析为
// 文档载荷,提取文本片段并落盘为一条采集记录
//
// 一个页面触发多个命中响应时,每个响应各自产生一条记录,不做合并
type PageHarvester struct {
	page    *rod.Page
	pageURL string
	marker  string
	store   *RecordStore

	// 在途响应处理计数,Drain等待全部完成
	inflight sync.WaitGroup

	records       atomic.Int64
	skipped       atomic.Int64
	parseFailures atomic.Int64
}

// NewPageHarvester 创建页面采集器
// page应绑定本次访问的context,访问结束取消context即注销监听
func NewPageHarvester(page *rod.Page, pageURL string, marker string, store *RecordStore) *PageHarvester {
	return &PageHarvester{
		page:    page,
		pageURL: pageURL,
		marker:  marker,
		store:   store,
	}
}

// Attach 注册网络响应监听,立即返回
// 必须在导航开始前调用,否则可能错过早期响应
func (h *PageHarvester) Attach() {
	go h.page.EachEvent(func(e *proto.NetworkResponseReceived) {
		if !strings.Contains(e.Response.URL, h.marker) {
			return
		}
		h.inflight.Add(1)
		defer h.inflight.Done()
		h.handleResponse(e)
	})()
}

// Drain 等待所有在途响应处理完成
// 页面在Drain返回前不视为处理完毕(导航完成与响应处理完成之间
// 没有顺序保证,必须显式同步)
func (h *PageHarvester) Drain() {
	h.inflight.Wait()
}

// Records 本次访问产生的记录数
func (h *PageHarvester) Records() int { return int(h.records.Load()) }

// Skipped 缺少文档载荷被跳过的响应数
func (h *PageHarvester) Skipped() int { return int(h.skipped.Load()) }

// ParseFailures JSON解析失败的响应数
func (h *PageHarvester) ParseFailures() int { return int(h.parseFailures.Load()) }

// handleResponse 处理单个命中的API响应
// 解析失败和载荷缺失都是非致命的: 记日志后跳过,页面访问继续
func (h *PageHarvester) handleResponse(e *proto.NetworkResponseReceived) {
	body, err := proto.NetworkGetResponseBody{RequestID: e.RequestID}.Call(h.page)
	if err != nil {
		utils.Warnf("获取响应体失败 [%s]: %v", e.Response.URL, err)
		return
	}

	var content []byte
	if body.Base64Encoded {
		content, err = base64.StdEncoding.DecodeString(body.Body)
		if err != nil {
			utils.Warnf("解码Base64响应体失败 [%s]: %v", e.Response.URL, err)
			return
		}
	} else {
		content = []byte(body.Body)
	}

	root, err := extract.Parse(content)
	if err != nil {
		utils.Errorf("API响应JSON解析失败 [%s]: %v", e.Response.URL, err)
		h.parseFailures.Add(1)
		return
	}

	record, ok := BuildRecord(root, h.pageURL)
	if !ok {
		utils.Warnf("响应缺少 data.document 载荷,跳过: %s", e.Response.URL)
		h.skipped.Add(1)
		return
	}

	if err := h.store.Save(record); err != nil {
		utils.Errorf("保存采集记录失败 [%s]: %v", h.pageURL, err)
		return
	}

	h.records.Add(1)
	utils.Infof("📄 采集记录: %s (%s)", h.pageURL, record.Title)
}

// BuildRecord 从API响应根节点构建采集记录
// 响应中缺少data.document载荷时返回 (空记录, false)
func BuildRecord(root *extract.Value, pageURL string) (models.PageRecord, bool) {
	data, ok := root.Field("data")
	if !ok {
		return models.PageRecord{}, false
	}
	doc, ok := data.Field("document")
	if !ok || !doc.IsComposite() {
		return models.PageRecord{}, false
	}

	seen := extract.NewSeenSet()
	fragments := extract.Extract(doc, seen)

	record := models.PageRecord{
		URL:  pageURL,
		Text: extract.Join(fragments),
	}
	if title, ok := doc.Field("title"); ok && title.Kind == extract.KindString {
		record.Title = strings.TrimSpace(title.Str)
	}
	record.ApplyDefaults()

	return record, true
}
