package models

// 缺省字段值
// 当API响应中对应字段缺失时使用
const (
	DefaultTitle = "Untitled"
	DefaultURL   = "No URL available"
	DefaultText  = "No content available"
)

// PageRecord 单个页面的采集记录
// 每个命中内部API的页面响应产生一条记录,先以独立JSON文件落盘,
// 爬取结束后由writer统一打包
type PageRecord struct {
	Title string `json:"title"` // 页面标题(来自API载荷)
	URL   string `json:"url"`   // 页面URL
	Text  string `json:"text"`  // 提取的文本片段,以空行分隔
}

// ApplyDefaults 填充缺失字段的缺省值
func (r *PageRecord) ApplyDefaults() {
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	if r.URL == "" {
		r.URL = DefaultURL
	}
	if r.Text == "" {
		r.Text = DefaultText
	}
}
