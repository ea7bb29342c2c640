package models

import (
	"net"
	"net/url"
	"strings"
	"time"
)

// PageType 页面类型
// 公司官网的12种规范页面类型,发现阶段为每种类型解析一个URL
type PageType string

const (
	PageTypeHomepage  PageType = "homepage"  // 首页
	PageTypeAbout     PageType = "about"     // 关于我们
	PageTypeProduct   PageType = "product"   // 产品
	PageTypeCareers   PageType = "careers"   // 招聘
	PageTypeBlog      PageType = "blog"      // 博客/新闻
	PageTypeTeam      PageType = "team"      // 团队
	PageTypeInvestors PageType = "investors" // 投资方
	PageTypeCustomers PageType = "customers" // 客户
	PageTypePress     PageType = "press"     // 媒体报道
	PageTypePricing   PageType = "pricing"   // 定价
	PageTypePartners  PageType = "partners"  // 合作伙伴
	PageTypeContact   PageType = "contact"   // 联系方式

	// PageTypeOther 非规范页面(爬取过程中发现的普通链接)
	PageTypeOther PageType = "other"
)

// AllPageTypes 12种规范页面类型(固定顺序,结果映射必须覆盖全部)
var AllPageTypes = []PageType{
	PageTypeHomepage,
	PageTypeAbout,
	PageTypeProduct,
	PageTypeCareers,
	PageTypeBlog,
	PageTypeTeam,
	PageTypeInvestors,
	PageTypeCustomers,
	PageTypePress,
	PageTypePricing,
	PageTypePartners,
	PageTypeContact,
}

// Priority 任务优先级
// 调度顺序: 职位/新闻类URL > 12种规范页面 > 普通同域链接
type Priority int

const (
	PriorityEntity    Priority = 0 // 职位/文章类URL,最先处理
	PriorityCanonical Priority = 1 // 规范页面类型
	PriorityLink      Priority = 2 // 爬取中发现的普通链接
)

// StatusClass 抓取结果分类
type StatusClass string

const (
	StatusOK           StatusClass = "ok"            // 抓取成功
	StatusNotFound     StatusClass = "not_found"     // 404
	StatusHTTPError    StatusClass = "http_error"    // 其他4xx/5xx
	StatusBlocked      StatusClass = "blocked"       // 反爬拦截(403/429)
	StatusNetworkError StatusClass = "network_error" // 超时/连接失败
	StatusRenderError  StatusClass = "render_error"  // 浏览器渲染失败
	StatusContentError StatusClass = "content_error" // 页面加载但内容为错误页
)

// PageTask 待抓取任务
// 由发现阶段或爬取中的链接提取创建,被调度器消费恰好一次
type PageTask struct {
	URL           string   `json:"url"`
	NormalizedURL string   `json:"normalized_url"` // 去重键(见NormalizeURL)
	Type          PageType `json:"type"`
	Priority      Priority `json:"priority"`
	Depth         int      `json:"depth"`
	Attempts      int      `json:"attempts"`
}

// PageRecord 单个URL的抓取结果,创建后不可变
// 每种规范页面类型在一次会话中至多一条规范记录
type PageRecord struct {
	URL         string      `json:"url"`
	Type        PageType    `json:"type"`
	Found       bool        `json:"found"`
	StatusCode  int         `json:"status_code"`
	StatusClass StatusClass `json:"status_class"`
	Hash        string      `json:"hash"` // 原始字节的SHA-256
	HTML        string      `json:"-"`    // 原始HTML(报告中不序列化)
	Rendered    bool        `json:"rendered"`
	Body        *PageBody   `json:"body,omitempty"`
	FailureNote string      `json:"failure_note,omitempty"`
	FetchedAt   time.Time   `json:"fetched_at"`
}

// PageBody 内容提取器产出的结构化页面主体
type PageBody struct {
	// 文档元数据
	Title       string `json:"title"`
	Description string `json:"description"`
	Canonical   string `json:"canonical,omitempty"`
	Language    string `json:"language,omitempty"`

	// 结构化标记
	JSONLD    []map[string]interface{} `json:"json_ld,omitempty"`
	OpenGraph map[string]string        `json:"open_graph,omitempty"`
	Twitter   map[string]string        `json:"twitter,omitempty"`
	Microdata []MicrodataItem          `json:"microdata,omitempty"`
	// 未识别的meta标记,保留避免信息丢失
	ExtraMeta map[string]string `json:"extra_meta,omitempty"`

	// 清单
	Links  []LinkInfo  `json:"links,omitempty"`
	Images []ImageInfo `json:"images,omitempty"`
	Forms  []FormInfo  `json:"forms,omitempty"`
	Tables []TableInfo `json:"tables,omitempty"`

	// 层次化文本
	Headings   []Heading `json:"headings,omitempty"`
	Paragraphs []string  `json:"paragraphs,omitempty"`
	ListItems  []string  `json:"list_items,omitempty"`
	Quotes     []string  `json:"quotes,omitempty"`
	FullText   string    `json:"full_text,omitempty"`

	// 统计
	WordCount     int `json:"word_count"`
	InternalLinks int `json:"internal_links"`
	ExternalLinks int `json:"external_links"`

	// 错误页检测结果(空表示正常页面)
	ErrorSignature string `json:"error_signature,omitempty"`
}

// MicrodataItem HTML microdata条目(itemscope/itemtype/itemprop)
type MicrodataItem struct {
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
}

// LinkInfo 链接清单条目
type LinkInfo struct {
	URL      string `json:"url"`
	Text     string `json:"text"`
	Internal bool   `json:"internal"`
	Category string `json:"category,omitempty"` // careers-like, blog-like等启发式分类
}

// ImageInfo 图片清单条目
type ImageInfo struct {
	URL    string `json:"url"`
	Alt    string `json:"alt,omitempty"`
	IsLogo bool   `json:"is_logo"`
}

// FormInfo 表单清单条目
type FormInfo struct {
	Action string   `json:"action,omitempty"`
	Method string   `json:"method,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// TableInfo 表格清单条目
type TableInfo struct {
	Headers []string `json:"headers,omitempty"`
	Rows    int      `json:"rows"`
}

// Heading 标题条目
type Heading struct {
	Level int    `json:"level"` // 1-6
	Text  string `json:"text"`
}

// NormalizeURL 规范化URL作为去重键
// 规则: 协议和主机转小写、去除fragment、去除默认端口、折叠尾部斜杠
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Fragment = ""

	host := strings.ToLower(parsed.Host)
	// 去除默认端口
	if parsed.Scheme == "http" {
		host = strings.TrimSuffix(host, ":80")
	} else if parsed.Scheme == "https" {
		host = strings.TrimSuffix(host, ":443")
	}
	parsed.Host = host

	// 折叠尾部斜杠(根路径归一为空路径)
	if parsed.Path == "/" {
		parsed.Path = ""
	} else {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	return parsed.String()
}

// SameDomain 判断URL是否属于目标域名(含www前缀互换)
func SameDomain(rawURL string, domain string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	domain = strings.ToLower(domain)
	// 目标域名可能带端口(内网/测试环境),仅比较主机名
	if h, _, err := net.SplitHostPort(domain); err == nil {
		domain = h
	}
	return host == domain ||
		host == "www."+domain ||
		"www."+host == domain
}
