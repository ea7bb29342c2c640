package models

import (
	"fmt"
	"strings"
	"time"
)

// Target 爬取目标(公司标识),会话生命周期内不可变
type Target struct {
	Name   string `json:"name"`   // 公司名称
	Domain string `json:"domain"` // 基础域名(不含协议)
}

// NewTarget 创建爬取目标
// 接受裸域名或完整URL,统一归一为裸域名
func NewTarget(name string, domain string) (Target, error) {
	domain = strings.TrimSpace(strings.ToLower(domain))
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimSuffix(domain, "/")

	if domain == "" {
		return Target{}, fmt.Errorf("目标域名不能为空")
	}
	if strings.ContainsAny(domain, " \t") {
		return Target{}, fmt.Errorf("目标域名包含非法字符: %s", domain)
	}
	if name == "" {
		name = domain
	}

	return Target{Name: name, Domain: domain}, nil
}

// BaseURL 返回目标的基础URL
func (t Target) BaseURL() string {
	return "https://" + t.Domain
}

// SessionConfig 单次爬取会话配置
type SessionConfig struct {
	PageBudget      int  `json:"page_budget" mapstructure:"page_budget"`           // 单会话最大抓取页面数 (默认:30)
	RequestInterval int  `json:"request_interval" mapstructure:"request_interval"` // 同域请求最小间隔(秒) (默认:2)
	RequestTimeout  int  `json:"request_timeout" mapstructure:"request_timeout"`   // 直接HTTP请求超时(秒) (默认:10)
	RenderTimeout   int  `json:"render_timeout" mapstructure:"render_timeout"`     // 浏览器渲染超时(秒) (默认:15)
	MaxRetries      int  `json:"max_retries" mapstructure:"max_retries"`           // 网络错误重试次数 (默认:3)
	ForceRender     bool `json:"force_render" mapstructure:"force_render"`         // 强制浏览器渲染
	IncludeFeeds    bool `json:"include_feeds" mapstructure:"include_feeds"`       // 启用RSS/Atom文章发现 (默认:true)
	ArticleLimit    int  `json:"article_limit" mapstructure:"article_limit"`       // Feed文章数量上限 (默认:25)
	RespectRobots   bool `json:"respect_robots" mapstructure:"respect_robots"`     // 遵守robots.txt (默认:false)
	Headless        bool `json:"headless" mapstructure:"headless"`                 // 无头浏览器模式 (默认:true)
}

// Validate 验证会话配置
func (c *SessionConfig) Validate() error {
	if c.PageBudget < 1 || c.PageBudget > 500 {
		return fmt.Errorf("页面预算必须在1-500之间")
	}
	if c.RequestInterval < 0 || c.RequestInterval > 60 {
		return fmt.Errorf("请求间隔必须在0-60秒之间")
	}
	if c.RequestTimeout < 1 || c.RequestTimeout > 120 {
		return fmt.Errorf("请求超时必须在1-120秒之间")
	}
	if c.RenderTimeout < 1 || c.RenderTimeout > 300 {
		return fmt.Errorf("渲染超时必须在1-300秒之间")
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("重试次数必须在0-10之间")
	}
	if c.ArticleLimit < 1 || c.ArticleLimit > 100 {
		return fmt.Errorf("文章数量上限必须在1-100之间")
	}
	return nil
}

// DefaultSessionConfig 默认会话配置
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		PageBudget:      30,
		RequestInterval: 2,
		RequestTimeout:  10,
		RenderTimeout:   15,
		MaxRetries:      3,
		ForceRender:     false,
		IncludeFeeds:    true,
		ArticleLimit:    25,
		RespectRobots:   false,
		Headless:        true,
	}
}

// SessionState 会话状态机状态
type SessionState string

const (
	SessionIdle        SessionState = "idle"        // 初始状态
	SessionDiscovering SessionState = "discovering" // 页面发现中
	SessionCrawling    SessionState = "crawling"    // 爬取中
	SessionDone        SessionState = "done"        // 已完成
)

// SessionStats 会话统计
type SessionStats struct {
	AttemptedPages int     `json:"attempted_pages"` // 尝试抓取的页面数
	SucceededPages int     `json:"succeeded_pages"` // 成功页面数
	FailedPages    int     `json:"failed_pages"`    // 失败页面数
	RenderedPages  int     `json:"rendered_pages"`  // 走浏览器渲染的页面数
	NotFoundTypes  int     `json:"not_found_types"` // 未解析出URL的规范类型数
	TotalJobs      int     `json:"total_jobs"`      // 去重后职位数
	TotalArticles  int     `json:"total_articles"`  // 去重后文章数
	Duration       float64 `json:"duration"`        // 总耗时(秒)
}

// CrawlSessionInfo 会话基本信息(用于报告)
type CrawlSessionInfo struct {
	ID          string        `json:"id"` // 会话唯一ID (UUID)
	Target      Target        `json:"target"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	State       SessionState  `json:"state"`
	Config      SessionConfig `json:"config"`
}

// NewCrawlSessionInfo 创建会话信息
func NewCrawlSessionInfo(target Target, config SessionConfig) (*CrawlSessionInfo, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &CrawlSessionInfo{
		ID:        generateID(),
		Target:    target,
		CreatedAt: time.Now(),
		State:     SessionIdle,
		Config:    config,
	}, nil
}
