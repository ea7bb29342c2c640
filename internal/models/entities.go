package models

import "strings"

// JobPosting 职位信息
// 自然键: (小写标题, URL),用于跨来源去重
type JobPosting struct {
	Title       string `json:"title"`
	Location    string `json:"location,omitempty"`
	Department  string `json:"department,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Source      string `json:"source"` // ats_api, json_ld, embedded_json, html, link
}

// DedupeKey 返回职位去重键
func (j JobPosting) DedupeKey() string {
	return strings.ToLower(strings.TrimSpace(j.Title)) + "|" + j.URL
}

// IsValid 职位形状校验,不合格的条目在装配阶段丢弃
func (j JobPosting) IsValid() bool {
	title := strings.TrimSpace(j.Title)
	return title != "" && len(title) <= 200
}

// NewsArticle 新闻/博客文章
// 自然键: URL,缺失时回退为小写标题
type NewsArticle struct {
	Title       string   `json:"title"`
	URL         string   `json:"url,omitempty"`
	Author      string   `json:"author,omitempty"`
	PublishedAt string   `json:"published_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Content     string   `json:"content,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Source      string   `json:"source"` // rss_feed, json_ld, open_graph, html
	WordCount   int      `json:"word_count,omitempty"`
}

// DedupeKey 返回文章去重键
func (a NewsArticle) DedupeKey() string {
	if a.URL != "" {
		return a.URL
	}
	return strings.ToLower(strings.TrimSpace(a.Title))
}

// IsValid 文章形状校验
func (a NewsArticle) IsValid() bool {
	return strings.TrimSpace(a.Title) != "" || a.URL != ""
}

// TeamMember 团队成员
type TeamMember struct {
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	Bio        string `json:"bio,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"` // LinkedIn等个人链接
	ImageURL   string `json:"image_url,omitempty"`
}

// FundingMention 融资/投资方信息
type FundingMention struct {
	Round     string   `json:"round,omitempty"`  // seed, series a等
	Amount    string   `json:"amount,omitempty"` // 原文金额表述
	Investors []string `json:"investors,omitempty"`
	Context   string   `json:"context,omitempty"` // 提及融资的原文片段
}

// PricingTier 定价档位
type PricingTier struct {
	Name  string `json:"name"`
	Price string `json:"price,omitempty"` // 原文价格表述
}

// PricingModel 定价模式分类
type PricingModel string

const (
	PricingSeatBased  PricingModel = "seat_based"  // 按席位
	PricingUsageBased PricingModel = "usage_based" // 按用量
	PricingEnterprise PricingModel = "enterprise"  // 企业定制
	PricingUnknown    PricingModel = "unknown"
)

// PricingInfo 定价页提取结果
type PricingInfo struct {
	Model PricingModel  `json:"model"`
	Tiers []PricingTier `json:"tiers,omitempty"`
}

// PressRelease 媒体报道/新闻稿
type PressRelease struct {
	Title string `json:"title"`
	Date  string `json:"date,omitempty"`
	URL   string `json:"url,omitempty"`
}

// CompanyRef 客户/合作伙伴引用(通常来自logo墙)
type CompanyRef struct {
	Name   string `json:"name"`
	Source string `json:"source"` // logo_alt, container
}
