package models

import "encoding/json"

// Resolution 单个规范页面类型的解析结果
// 发现阶段为12种类型各生成一条,未解析出URL的类型保留显式缺失标记
type Resolution struct {
	URL         string      `json:"url,omitempty"`
	Found       bool        `json:"found"`
	Attempted   bool        `json:"attempted"` // 是否实际发起过抓取
	StatusClass StatusClass `json:"status_class,omitempty"`
	Note        string      `json:"note,omitempty"` // 未找到/失败原因
}

// CrawlResult 会话最终输出
// 包含全部页面记录、去重后的实体列表和完整的类型解析映射
type CrawlResult struct {
	Session    CrawlSessionInfo        `json:"session"`
	Resolution map[PageType]Resolution `json:"resolution"` // 恒为12项
	Pages      []*PageRecord           `json:"pages"`
	Jobs       []JobPosting            `json:"jobs"`
	Articles   []NewsArticle           `json:"articles"`

	// 按页面类型归类的结构化提取结果
	Team      []TeamMember     `json:"team,omitempty"`
	Funding   []FundingMention `json:"funding,omitempty"`
	Customers []CompanyRef     `json:"customers,omitempty"`
	Partners  []CompanyRef     `json:"partners,omitempty"`
	Pricing   *PricingInfo     `json:"pricing,omitempty"`
	Press     []PressRelease   `json:"press,omitempty"`

	Stats SessionStats `json:"stats"`
}

// NewCrawlResult 创建结果容器,解析映射预填12项显式缺失
func NewCrawlResult(session CrawlSessionInfo) *CrawlResult {
	resolution := make(map[PageType]Resolution, len(AllPageTypes))
	for _, pt := range AllPageTypes {
		resolution[pt] = Resolution{Found: false, Attempted: false}
	}
	return &CrawlResult{
		Session:    session,
		Resolution: resolution,
		Pages:      make([]*PageRecord, 0),
		Jobs:       make([]JobPosting, 0),
		Articles:   make([]NewsArticle, 0),
	}
}

// ToJSON 序列化为JSON
func (r *CrawlResult) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *CrawlResult) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
