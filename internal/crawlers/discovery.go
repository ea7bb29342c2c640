package crawlers

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
	"github.com/RecoveryAshes/CompanyCrawl/internal/utils"
)

// DefaultPagePatterns 各规范页面类型的常见路径模式
// 发现阶段按顺序逐一探测,首个返回200的路径胜出
var DefaultPagePatterns = map[models.PageType][]string{
	models.PageTypeHomepage:  {"/"},
	models.PageTypeAbout:     {"/about", "/company", "/about-us", "/who-we-are", "/our-story"},
	models.PageTypeProduct:   {"/product", "/products", "/platform", "/solutions", "/features"},
	models.PageTypeCareers:   {"/careers", "/jobs", "/join-us", "/work-with-us"},
	models.PageTypeBlog:      {"/blog", "/news", "/press", "/newsroom", "/insights", "/resources"},
	models.PageTypeTeam:      {"/team", "/leadership", "/about/team", "/about/leadership", "/people", "/our-team"},
	models.PageTypeInvestors: {"/investors", "/funding", "/about/investors", "/backed-by", "/backers"},
	models.PageTypeCustomers: {"/customers", "/case-studies", "/success-stories", "/testimonials", "/customer-stories"},
	models.PageTypePress:     {"/press", "/newsroom", "/media", "/news-and-press", "/press-releases"},
	models.PageTypePricing:   {"/pricing", "/plans", "/price", "/buy", "/purchase"},
	models.PageTypePartners:  {"/partners", "/integrations", "/ecosystem", "/partner", "/integration"},
	models.PageTypeContact:   {"/contact", "/contact-us", "/get-in-touch", "/reach-us"},
}

// linkSignature 链接分析的类型特征: href子串 + 锚文本关键词
type linkSignature struct {
	hrefKeywords []string
	textKeywords []string
}

// linkSignatures 首页链接分析的各类型特征表
// 模式探测未命中的类型,回退到首页链接的href/锚文本匹配
var linkSignatures = map[models.PageType]linkSignature{
	models.PageTypeAbout: {
		hrefKeywords: []string{"/about", "/company", "/who-we-are", "/our-story"},
		textKeywords: []string{"about", "company", "who we are", "our story"},
	},
	models.PageTypeProduct: {
		hrefKeywords: []string{"/product", "/platform", "/solution", "/feature"},
		textKeywords: []string{"product", "platform", "solution", "features"},
	},
	models.PageTypeCareers: {
		hrefKeywords: []string{"/career", "/job", "/join", "/work-with"},
		textKeywords: []string{"career", "jobs", "join us", "work with"},
	},
	models.PageTypeBlog: {
		hrefKeywords: []string{"/blog", "/insight", "/resource"},
		textKeywords: []string{"blog", "insights", "resources"},
	},
	models.PageTypeTeam: {
		hrefKeywords: []string{"/team", "/leadership", "/people", "/our-team"},
		textKeywords: []string{"team", "leadership", "people", "our team"},
	},
	models.PageTypeInvestors: {
		hrefKeywords: []string{"/investor", "/funding", "/backed-by", "/backer"},
		textKeywords: []string{"investors", "funding", "backed by", "backers"},
	},
	models.PageTypeCustomers: {
		hrefKeywords: []string{"/customer", "/case-stud", "/success-stor", "/testimonial"},
		textKeywords: []string{"customers", "case studies", "success stories", "testimonials"},
	},
	models.PageTypePress: {
		hrefKeywords: []string{"/press", "/newsroom", "/media", "/news-and-press"},
		textKeywords: []string{"press", "newsroom", "media", "news"},
	},
	models.PageTypePricing: {
		hrefKeywords: []string{"/pricing", "/plans", "/price", "/buy"},
		textKeywords: []string{"pricing", "plans", "price", "buy"},
	},
	models.PageTypePartners: {
		hrefKeywords: []string{"/partner", "/integration", "/ecosystem"},
		textKeywords: []string{"partners", "integrations", "ecosystem"},
	},
	models.PageTypeContact: {
		hrefKeywords: []string{"/contact", "/get-in-touch", "/reach-us"},
		textKeywords: []string{"contact", "get in touch", "reach us"},
	},
}

// DiscoveredPage 发现阶段的单个类型结果
type DiscoveredPage struct {
	Type   models.PageType `json:"page_type"`
	URL    string          `json:"url"`
	Source string          `json:"source"` // pattern / link
	Found  bool            `json:"found"`
}

// Discoverer 规范页面发现器
// 两条通道: 路径模式HEAD探测(主) + 首页链接分析(补)。
// 探测命中的结果优先于链接分析,同一类型不会被链接分析覆盖。
type Discoverer struct {
	fetcher *Fetcher
	target  models.Target
}

// NewDiscoverer 创建页面发现器
func NewDiscoverer(fetcher *Fetcher, target models.Target) *Discoverer {
	return &Discoverer{
		fetcher: fetcher,
		target:  target,
	}
}

// Discover 发现目标站点的全部规范页面
// homepageHTML为已抓取的首页内容,避免重复请求;
// 返回的映射对全部12种类型都有条目,未找到的条目Found=false
func (d *Discoverer) Discover(homepageHTML string) map[models.PageType]*DiscoveredPage {
	result := make(map[models.PageType]*DiscoveredPage, len(models.AllPageTypes))
	for _, pt := range models.AllPageTypes {
		result[pt] = &DiscoveredPage{Type: pt}
	}

	// 首页始终存在(会话入口已抓取成功才会走到这里)
	result[models.PageTypeHomepage].URL = d.target.BaseURL()
	result[models.PageTypeHomepage].Source = "pattern"
	result[models.PageTypeHomepage].Found = true

	// 通道一: 路径模式探测
	d.probePatterns(result)

	// 通道二: 首页链接分析,只补充探测未命中的类型
	d.analyzeLinks(homepageHTML, result)

	found := 0
	for _, page := range result {
		if page.Found {
			found++
		}
	}
	utils.Infof("🔍 页面发现完成: %d/%d 种类型", found, len(models.AllPageTypes))

	return result
}

// probePatterns 对每种类型的路径模式逐一发送HEAD探测
// 首个200响应胜出,记录重定向后的最终URL
func (d *Discoverer) probePatterns(result map[models.PageType]*DiscoveredPage) {
	base := d.target.BaseURL()

	for _, pt := range models.AllPageTypes {
		if pt == models.PageTypeHomepage {
			continue
		}

		for _, pattern := range DefaultPagePatterns[pt] {
			probeURL := base + pattern
			finalURL, ok := d.fetcher.Probe(probeURL)
			if !ok {
				continue
			}

			// 重定向可能落到站外,丢弃跨域结果
			if !models.SameDomain(finalURL, d.target.Domain) {
				utils.Debugf("探测重定向至站外 [%s -> %s],忽略", probeURL, finalURL)
				continue
			}

			result[pt].URL = finalURL
			result[pt].Source = "pattern"
			result[pt].Found = true
			utils.Debugf("模式探测命中 [%s]: %s", pt, finalURL)
			break
		}
	}
}

// analyzeLinks 解析首页链接,按href子串和锚文本关键词归类
// 只填充模式探测未命中的类型;每种类型取首个匹配的链接
func (d *Discoverer) analyzeLinks(homepageHTML string, result map[models.PageType]*DiscoveredPage) {
	if homepageHTML == "" {
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(homepageHTML))
	if err != nil {
		utils.Warnf("解析首页HTML失败: %v", err)
		return
	}

	baseURL, err := url.Parse(d.target.BaseURL())
	if err != nil {
		return
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		resolved := resolveLink(baseURL, href)
		if resolved == "" || !models.SameDomain(resolved, d.target.Domain) {
			return
		}

		hrefLower := strings.ToLower(resolved)
		textLower := strings.ToLower(strings.TrimSpace(sel.Text()))

		for pt, sig := range linkSignatures {
			if result[pt].Found {
				continue
			}
			if matchesSignature(hrefLower, textLower, sig) {
				result[pt].URL = resolved
				result[pt].Source = "link"
				result[pt].Found = true
				utils.Debugf("链接分析命中 [%s]: %s", pt, resolved)
			}
		}
	})
}

// matchesSignature 检查链接是否符合某类型的特征
func matchesSignature(hrefLower string, textLower string, sig linkSignature) bool {
	for _, kw := range sig.hrefKeywords {
		if strings.Contains(hrefLower, kw) {
			return true
		}
	}
	if textLower == "" {
		return false
	}
	for _, kw := range sig.textKeywords {
		if strings.Contains(textLower, kw) {
			return true
		}
	}
	return false
}

// resolveLink 将相对链接解析为绝对URL
func resolveLink(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}
