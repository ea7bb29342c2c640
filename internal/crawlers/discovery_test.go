package crawlers

import (
	"testing"

	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
)

func newTestDiscoverer(t *testing.T) *Discoverer {
	t.Helper()
	target, err := models.NewTarget("Acme", "acme.com")
	if err != nil {
		t.Fatalf("创建目标失败: %v", err)
	}
	return NewDiscoverer(nil, target)
}

func emptyDiscoveryResult() map[models.PageType]*DiscoveredPage {
	result := make(map[models.PageType]*DiscoveredPage, len(models.AllPageTypes))
	for _, pt := range models.AllPageTypes {
		result[pt] = &DiscoveredPage{Type: pt}
	}
	return result
}

// TestAnalyzeLinks 测试首页链接分析通道
func TestAnalyzeLinks(t *testing.T) {
	d := newTestDiscoverer(t)

	homepage := `<html><body>
		<nav>
			<a href="/about-us">About Us</a>
			<a href="/join-us">Careers</a>
			<a href="https://acme.com/platform">Platform</a>
			<a href="/get-in-touch">Get in Touch</a>
			<a href="https://twitter.com/acme">Twitter</a>
			<a href="#top">Back to top</a>
		</nav>
	</body></html>`

	result := emptyDiscoveryResult()
	d.analyzeLinks(homepage, result)

	tests := []struct {
		pt          models.PageType
		expectedURL string
	}{
		{models.PageTypeAbout, "https://acme.com/about-us"},
		{models.PageTypeCareers, "https://acme.com/join-us"},
		{models.PageTypeProduct, "https://acme.com/platform"},
		{models.PageTypeContact, "https://acme.com/get-in-touch"},
	}

	for _, tt := range tests {
		page := result[tt.pt]
		if !page.Found {
			t.Errorf("类型 %s 应该被链接分析发现", tt.pt)
			continue
		}
		if page.URL != tt.expectedURL {
			t.Errorf("类型 %s 的URL = %s, 期望 %s", tt.pt, page.URL, tt.expectedURL)
		}
		if page.Source != "link" {
			t.Errorf("类型 %s 的来源应为link, 得到 %s", tt.pt, page.Source)
		}
	}

	// 首页中没有对应链接的类型保持未发现
	if result[models.PageTypeInvestors].Found {
		t.Error("投资方类型不应被发现")
	}
	if result[models.PageTypePricing].Found {
		t.Error("定价类型不应被发现")
	}
}

// TestAnalyzeLinks_TextKeywordFallback 测试锚文本关键词匹配
func TestAnalyzeLinks_TextKeywordFallback(t *testing.T) {
	d := newTestDiscoverer(t)

	// href无特征,依靠锚文本归类
	homepage := `<html><body>
		<a href="/page-1024">Careers</a>
		<a href="/page-2048">Pricing</a>
	</body></html>`

	result := emptyDiscoveryResult()
	d.analyzeLinks(homepage, result)

	if !result[models.PageTypeCareers].Found {
		t.Error("应该通过锚文本'Careers'发现招聘页")
	}
	if result[models.PageTypeCareers].URL != "https://acme.com/page-1024" {
		t.Errorf("招聘页URL = %s", result[models.PageTypeCareers].URL)
	}
	if !result[models.PageTypePricing].Found {
		t.Error("应该通过锚文本'Pricing'发现定价页")
	}
}

// TestAnalyzeLinks_DoesNotOverridePattern 测试链接分析不覆盖模式探测结果
func TestAnalyzeLinks_DoesNotOverridePattern(t *testing.T) {
	d := newTestDiscoverer(t)

	result := emptyDiscoveryResult()
	result[models.PageTypeCareers].URL = "https://acme.com/careers"
	result[models.PageTypeCareers].Source = "pattern"
	result[models.PageTypeCareers].Found = true

	homepage := `<html><body><a href="/join-us">Join Us</a></body></html>`
	d.analyzeLinks(homepage, result)

	if result[models.PageTypeCareers].URL != "https://acme.com/careers" {
		t.Errorf("模式探测结果不应被链接分析覆盖, 得到: %s", result[models.PageTypeCareers].URL)
	}
	if result[models.PageTypeCareers].Source != "pattern" {
		t.Errorf("来源应保持pattern, 得到: %s", result[models.PageTypeCareers].Source)
	}
}

// TestAnalyzeLinks_CrossDomainIgnored 测试站外链接不参与归类
func TestAnalyzeLinks_CrossDomainIgnored(t *testing.T) {
	d := newTestDiscoverer(t)

	homepage := `<html><body>
		<a href="https://jobs.example-ats.com/acme">Careers</a>
	</body></html>`

	result := emptyDiscoveryResult()
	d.analyzeLinks(homepage, result)

	if result[models.PageTypeCareers].Found {
		t.Error("站外链接不应作为规范页面候选")
	}
}

// TestMatchesSignature 测试链接特征匹配规则
func TestMatchesSignature(t *testing.T) {
	sig := linkSignature{
		hrefKeywords: []string{"/career", "/job"},
		textKeywords: []string{"career", "join us"},
	}

	tests := []struct {
		name  string
		href  string
		text  string
		match bool
	}{
		{"href命中", "https://acme.com/careers", "", true},
		{"锚文本命中", "https://acme.com/page", "join us today", true},
		{"都不命中", "https://acme.com/about", "about", false},
		{"空锚文本只看href", "https://acme.com/about", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if matchesSignature(tt.href, tt.text, sig) != tt.match {
				t.Errorf("matchesSignature(%q, %q) = %v, 期望 %v", tt.href, tt.text, !tt.match, tt.match)
			}
		})
	}
}

// TestDefaultPagePatterns 测试路径模式表覆盖全部规范类型
func TestDefaultPagePatterns(t *testing.T) {
	for _, pt := range models.AllPageTypes {
		patterns, ok := DefaultPagePatterns[pt]
		if !ok || len(patterns) == 0 {
			t.Errorf("类型 %s 缺少路径模式", pt)
		}
	}

	// 除首页外每种类型都有链接特征
	for _, pt := range models.AllPageTypes {
		if pt == models.PageTypeHomepage {
			continue
		}
		if _, ok := linkSignatures[pt]; !ok {
			t.Errorf("类型 %s 缺少链接特征", pt)
		}
	}
}
