package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
)

// maxTeamMembers 单页团队成员提取上限
const maxTeamMembers = 30

// maxSectionItems 客户/合作伙伴/新闻稿类列表的提取上限
const maxSectionItems = 50

// teamCardSelectors 团队成员卡片的常见选择器
var teamCardSelectors = []string{
	".team-member", ".person", ".employee", ".leadership-member",
	`[class*="team"]`, `[class*="member"]`, `[class*="person"]`,
}

// teamExcludeKeywords 团队成员的排除关键词(办公地点/福利等误报)
var teamExcludeKeywords = []string{
	"office", "location", "benefits", "pto", "perks", "roles", "open roles",
	"unlimited", "comprehensive", "medical", "dental", "vision", "insurance",
	"stipend", "about us", "for business", "marketing", "engineering office",
}

// pricingTierNames 定价档位的常见名称
var pricingTierNames = []string{
	"free", "starter", "basic", "pro", "professional",
	"business", "enterprise", "premium", "plus", "team",
}

var (
	fundingRoundPattern  = regexp.MustCompile(`(?i)(seed|series [a-z]|series \d+)\s+round`)
	fundingAmountPattern = regexp.MustCompile(`(?i)raised\s+\$?[\d.]+\s*(million|billion|m|b)`)
	fundingInPattern     = regexp.MustCompile(`(?i)\$?[\d.]+\s*(million|billion|m|b)\s+in\s+funding`)
	pricePattern         = regexp.MustCompile(`\$\s*\d+(?:,\d{3})*(?:\.\d{2})?`)
)

// ExtractTeam 从团队页提取成员列表
// 姓名校验: 2-4个词、首词大写、不含排除关键词,过滤办公地点和福利误报
func ExtractTeam(html string, pageURL string) []models.TeamMember {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	base, _ := url.Parse(pageURL)
	var members []models.TeamMember
	seen := make(map[string]bool)

	for _, selector := range teamCardSelectors {
		cards := doc.Find(selector)
		// 单个命中多为误报,成员卡片应成组出现
		if cards.Length() < 2 {
			continue
		}

		cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
			if len(members) >= maxTeamMembers {
				return false
			}

			member := teamMemberFromCard(card, base)
			if member.Name == "" || !isValidTeamMember(member.Name, member.Role) {
				return true
			}

			key := strings.ToLower(member.Name)
			if seen[key] {
				return true
			}
			seen[key] = true
			members = append(members, member)
			return true
		})

		if len(members) > 0 {
			break
		}
	}

	return members
}

// teamMemberFromCard 从成员卡片提取字段
func teamMemberFromCard(card *goquery.Selection, base *url.URL) models.TeamMember {
	member := models.TeamMember{}

	// 姓名: name类选择器优先,其次标题标签
	nameElem := card.Find(`[class*="name"]`).First()
	if nameElem.Length() == 0 {
		nameElem = card.Find("h2, h3, h4, strong").First()
	}
	member.Name = strings.TrimSpace(nameElem.Text())

	// 职位: role/title类选择器,缺失时取首个短p标签
	for _, sel := range []string{`[class*="role"]`, `[class*="title"]`, `[class*="position"]`} {
		if elem := card.Find(sel).First(); elem.Length() > 0 {
			text := strings.TrimSpace(elem.Text())
			if text != "" && text != member.Name {
				member.Role = text
				break
			}
		}
	}
	if member.Role == "" {
		firstP := strings.TrimSpace(card.Find("p").First().Text())
		if firstP != "" && len(firstP) < 150 && !strings.HasPrefix(strings.ToLower(firstP), "http") {
			member.Role = firstP
		}
	}

	// 个人链接(LinkedIn等)
	card.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		if strings.Contains(strings.ToLower(href), "linkedin.com") {
			member.ProfileURL = href
			return false
		}
		return true
	})

	if img := card.Find("img[src]").First(); img.Length() > 0 && base != nil {
		if src, ok := img.Attr("src"); ok {
			member.ImageURL = resolveHref(base, src)
		}
	}

	return member
}

// isValidTeamMember 人名形状校验
func isValidTeamMember(name string, role string) bool {
	if len(name) < 3 || !strings.Contains(name, " ") {
		return false
	}

	nameLower := strings.ToLower(name)
	roleLower := strings.ToLower(role)
	for _, kw := range teamExcludeKeywords {
		if strings.Contains(nameLower, kw) || (role != "" && strings.Contains(roleLower, kw)) {
			return false
		}
	}

	words := strings.Fields(name)
	if len(words) < 2 || len(words) > 4 {
		return false
	}

	// 首词必须大写开头(人名模式)
	first := []rune(words[0])
	if len(first) == 0 || !(first[0] >= 'A' && first[0] <= 'Z') {
		return false
	}

	return true
}

// ExtractFunding 从投资方页提取融资信息
// 正文的融资轮次/金额表述 + investor/backer容器中的投资方名单
func ExtractFunding(html string) []models.FundingMention {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	text := doc.Text()
	var mentions []models.FundingMention

	for _, pattern := range []*regexp.Regexp{fundingRoundPattern, fundingAmountPattern, fundingInPattern} {
		for _, match := range pattern.FindAllString(text, -1) {
			mention := models.FundingMention{Context: strings.TrimSpace(match)}
			if round := fundingRoundPattern.FindStringSubmatch(match); round != nil {
				mention.Round = strings.ToLower(round[1])
			}
			if amount := pricePattern.FindString(match); amount != "" {
				mention.Amount = amount
			} else if strings.Contains(strings.ToLower(match), "million") ||
				strings.Contains(strings.ToLower(match), "billion") {
				mention.Amount = strings.TrimSpace(match)
			}
			mentions = append(mentions, mention)
		}
	}

	// 投资方名单
	var investors []string
	doc.Find(`ul[class*="investor"], div[class*="investor"], ul[class*="backer"], div[class*="backer"]`).
		Each(func(_ int, container *goquery.Selection) {
			container.Find("li, div").Each(func(_ int, item *goquery.Selection) {
				name := strings.TrimSpace(item.Text())
				if name != "" && len(name) < 100 {
					investors = append(investors, name)
				}
			})
		})
	if len(investors) > 0 {
		mentions = append(mentions, models.FundingMention{Investors: investors})
	}

	return mentions
}

// ExtractPricing 从定价页提取定价模式和档位
func ExtractPricing(html string) models.PricingInfo {
	info := models.PricingInfo{Model: models.PricingUnknown}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return info
	}

	textLower := strings.ToLower(doc.Text())

	switch {
	case strings.Contains(textLower, "per seat") || strings.Contains(textLower, "per user"):
		info.Model = models.PricingSeatBased
	case strings.Contains(textLower, "usage-based") || strings.Contains(textLower, "pay as you go"):
		info.Model = models.PricingUsageBased
	case strings.Contains(textLower, "enterprise") && strings.Contains(textLower, "contact"):
		info.Model = models.PricingEnterprise
	}

	seen := make(map[string]bool)

	// 定价卡片中找档位名和价格
	doc.Find(`div[class*="price"], section[class*="price"], div[class*="tier"], div[class*="plan"]`).
		Each(func(_ int, card *goquery.Selection) {
			cardText := card.Text()
			cardLower := strings.ToLower(cardText)
			for _, tier := range pricingTierNames {
				if !strings.Contains(cardLower, tier) || seen[tier] {
					continue
				}
				seen[tier] = true
				info.Tiers = append(info.Tiers, models.PricingTier{
					Name:  capitalize(tier),
					Price: pricePattern.FindString(cardText),
				})
				break
			}
		})

	// 卡片未命中时从标题兜底
	if len(info.Tiers) == 0 {
		doc.Find("h2, h3, h4").Each(func(_ int, heading *goquery.Selection) {
			headingLower := strings.ToLower(heading.Text())
			for _, tier := range pricingTierNames {
				if strings.Contains(headingLower, tier) && !seen[tier] {
					seen[tier] = true
					info.Tiers = append(info.Tiers, models.PricingTier{Name: capitalize(tier)})
					break
				}
			}
		})
	}

	return info
}

// capitalize 首字母大写(档位名展示用)
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ExtractCompanyRefs 从客户/合作伙伴页提取公司名单
// 来源: logo墙的alt文本 + 专属容器中的列表项
func ExtractCompanyRefs(html string, containerKeywords []string) []models.CompanyRef {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var refs []models.CompanyRef
	seen := make(map[string]bool)
	add := func(name string, source string) {
		name = strings.TrimSpace(name)
		if name == "" || len(name) >= 100 {
			return
		}
		key := strings.ToLower(name)
		if seen[key] || len(refs) >= maxSectionItems {
			return
		}
		seen[key] = true
		refs = append(refs, models.CompanyRef{Name: name, Source: source})
	}

	doc.Find("img[alt]").Each(func(_ int, img *goquery.Selection) {
		alt, _ := img.Attr("alt")
		// alt就是"logo"字样的不是公司名
		if strings.Contains(strings.ToLower(alt), "logo") {
			alt = strings.TrimSpace(regexp.MustCompile(`(?i)\s*logo\s*`).ReplaceAllString(alt, " "))
		}
		add(alt, "logo_alt")
	})

	for _, kw := range containerKeywords {
		doc.Find(`ul[class*="`+kw+`"], div[class*="`+kw+`"]`).Each(func(_ int, container *goquery.Selection) {
			container.Find("li, a").Each(func(_ int, item *goquery.Selection) {
				add(item.Text(), "container")
			})
		})
	}

	return refs
}

// ExtractCustomers 客户页解析
func ExtractCustomers(html string) []models.CompanyRef {
	return ExtractCompanyRefs(html, []string{"customer", "client"})
}

// ExtractPartners 合作伙伴页解析
func ExtractPartners(html string) []models.CompanyRef {
	return ExtractCompanyRefs(html, []string{"partner", "integration"})
}

// ExtractPress 从媒体页提取新闻稿列表
func ExtractPress(html string, pageURL string) []models.PressRelease {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	base, _ := url.Parse(pageURL)
	var releases []models.PressRelease

	for _, selector := range []string{
		".press-release", ".news-item", ".article",
		`[class*="press"]`, `[class*="release"]`,
	} {
		doc.Find(selector).EachWithBreak(func(_ int, item *goquery.Selection) bool {
			if len(releases) >= 20 {
				return false
			}

			release := models.PressRelease{}

			titleElem := item.Find("h2, h3, h4, a").First()
			release.Title = strings.TrimSpace(titleElem.Text())
			if href, ok := titleElem.Attr("href"); ok && base != nil {
				release.URL = resolveHref(base, href)
			}

			if dateElem := item.Find(`time, span[class*="date"]`).First(); dateElem.Length() > 0 {
				if dt, ok := dateElem.Attr("datetime"); ok {
					release.Date = dt
				} else {
					release.Date = strings.TrimSpace(dateElem.Text())
				}
			}

			if release.Title != "" {
				releases = append(releases, release)
			}
			return true
		})

		if len(releases) > 0 {
			break
		}
	}

	return releases
}
