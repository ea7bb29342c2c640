package extract

import (
	"testing"

	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
)

// TestExtractTeam 测试团队成员提取
func TestExtractTeam(t *testing.T) {
	html := `<html><body>
	<div class="team-member">
		<img src="/img/jane.jpg">
		<h3 class="member-name">Jane Smith</h3>
		<p class="member-role">CEO &amp; Co-founder</p>
		<a href="https://linkedin.com/in/janesmith">LinkedIn</a>
	</div>
	<div class="team-member">
		<h3 class="member-name">John Doe</h3>
		<p class="member-role">CTO</p>
	</div>
	<div class="team-member">
		<h3 class="member-name">San Francisco Office</h3>
		<p class="member-role">Location</p>
	</div>
	</body></html>`

	members := ExtractTeam(html, "https://acme.com/team")

	if len(members) != 2 {
		t.Fatalf("成员数 = %d, 期望 2 (办公地点应被过滤)", len(members))
	}

	jane := members[0]
	if jane.Name != "Jane Smith" {
		t.Errorf("姓名 = %q", jane.Name)
	}
	if jane.Role != "CEO & Co-founder" {
		t.Errorf("职位 = %q", jane.Role)
	}
	if jane.ProfileURL != "https://linkedin.com/in/janesmith" {
		t.Errorf("个人链接 = %q", jane.ProfileURL)
	}
	if jane.ImageURL != "https://acme.com/img/jane.jpg" {
		t.Errorf("头像 = %q (相对路径应解析)", jane.ImageURL)
	}
}

// TestExtractTeam_SingleCardIgnored 测试孤立卡片不产出成员
func TestExtractTeam_SingleCardIgnored(t *testing.T) {
	html := `<html><body>
	<div class="team-member"><h3>Jane Smith</h3></div>
	</body></html>`

	members := ExtractTeam(html, "https://acme.com/team")
	if len(members) != 0 {
		t.Errorf("单个卡片多为误报, 不应产出成员, 得到 %d", len(members))
	}
}

// TestIsValidTeamMember 测试人名形状校验
func TestIsValidTeamMember(t *testing.T) {
	tests := []struct {
		name   string
		person string
		role   string
		valid  bool
	}{
		{"正常人名", "Jane Smith", "CEO", true},
		{"三词人名", "Mary Jane Watson", "Designer", true},
		{"单词", "Jane", "", false},
		{"过多词", "One Two Three Four Five", "", false},
		{"小写开头", "jane smith", "", false},
		{"办公地点误报", "London Office", "", false},
		{"福利误报", "Jane Smith", "Unlimited PTO", false},
		{"过短", "A B", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidTeamMember(tt.person, tt.role); got != tt.valid {
				t.Errorf("isValidTeamMember(%q, %q) = %v, 期望 %v", tt.person, tt.role, got, tt.valid)
			}
		})
	}
}

// TestExtractFunding 测试融资信息提取
func TestExtractFunding(t *testing.T) {
	t.Run("融资轮次和金额", func(t *testing.T) {
		html := `<html><body>
		<p>Acme raised $40 million in its Series B round in 2026.</p>
		</body></html>`

		mentions := ExtractFunding(html)
		if len(mentions) == 0 {
			t.Fatal("应提取到融资提及")
		}

		foundRound := false
		for _, m := range mentions {
			if m.Round == "series b" {
				foundRound = true
			}
		}
		if !foundRound {
			t.Errorf("应识别出series b轮次, 提及 = %+v", mentions)
		}
	})

	t.Run("投资方名单", func(t *testing.T) {
		html := `<html><body>
		<ul class="investor-list">
			<li>Example Capital</li>
			<li>Demo Ventures</li>
		</ul>
		</body></html>`

		mentions := ExtractFunding(html)
		var investors []string
		for _, m := range mentions {
			investors = append(investors, m.Investors...)
		}
		if len(investors) != 2 {
			t.Errorf("投资方数 = %d, 期望 2", len(investors))
		}
	})

	t.Run("无融资内容", func(t *testing.T) {
		html := `<html><body><p>We build developer tools.</p></body></html>`
		if mentions := ExtractFunding(html); len(mentions) != 0 {
			t.Errorf("无融资内容不应产出提及, 得到 %d", len(mentions))
		}
	})
}

// TestExtractPricing 测试定价模式分类和档位提取
func TestExtractPricing(t *testing.T) {
	t.Run("按席位定价", func(t *testing.T) {
		html := `<html><body>
		<div class="pricing-card"><h3>Starter</h3><p>$10 per seat per month</p></div>
		<div class="pricing-card"><h3>Pro</h3><p>$49 per seat per month</p></div>
		</body></html>`

		info := ExtractPricing(html)
		if info.Model != models.PricingSeatBased {
			t.Errorf("模式 = %s, 期望 seat_based", info.Model)
		}
		if len(info.Tiers) != 2 {
			t.Fatalf("档位数 = %d, 期望 2", len(info.Tiers))
		}
		if info.Tiers[0].Name != "Starter" || info.Tiers[0].Price != "$10" {
			t.Errorf("首个档位 = %+v", info.Tiers[0])
		}
	})

	t.Run("按用量定价", func(t *testing.T) {
		html := `<html><body><p>Pay as you go. Only pay for what you use.</p></body></html>`
		info := ExtractPricing(html)
		if info.Model != models.PricingUsageBased {
			t.Errorf("模式 = %s, 期望 usage_based", info.Model)
		}
	})

	t.Run("企业定制", func(t *testing.T) {
		html := `<html><body><p>Enterprise plans available. Contact sales for a quote.</p></body></html>`
		info := ExtractPricing(html)
		if info.Model != models.PricingEnterprise {
			t.Errorf("模式 = %s, 期望 enterprise", info.Model)
		}
	})

	t.Run("标题兜底档位", func(t *testing.T) {
		html := `<html><body>
		<h2>Free</h2><h2>Premium</h2>
		</body></html>`
		info := ExtractPricing(html)
		if len(info.Tiers) != 2 {
			t.Errorf("标题兜底档位数 = %d, 期望 2", len(info.Tiers))
		}
	})

	t.Run("无定价信息", func(t *testing.T) {
		html := `<html><body><p>Hello.</p></body></html>`
		info := ExtractPricing(html)
		if info.Model != models.PricingUnknown {
			t.Errorf("模式 = %s, 期望 unknown", info.Model)
		}
	})
}

// TestExtractCompanyRefs 测试客户/合作伙伴名单提取
func TestExtractCompanyRefs(t *testing.T) {
	t.Run("logo墙alt文本", func(t *testing.T) {
		html := `<html><body>
		<img src="/logos/a.png" alt="Initech logo">
		<img src="/logos/b.png" alt="Globex">
		<img src="/logos/c.png" alt="logo">
		</body></html>`

		refs := ExtractCustomers(html)
		names := make(map[string]string)
		for _, r := range refs {
			names[r.Name] = r.Source
		}
		if names["Initech"] != "logo_alt" {
			t.Errorf("应从alt提取Initech并剥离logo字样, 得到 %+v", refs)
		}
		if names["Globex"] != "logo_alt" {
			t.Error("应从alt提取Globex")
		}
		if _, ok := names["logo"]; ok {
			t.Error("纯logo字样不应作为公司名")
		}
	})

	t.Run("专属容器列表", func(t *testing.T) {
		html := `<html><body>
		<ul class="customer-logos">
			<li>Initech</li>
			<li>Globex</li>
		</ul>
		</body></html>`

		refs := ExtractCustomers(html)
		if len(refs) != 2 {
			t.Fatalf("客户数 = %d, 期望 2", len(refs))
		}
		if refs[0].Source != "container" {
			t.Errorf("来源 = %q, 期望 container", refs[0].Source)
		}
	})

	t.Run("合作伙伴容器关键词", func(t *testing.T) {
		html := `<html><body>
		<div class="partner-grid"><a>Initech</a><a>Globex</a></div>
		<div class="customer-grid"><a>NotAPartner</a></div>
		</body></html>`

		refs := ExtractPartners(html)
		for _, r := range refs {
			if r.Name == "NotAPartner" {
				t.Error("customer容器不应出现在合作伙伴名单")
			}
		}
		if len(refs) != 2 {
			t.Errorf("合作伙伴数 = %d, 期望 2", len(refs))
		}
	})

	t.Run("去重", func(t *testing.T) {
		html := `<html><body>
		<img alt="Initech logo">
		<ul class="customer-list"><li>Initech</li></ul>
		</body></html>`

		refs := ExtractCustomers(html)
		if len(refs) != 1 {
			t.Errorf("重复公司名应去重, 得到 %d", len(refs))
		}
	})
}

// TestExtractPress 测试新闻稿列表提取
func TestExtractPress(t *testing.T) {
	html := `<html><body>
	<div class="press-release">
		<h3><a href="/press/series-b">Acme Raises Series B</a></h3>
		<time datetime="2026-05-01">May 1, 2026</time>
	</div>
	<div class="press-release">
		<h3><a href="/press/launch">Acme Launches Platform</a></h3>
		<span class="date">March 12, 2026</span>
	</div>
	</body></html>`

	releases := ExtractPress(html, "https://acme.com/press")

	if len(releases) != 2 {
		t.Fatalf("新闻稿数 = %d, 期望 2", len(releases))
	}
	if releases[0].Title != "Acme Raises Series B" {
		t.Errorf("标题 = %q", releases[0].Title)
	}
	if releases[0].Date != "2026-05-01" {
		t.Errorf("日期 = %q (应优先datetime属性)", releases[0].Date)
	}
	if releases[1].Date != "March 12, 2026" {
		t.Errorf("日期 = %q (应回退到文本)", releases[1].Date)
	}
}

// TestCapitalize 测试档位名首字母大写
func TestCapitalize(t *testing.T) {
	tests := []struct {
		in  string
		out string
	}{
		{"free", "Free"},
		{"pro", "Pro"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := capitalize(tt.in); got != tt.out {
			t.Errorf("capitalize(%q) = %q, 期望 %q", tt.in, got, tt.out)
		}
	}
}
