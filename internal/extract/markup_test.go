package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("解析HTML失败: %v", err)
	}
	return doc
}

// TestExtractMarkup_JSONLD 测试JSON-LD提取和拆平
func TestExtractMarkup_JSONLD(t *testing.T) {
	t.Run("单个对象", func(t *testing.T) {
		html := `<html><head><script type="application/ld+json">
		{"@type": "Organization", "name": "Acme"}
		</script></head></html>`

		markup := ExtractMarkup(parseDoc(t, html))
		if len(markup.JSONLD) != 1 {
			t.Fatalf("JSON-LD对象数 = %d, 期望 1", len(markup.JSONLD))
		}
		if SchemaType(markup.JSONLD[0]) != "Organization" {
			t.Errorf("@type = %s", SchemaType(markup.JSONLD[0]))
		}
	})

	t.Run("顶层数组拆平", func(t *testing.T) {
		html := `<html><head><script type="application/ld+json">
		[{"@type": "Organization", "name": "Acme"}, {"@type": "WebSite", "url": "https://acme.com"}]
		</script></head></html>`

		markup := ExtractMarkup(parseDoc(t, html))
		if len(markup.JSONLD) != 2 {
			t.Errorf("数组应拆平为2个对象, 得到 %d", len(markup.JSONLD))
		}
	})

	t.Run("graph容器拆平", func(t *testing.T) {
		html := `<html><head><script type="application/ld+json">
		{"@context": "https://schema.org", "@graph": [
			{"@type": "Organization", "name": "Acme"},
			{"@type": "JobPosting", "title": "Engineer"}
		]}
		</script></head></html>`

		markup := ExtractMarkup(parseDoc(t, html))
		if len(markup.JSONLD) != 2 {
			t.Fatalf("@graph应拆平为2个对象, 得到 %d", len(markup.JSONLD))
		}
		if SchemaType(markup.JSONLD[1]) != "JobPosting" {
			t.Errorf("第二个对象@type = %s", SchemaType(markup.JSONLD[1]))
		}
	})

	t.Run("无效JSON静默跳过", func(t *testing.T) {
		html := `<html><head>
		<script type="application/ld+json">{not valid json</script>
		<script type="application/ld+json">{"@type": "Organization"}</script>
		</head></html>`

		markup := ExtractMarkup(parseDoc(t, html))
		if len(markup.JSONLD) != 1 {
			t.Errorf("无效块应跳过, 有效块应保留, 得到 %d", len(markup.JSONLD))
		}
	})
}

// TestExtractMarkup_MetaCards 测试OG和Twitter Card提取
func TestExtractMarkup_MetaCards(t *testing.T) {
	html := `<html><head>
	<meta property="og:title" content="Acme Platform">
	<meta property="og:image" content="https://acme.com/og.png">
	<meta name="twitter:card" content="summary_large_image">
	<meta name="twitter:site" content="@acme">
	<meta name="description" content="not a card">
	</head></html>`

	markup := ExtractMarkup(parseDoc(t, html))

	if markup.OpenGraph["title"] != "Acme Platform" {
		t.Errorf("og:title = %q", markup.OpenGraph["title"])
	}
	if markup.OpenGraph["image"] != "https://acme.com/og.png" {
		t.Errorf("og:image = %q", markup.OpenGraph["image"])
	}
	if markup.Twitter["card"] != "summary_large_image" {
		t.Errorf("twitter:card = %q", markup.Twitter["card"])
	}
	if len(markup.OpenGraph) != 2 {
		t.Errorf("OG键数 = %d, 期望 2", len(markup.OpenGraph))
	}
}

// TestExtractMarkup_Microdata 测试microdata提取
func TestExtractMarkup_Microdata(t *testing.T) {
	html := `<html><body>
	<div itemscope itemtype="https://schema.org/Person">
		<span itemprop="name">Jane Smith</span>
		<span itemprop="jobTitle">CEO</span>
		<a itemprop="url" href="https://linkedin.com/in/jane">Profile</a>
	</div>
	</body></html>`

	markup := ExtractMarkup(parseDoc(t, html))

	if len(markup.Microdata) != 1 {
		t.Fatalf("microdata条目数 = %d, 期望 1", len(markup.Microdata))
	}
	item := markup.Microdata[0]
	if item.Type != "https://schema.org/Person" {
		t.Errorf("itemtype = %q", item.Type)
	}
	if item.Properties["name"] != "Jane Smith" {
		t.Errorf("name属性 = %q", item.Properties["name"])
	}
	if item.Properties["url"] != "https://linkedin.com/in/jane" {
		t.Errorf("url属性应取href, 得到 %q", item.Properties["url"])
	}
}

// TestExtractMarkup_EmbeddedJSON 测试内嵌JSON收集
func TestExtractMarkup_EmbeddedJSON(t *testing.T) {
	html := `<html><body>
	<script type="application/json">{"jobs": [{"title": "Engineer"}]}</script>
	<script>{"inline": true}</script>
	<script>var x = 1;</script>
	<script type="application/ld+json">{"@type": "Organization"}</script>
	</body></html>`

	markup := ExtractMarkup(parseDoc(t, html))

	// application/json和{开头的内容被收集,普通脚本和ld+json不算
	if len(markup.EmbeddedJSON) != 2 {
		t.Errorf("内嵌JSON数 = %d, 期望 2", len(markup.EmbeddedJSON))
	}
}

// TestSchemaType 测试@type读取(字符串和数组两种形状)
func TestSchemaType(t *testing.T) {
	tests := []struct {
		name     string
		obj      map[string]interface{}
		expected string
	}{
		{"字符串类型", map[string]interface{}{"@type": "JobPosting"}, "JobPosting"},
		{"数组类型取首个", map[string]interface{}{"@type": []interface{}{"Article", "NewsArticle"}}, "Article"},
		{"缺失类型", map[string]interface{}{"name": "x"}, ""},
		{"非字符串类型", map[string]interface{}{"@type": 42}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SchemaType(tt.obj); got != tt.expected {
				t.Errorf("SchemaType = %q, 期望 %q", got, tt.expected)
			}
		})
	}
}

// TestNestedName 测试嵌套name字段读取
func TestNestedName(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected string
	}{
		{"直接字符串", "Acme", "Acme"},
		{"嵌套对象", map[string]interface{}{"name": "San Francisco"}, "San Francisco"},
		{"nil值", nil, ""},
		{"数字", 42, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nestedName(tt.value); got != tt.expected {
				t.Errorf("nestedName = %q, 期望 %q", got, tt.expected)
			}
		})
	}
}
