package extract

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestDiscoverFeedURLs 测试订阅源URL发现
func TestDiscoverFeedURLs(t *testing.T) {
	t.Run("link标签声明", func(t *testing.T) {
		html := `<html><head>
		<link rel="alternate" type="application/rss+xml" href="/feed.xml">
		<link rel="alternate" type="application/atom+xml" href="https://acme.com/atom.xml">
		<link rel="alternate" type="text/html" href="/mobile">
		</head></html>`

		feeds := DiscoverFeedURLs(html, "https://acme.com/")
		if len(feeds) != 2 {
			t.Fatalf("订阅源数 = %d, 期望 2", len(feeds))
		}
		if feeds[0] != "https://acme.com/feed.xml" {
			t.Errorf("首个订阅源 = %s", feeds[0])
		}
	})

	t.Run("锚链接探测", func(t *testing.T) {
		html := `<html><body>
		<a href="/blog/feed">Subscribe</a>
		<a href="/blog/post-1">A post</a>
		</body></html>`

		feeds := DiscoverFeedURLs(html, "https://acme.com/blog")
		if len(feeds) != 1 {
			t.Fatalf("订阅源数 = %d, 期望 1", len(feeds))
		}
		if feeds[0] != "https://acme.com/blog/feed" {
			t.Errorf("订阅源 = %s", feeds[0])
		}
	})

	t.Run("去重", func(t *testing.T) {
		html := `<html><head>
		<link rel="alternate" type="application/rss+xml" href="/rss">
		</head><body>
		<a href="/rss">RSS</a>
		</body></html>`

		feeds := DiscoverFeedURLs(html, "https://acme.com/")
		if len(feeds) != 1 {
			t.Errorf("相同订阅源应去重, 得到 %d", len(feeds))
		}
	})
}

// TestCandidateFeedURLs 测试常见订阅源路径列表
func TestCandidateFeedURLs(t *testing.T) {
	urls := CandidateFeedURLs("https://acme.com/")

	if len(urls) != len(CommonFeedPaths) {
		t.Fatalf("候选数 = %d, 期望 %d", len(urls), len(CommonFeedPaths))
	}
	for _, u := range urls {
		if strings.Contains(u, "//feed") || strings.Contains(u, ".com//") {
			t.Errorf("尾部斜杠未折叠: %s", u)
		}
		if !strings.HasPrefix(u, "https://acme.com/") {
			t.Errorf("候选URL应基于站点根: %s", u)
		}
	}
}

// TestExtractArticle_JSONLD 测试JSON-LD文章提取
func TestExtractArticle_JSONLD(t *testing.T) {
	html := `<html><head>
	<script type="application/ld+json">
	{"@type": "BlogPosting",
	 "headline": "Announcing Series B",
	 "author": {"@type": "Person", "name": "Jane Smith"},
	 "datePublished": "2026-05-01T09:00:00Z",
	 "dateModified": "2026-05-02T10:00:00Z",
	 "description": "We raised $40M.",
	 "image": {"@type": "ImageObject", "url": "https://acme.com/series-b.png"}}
	</script>
	</head><body>
	<article><p>Today we are announcing our Series B funding round led by Example Capital.</p></article>
	</body></html>`

	article, ok := ExtractArticle(html, "https://acme.com/blog/series-b")
	if !ok {
		t.Fatal("文章提取失败")
	}

	if article.Title != "Announcing Series B" {
		t.Errorf("标题 = %q", article.Title)
	}
	if article.Author != "Jane Smith" {
		t.Errorf("作者 = %q (应读取嵌套author.name)", article.Author)
	}
	if article.PublishedAt != "2026-05-01T09:00:00Z" {
		t.Errorf("发布时间 = %q", article.PublishedAt)
	}
	if article.ImageURL != "https://acme.com/series-b.png" {
		t.Errorf("图片 = %q (应读取ImageObject.url)", article.ImageURL)
	}
	if article.Source != "json_ld" {
		t.Errorf("来源 = %q", article.Source)
	}
	if !strings.Contains(article.Content, "Series B funding") {
		t.Errorf("正文 = %q", article.Content)
	}
	if article.WordCount == 0 {
		t.Error("词数不应为0")
	}
}

// TestExtractArticle_OpenGraphFallback 测试OG回退
func TestExtractArticle_OpenGraphFallback(t *testing.T) {
	html := `<html><head>
	<meta property="og:title" content="Product Update June">
	<meta property="og:description" content="New features this month.">
	<meta property="og:image" content="https://acme.com/update.png">
	</head><body><article><p>We shipped a lot of features.</p></article></body></html>`

	article, ok := ExtractArticle(html, "https://acme.com/blog/june-update")
	if !ok {
		t.Fatal("文章提取失败")
	}
	if article.Title != "Product Update June" {
		t.Errorf("标题 = %q", article.Title)
	}
	if article.Source != "open_graph" {
		t.Errorf("来源 = %q, 期望 open_graph", article.Source)
	}
	if article.Summary != "New features this month." {
		t.Errorf("摘要 = %q", article.Summary)
	}
}

// TestExtractArticle_MetaFallback 测试meta/title回退和日期回退
func TestExtractArticle_MetaFallback(t *testing.T) {
	html := `<html><head>
	<title>Plain Blog Post</title>
	<meta name="description" content="Just a post.">
	</head><body>
	<article>
		<time datetime="2026-03-15">March 15</time>
		<span class="author-name">John Doe</span>
		<p>Body text of the post goes here with enough words.</p>
	</article>
	</body></html>`

	article, ok := ExtractArticle(html, "https://acme.com/blog/plain")
	if !ok {
		t.Fatal("文章提取失败")
	}
	if article.Title != "Plain Blog Post" {
		t.Errorf("标题 = %q", article.Title)
	}
	if article.PublishedAt != "2026-03-15" {
		t.Errorf("发布时间 = %q (应读取time[datetime])", article.PublishedAt)
	}
	if article.Author != "John Doe" {
		t.Errorf("作者 = %q (应读取author类元素)", article.Author)
	}
	if article.Source != "html" {
		t.Errorf("来源 = %q", article.Source)
	}
}

// TestExtractArticle_URLOnly 测试无标题页面仍凭URL有效
func TestExtractArticle_URLOnly(t *testing.T) {
	article, ok := ExtractArticle("<html><body></body></html>", "https://acme.com/blog/x")
	if !ok {
		t.Error("有URL的文章应通过形状校验")
	}
	if article.URL != "https://acme.com/blog/x" {
		t.Errorf("URL = %q", article.URL)
	}
}

// TestNestedImageURL 测试image字段的三种形状
func TestNestedImageURL(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected string
	}{
		{"字符串", "https://acme.com/a.png", "https://acme.com/a.png"},
		{"数组取首个", []interface{}{"https://acme.com/b.png", "x"}, "https://acme.com/b.png"},
		{"ImageObject", map[string]interface{}{"url": "https://acme.com/c.png"}, "https://acme.com/c.png"},
		{"数组嵌套对象", []interface{}{map[string]interface{}{"url": "https://acme.com/d.png"}}, "https://acme.com/d.png"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nestedImageURL(tt.value); got != tt.expected {
				t.Errorf("nestedImageURL = %q, 期望 %q", got, tt.expected)
			}
		})
	}
}

// TestFetchArticles_EntryLimit 测试订阅源文章数量上限
func TestFetchArticles_EntryLimit(t *testing.T) {
	var rss strings.Builder
	rss.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	rss.WriteString(`<rss version="2.0"><channel><title>Acme Blog</title><link>https://acme.com/blog</link>`)
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&rss, `<item><title>Post %d</title><link>https://acme.com/blog/post-%d</link>`+
			`<pubDate>Thu, 01 Jan 2026 10:0%d:00 GMT</pubDate></item>`, i, i, i)
	}
	rss.WriteString(`</channel></rss>`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rss.String()))
	}))
	defer srv.Close()

	client := NewFeedClient(5 * time.Second)

	t.Run("上限截断", func(t *testing.T) {
		articles := client.FetchArticles(srv.URL, 3)
		if len(articles) != 3 {
			t.Fatalf("文章数 = %d, 期望 3 (上限截断)", len(articles))
		}
		for _, a := range articles {
			if a.PublishedAt == "" {
				t.Errorf("文章 [%s] 发布时间为空", a.Title)
			}
			if a.Source != "rss_feed" {
				t.Errorf("来源 = %q, 期望 rss_feed", a.Source)
			}
		}
	})

	t.Run("无上限返回全部", func(t *testing.T) {
		articles := client.FetchArticles(srv.URL, 0)
		if len(articles) != 5 {
			t.Errorf("文章数 = %d, 期望 5", len(articles))
		}
	})
}
