package extract

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
	"github.com/RecoveryAshes/CompanyCrawl/internal/utils"
	"github.com/mmcdole/gofeed"
)

// CommonFeedPaths RSS/Atom订阅源的常见路径
// link标签未声明订阅源时逐一探测
var CommonFeedPaths = []string{
	"/feed", "/feed.xml", "/rss", "/rss.xml", "/atom.xml",
	"/blog/feed", "/news/feed", "/feed.rss",
}

// articleContentSelectors 文章正文的常见容器选择器
var articleContentSelectors = []string{
	".post-content", ".article-content", ".entry-content",
	".blog-content", ".news-content", "main", ".content",
}

// articleSchemaTypes JSON-LD文章类型
var articleSchemaTypes = map[string]bool{
	"Article":     true,
	"BlogPosting": true,
	"NewsArticle": true,
}

// DiscoverFeedURLs 从页面HTML发现订阅源URL
// 来源: link[rel=alternate]声明 + 指向常见订阅源路径的链接
func DiscoverFeedURLs(html string, pageURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var feeds []string
	seen := make(map[string]bool)
	add := func(feedURL string) {
		if feedURL != "" && !seen[feedURL] {
			seen[feedURL] = true
			feeds = append(feeds, feedURL)
		}
	}

	doc.Find(`link[rel="alternate"]`).Each(func(_ int, sel *goquery.Selection) {
		feedType, _ := sel.Attr("type")
		if !strings.Contains(feedType, "rss") && !strings.Contains(feedType, "atom") &&
			!strings.Contains(feedType, "xml") {
			return
		}
		if href, ok := sel.Attr("href"); ok {
			add(resolveHref(base, href))
		}
	})

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		hrefLower := strings.ToLower(href)
		for _, path := range CommonFeedPaths {
			if strings.HasSuffix(hrefLower, path) {
				add(resolveHref(base, href))
				return
			}
		}
	})

	return feeds
}

// CandidateFeedURLs 基于站点根URL的常见订阅源探测列表
func CandidateFeedURLs(baseURL string) []string {
	base := strings.TrimSuffix(baseURL, "/")
	urls := make([]string, 0, len(CommonFeedPaths))
	for _, path := range CommonFeedPaths {
		urls = append(urls, base+path)
	}
	return urls
}

// FeedClient RSS/Atom订阅源客户端
type FeedClient struct {
	parser *gofeed.Parser
}

// NewFeedClient 创建订阅源客户端
func NewFeedClient(timeout time.Duration) *FeedClient {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
	}
	parser.UserAgent = "Mozilla/5.0"
	return &FeedClient{parser: parser}
}

// FetchArticles 抓取并解析订阅源,最多返回limit条文章
// 解析失败返回空列表,由调用方回退到页面级文章提取
func (f *FeedClient) FetchArticles(feedURL string, limit int) []models.NewsArticle {
	feed, err := f.parser.ParseURL(feedURL)
	if err != nil {
		utils.Debugf("订阅源解析失败 [%s]: %v", feedURL, err)
		return nil
	}

	var articles []models.NewsArticle
	for _, item := range feed.Items {
		if limit > 0 && len(articles) >= limit {
			break
		}

		article := models.NewsArticle{
			Title:      strings.TrimSpace(item.Title),
			URL:        strings.TrimSpace(item.Link),
			Summary:    strings.TrimSpace(item.Description),
			Categories: item.Categories,
			Source:     "rss_feed",
		}
		if item.Author != nil {
			article.Author = item.Author.Name
		}
		if item.PublishedParsed != nil {
			article.PublishedAt = item.PublishedParsed.Format(time.RFC3339)
		} else {
			article.PublishedAt = item.Published
		}
		if item.UpdatedParsed != nil {
			article.UpdatedAt = item.UpdatedParsed.Format(time.RFC3339)
		}
		if item.Image != nil {
			article.ImageURL = item.Image.URL
		}

		if article.IsValid() {
			articles = append(articles, article)
		}
	}

	utils.Debugf("订阅源 [%s] 返回 %d 篇文章", feedURL, len(articles))
	return articles
}

// ExtractArticle 从单个页面提取一篇文章(订阅源不可用时的回退)
// 字段来源顺序: JSON-LD Article > Open Graph > meta标签 > HTML正文启发式
func ExtractArticle(html string, pageURL string) (models.NewsArticle, bool) {
	article := models.NewsArticle{URL: pageURL, Source: "html"}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return article, false
	}

	markup := ExtractMarkup(doc)

	// 1. JSON-LD文章对象
	for _, obj := range markup.JSONLD {
		if !articleSchemaTypes[SchemaType(obj)] {
			continue
		}
		article.Source = "json_ld"
		article.Title = stringField(obj, "headline")
		if article.Title == "" {
			article.Title = stringField(obj, "name")
		}
		article.Author = nestedName(obj["author"])
		article.PublishedAt = stringField(obj, "datePublished")
		article.UpdatedAt = stringField(obj, "dateModified")
		article.Summary = stringField(obj, "description")
		article.ImageURL = nestedImageURL(obj["image"])
		break
	}

	// 2. Open Graph回退
	if article.Title == "" {
		if title := markup.OpenGraph["title"]; title != "" {
			article.Title = title
			article.Source = "open_graph"
		}
	}
	if article.Summary == "" {
		article.Summary = markup.OpenGraph["description"]
	}
	if article.ImageURL == "" {
		article.ImageURL = markup.OpenGraph["image"]
	}

	// 3. meta标签回退
	if article.Title == "" {
		article.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if article.Summary == "" {
		article.Summary, _ = doc.Find(`meta[name="description"]`).Attr("content")
	}

	// 4. 正文: article标签优先,其次常见容器选择器
	article.Content = extractArticleContent(doc)
	article.WordCount = len(strings.Fields(article.Content))

	// 5. 作者回退
	if article.Author == "" {
		for _, sel := range []string{`[rel="author"]`, ".author", `[class*="author"]`} {
			if elem := doc.Find(sel).First(); elem.Length() > 0 {
				article.Author = strings.TrimSpace(elem.Text())
				break
			}
		}
	}

	// 6. 日期回退
	if article.PublishedAt == "" {
		if dt, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
			article.PublishedAt = dt
		} else if content, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok {
			article.PublishedAt = content
		}
	}

	// 7. 分类链接
	doc.Find(`a[href*="/category/"]`).Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			article.Categories = append(article.Categories, text)
		}
	})

	return article, article.IsValid()
}

// extractArticleContent 提取文章正文文本
func extractArticleContent(doc *goquery.Document) string {
	container := doc.Find("article").First()
	if container.Length() == 0 {
		for _, sel := range articleContentSelectors {
			if elem := doc.Find(sel).First(); elem.Length() > 0 {
				container = elem
				break
			}
		}
	}
	if container.Length() == 0 {
		return ""
	}

	cloned := container.Clone()
	cloned.Find("script, style, nav, footer, header").Remove()
	return strings.Join(strings.Fields(cloned.Text()), " ")
}

// nestedImageURL 读取JSON-LD的image字段(字符串/数组/ImageObject)
func nestedImageURL(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []interface{}:
		if len(v) > 0 {
			return nestedImageURL(v[0])
		}
	case map[string]interface{}:
		return stringField(v, "url")
	}
	return ""
}
