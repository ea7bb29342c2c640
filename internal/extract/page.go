package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
)

// minParagraphLength 段落文本的最小长度,过滤导航碎片
const minParagraphLength = 10

// linkCategories 链接启发式分类的href关键词表
// 顺序即优先级,首个命中的类别胜出
var linkCategories = []struct {
	category string
	keywords []string
}{
	{"careers", []string{"/career", "/job", "/join"}},
	{"about", []string{"/about", "/company"}},
	{"blog", []string{"/blog", "/news", "/post"}},
	{"team", []string{"/team", "/leadership"}},
	{"product", []string{"/product", "/platform"}},
	{"pricing", []string{"/pricing", "/plans"}},
	{"contact", []string{"/contact"}},
}

// logoKeywords 图片logo判定关键词(匹配alt文本和class)
var logoKeywords = []string{"logo", "brand", "company"}

// ExtractPage 从HTML提取规范化的页面主体
// HTML加基础URL的纯函数,不产生网络访问;
// 解析失败返回错误,内容为空不算错误(由错误页检测标注)
func ExtractPage(html string, pageURL string) (*models.PageBody, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("解析基础URL失败: %w", err)
	}

	body := &models.PageBody{}

	extractMetadata(doc, body)

	markup := ExtractMarkup(doc)
	body.JSONLD = markup.JSONLD
	body.OpenGraph = markup.OpenGraph
	body.Twitter = markup.Twitter
	body.Microdata = markup.Microdata

	extractLinks(doc, base, body)
	extractImages(doc, base, body)
	extractForms(doc, body)
	extractTables(doc, body)
	extractTextContent(doc, body)

	body.WordCount = len(strings.Fields(body.FullText))
	body.ErrorSignature = DetectPageError(html, body.FullText)

	return body, nil
}

// extractMetadata 提取文档元数据
// title/description/canonical/language走专用字段,其余meta进ExtraMeta袋
func extractMetadata(doc *goquery.Document, body *models.PageBody) {
	body.Title = strings.TrimSpace(doc.Find("title").First().Text())

	if lang, ok := doc.Find("html").Attr("lang"); ok {
		body.Language = lang
	}

	if canonical, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		body.Canonical = canonical
	}

	extra := make(map[string]string)
	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		if name == "" {
			name, _ = sel.Attr("property")
		}
		if name == "" {
			name, _ = sel.Attr("http-equiv")
		}
		if name == "" {
			return
		}

		content, _ := sel.Attr("content")

		switch strings.ToLower(name) {
		case "description":
			body.Description = content
		default:
			// OG/Twitter已由标记提取器归类,避免重复
			if strings.HasPrefix(name, "og:") || strings.HasPrefix(name, "twitter:") {
				return
			}
			extra[name] = content
		}
	})

	if len(extra) > 0 {
		body.ExtraMeta = extra
	}
}

// extractLinks 提取链接清单,标注内外域和启发式分类
func extractLinks(doc *goquery.Document, base *url.URL, body *models.PageBody) {
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}

		internal := strings.EqualFold(abs.Hostname(), base.Hostname())
		link := models.LinkInfo{
			URL:      abs.String(),
			Text:     strings.TrimSpace(sel.Text()),
			Internal: internal,
			Category: categorizeLink(strings.ToLower(href)),
		}

		body.Links = append(body.Links, link)
		if internal {
			body.InternalLinks++
		} else {
			body.ExternalLinks++
		}
	})
}

// categorizeLink 按href关键词归类链接
func categorizeLink(hrefLower string) string {
	for _, entry := range linkCategories {
		for _, kw := range entry.keywords {
			if strings.Contains(hrefLower, kw) {
				return entry.category
			}
		}
	}
	return "other"
}

// extractImages 提取图片清单,含logo启发式判定
// 懒加载图片的data-src/data-lazy-src也接受为来源
func extractImages(doc *goquery.Document, base *url.URL, body *models.PageBody) {
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		if src == "" {
			src, _ = sel.Attr("data-src")
		}
		if src == "" {
			src, _ = sel.Attr("data-lazy-src")
		}
		if src == "" {
			return
		}

		ref, err := url.Parse(src)
		if err != nil {
			return
		}

		alt, _ := sel.Attr("alt")
		class, _ := sel.Attr("class")

		hint := strings.ToLower(alt + " " + class)
		isLogo := false
		for _, kw := range logoKeywords {
			if strings.Contains(hint, kw) {
				isLogo = true
				break
			}
		}

		body.Images = append(body.Images, models.ImageInfo{
			URL:    base.ResolveReference(ref).String(),
			Alt:    strings.TrimSpace(alt),
			IsLogo: isLogo,
		})
	})
}

// extractForms 提取表单清单及字段名列表
func extractForms(doc *goquery.Document, body *models.PageBody) {
	doc.Find("form").Each(func(_ int, form *goquery.Selection) {
		action, _ := form.Attr("action")
		method, _ := form.Attr("method")
		if method == "" {
			method = "GET"
		}

		info := models.FormInfo{
			Action: action,
			Method: strings.ToUpper(method),
		}

		form.Find("input, textarea, select").Each(func(_ int, field *goquery.Selection) {
			name, _ := field.Attr("name")
			if name == "" {
				name, _ = field.Attr("id")
			}
			if name != "" {
				info.Fields = append(info.Fields, name)
			}
		})

		body.Forms = append(body.Forms, info)
	})
}

// extractTables 提取表格清单(表头+行数)
// 表头优先取thead,缺失时取首行;无数据行的表格跳过
func extractTables(doc *goquery.Document, body *models.PageBody) {
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		info := models.TableInfo{}

		headerRow := table.Find("thead tr").First()
		hasThead := headerRow.Length() > 0
		if !hasThead {
			headerRow = table.Find("tr").First()
		}
		headerRow.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			info.Headers = append(info.Headers, strings.TrimSpace(cell.Text()))
		})

		rows := table.Find("tbody tr")
		if rows.Length() == 0 {
			rows = table.Find("tr")
		}
		rowCount := rows.Length()
		// 首行被用作表头时不计入数据行
		if !hasThead && rowCount > 0 && len(info.Headers) > 0 {
			rowCount--
		}
		info.Rows = rowCount

		if info.Rows > 0 {
			body.Tables = append(body.Tables, info)
		}
	})
}

// extractTextContent 提取层次化文本和扁平全文
func extractTextContent(doc *goquery.Document, body *models.PageBody) {
	for level := 1; level <= 6; level++ {
		doc.Find(fmt.Sprintf("h%d", level)).Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if text != "" {
				body.Headings = append(body.Headings, models.Heading{Level: level, Text: text})
			}
		})
	}

	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) > minParagraphLength {
			body.Paragraphs = append(body.Paragraphs, text)
		}
	})

	doc.Find("ul li, ol li").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			body.ListItems = append(body.ListItems, text)
		}
	})

	doc.Find("blockquote").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			body.Quotes = append(body.Quotes, text)
		}
	})

	body.FullText = flattenText(doc)
}

// flattenText 去除script/style/nav/footer后的正文全文
func flattenText(doc *goquery.Document) string {
	cloned := doc.Selection.Find("body").Clone()
	if cloned.Length() == 0 {
		cloned = doc.Selection.Clone()
	}
	cloned.Find("script, style, noscript, nav, footer, header").Remove()

	text := cloned.Text()
	// 折叠连续空白
	fields := strings.Fields(text)
	return strings.Join(fields, " ")
}
