package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
)

// StructuredMarkup 页面内嵌的全部机器可读标记
type StructuredMarkup struct {
	JSONLD       []map[string]interface{}
	OpenGraph    map[string]string
	Twitter      map[string]string
	Microdata    []models.MicrodataItem
	EmbeddedJSON []interface{} // script标签中的非标准JSON数据
}

// ExtractMarkup 提取页面中的全部结构化标记
// JSON-LD按对象展开(@graph数组拆平),OG/Twitter按前缀归类,
// microdata按itemscope容器归组;无法识别的JSON保留在EmbeddedJSON
func ExtractMarkup(doc *goquery.Document) *StructuredMarkup {
	markup := &StructuredMarkup{
		OpenGraph: make(map[string]string),
		Twitter:   make(map[string]string),
	}

	extractJSONLD(doc, markup)
	extractMetaCards(doc, markup)
	extractMicrodata(doc, markup)
	extractEmbeddedJSON(doc, markup)

	return markup
}

// extractJSONLD 解析script[type="application/ld+json"]块
// 顶层数组和@graph容器都拆平为独立对象;解析失败的块静默跳过
func extractJSONLD(doc *goquery.Document, markup *StructuredMarkup) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		var parsed interface{}
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return
		}

		for _, obj := range flattenJSONLD(parsed) {
			markup.JSONLD = append(markup.JSONLD, obj)
		}
	})
}

// flattenJSONLD 将JSON-LD值拆平为对象列表
func flattenJSONLD(value interface{}) []map[string]interface{} {
	var result []map[string]interface{}

	switch v := value.(type) {
	case map[string]interface{}:
		if graph, ok := v["@graph"].([]interface{}); ok {
			for _, item := range graph {
				if obj, ok := item.(map[string]interface{}); ok {
					result = append(result, obj)
				}
			}
			return result
		}
		result = append(result, v)
	case []interface{}:
		for _, item := range v {
			result = append(result, flattenJSONLD(item)...)
		}
	}

	return result
}

// extractMetaCards 提取Open Graph和Twitter Card键值
func extractMetaCards(doc *goquery.Document, markup *StructuredMarkup) {
	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		content, _ := sel.Attr("content")

		if prop, ok := sel.Attr("property"); ok && strings.HasPrefix(prop, "og:") {
			key := strings.TrimPrefix(prop, "og:")
			if key != "" {
				markup.OpenGraph[key] = content
			}
			return
		}

		if name, ok := sel.Attr("name"); ok && strings.HasPrefix(name, "twitter:") {
			key := strings.TrimPrefix(name, "twitter:")
			if key != "" {
				markup.Twitter[key] = content
			}
		}
	})
}

// extractMicrodata 提取HTML microdata(itemscope/itemtype/itemprop)
// 每个itemscope容器归为一个条目,属性值取content属性或文本
func extractMicrodata(doc *goquery.Document, markup *StructuredMarkup) {
	doc.Find("[itemscope]").Each(func(_ int, scope *goquery.Selection) {
		itemType, _ := scope.Attr("itemtype")

		item := models.MicrodataItem{
			Type:       itemType,
			Properties: make(map[string]string),
		}

		scope.Find("[itemprop]").Each(func(_ int, prop *goquery.Selection) {
			name, _ := prop.Attr("itemprop")
			if name == "" {
				return
			}

			// 嵌套itemscope的属性归属内层条目
			if _, nested := prop.Attr("itemscope"); nested {
				return
			}

			value, ok := prop.Attr("content")
			if !ok {
				if href, hasHref := prop.Attr("href"); hasHref {
					value = href
				} else {
					value = strings.TrimSpace(prop.Text())
				}
			}
			if value != "" {
				item.Properties[name] = value
			}
		})

		if len(item.Properties) > 0 || item.Type != "" {
			markup.Microdata = append(markup.Microdata, item)
		}
	})
}

// extractEmbeddedJSON 收集script标签中的JSON数据
// application/json类型直接解析;普通script只尝试以{或[开头的内容
func extractEmbeddedJSON(doc *goquery.Document, markup *StructuredMarkup) {
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		scriptType, _ := sel.Attr("type")
		if scriptType == "application/ld+json" {
			return
		}

		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		isJSONType := scriptType == "application/json"
		looksLikeJSON := strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[")
		if !isJSONType && !looksLikeJSON {
			return
		}

		var parsed interface{}
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return
		}
		markup.EmbeddedJSON = append(markup.EmbeddedJSON, parsed)
	})
}

// SchemaType 返回JSON-LD对象的@type(可能是字符串或数组)
func SchemaType(obj map[string]interface{}) string {
	switch t := obj["@type"].(type) {
	case string:
		return t
	case []interface{}:
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// stringField 安全读取JSON对象的字符串字段
func stringField(obj map[string]interface{}, key string) string {
	if v, ok := obj[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// nestedName 读取形如 {"name": "..."} 的嵌套字段,或字符串直接返回
func nestedName(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]interface{}:
		return stringField(v, "name")
	}
	return ""
}
