package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
)

// maxJSONWalkDepth 嵌入式JSON职位搜索的递归深度上限
// 防御构造出的病态嵌套导致无界递归
const maxJSONWalkDepth = 10

// jobCardSelectors 职位卡片的常见CSS选择器
var jobCardSelectors = []string{
	".job-listing", ".job-card", ".job-item", ".position",
	".opening", ".careers-item", ".job-post", ".job-opening",
	"[data-job]", "[data-position]",
	`li[class*="job"]`, `div[class*="job"]`, `article[class*="job"]`,
}

// jobLinkKeywords 职位详情页URL特征
var jobLinkKeywords = []string{"/job/", "/position/", "/opening/", "/career/", "/role/"}

// jobTitleKeywords 锚文本疑似职位标题的关键词
var jobTitleKeywords = []string{
	"engineer", "manager", "developer", "analyst", "designer",
	"scientist", "director", "lead", "senior", "junior",
}

// jobTableHeaders 职位表格的表头特征
var jobTableHeaders = []string{"title", "position", "role", "location", "department"}

// ExtractJobs 从招聘页HTML提取职位列表(通用回退链)
// 来源顺序: JSON-LD JobPosting > 嵌入式JSON > HTML职位卡片 > 表格 > 职位链接;
// 同一职位可能被多条来源命中,去重交给装配阶段
func ExtractJobs(html string, pageURL string) []models.JobPosting {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	markup := ExtractMarkup(doc)
	var jobs []models.JobPosting

	jobs = append(jobs, jobsFromJSONLD(markup, pageURL)...)
	jobs = append(jobs, jobsFromEmbeddedJSON(markup)...)

	htmlJobs := jobsFromCards(doc, base)
	jobs = append(jobs, htmlJobs...)
	jobs = append(jobs, jobsFromTables(doc, base, pageURL)...)

	// 前面的通道全部落空时,才用链接启发式兜底
	if len(jobs) == 0 {
		jobs = jobsFromLinks(doc, base)
	}

	return jobs
}

// jobsFromJSONLD 提取JSON-LD JobPosting条目
func jobsFromJSONLD(markup *StructuredMarkup, pageURL string) []models.JobPosting {
	var jobs []models.JobPosting

	for _, obj := range markup.JSONLD {
		if SchemaType(obj) != "JobPosting" {
			continue
		}

		job := models.JobPosting{
			Title:       stringField(obj, "title"),
			Description: stringField(obj, "description"),
			Location:    nestedName(obj["jobLocation"]),
			URL:         stringField(obj, "url"),
			Source:      "json_ld",
		}
		if job.URL == "" {
			job.URL = pageURL
		}
		jobs = append(jobs, job)
	}

	return jobs
}

// jobsFromEmbeddedJSON 在嵌入式JSON数据中递归搜索职位对象
func jobsFromEmbeddedJSON(markup *StructuredMarkup) []models.JobPosting {
	var jobs []models.JobPosting
	for _, data := range markup.EmbeddedJSON {
		walkForJobs(data, 0, &jobs)
	}
	return jobs
}

// walkForJobs 有界深度的JSON树遍历,识别三种职位对象形状
// 形状1: title+location(通用), 形状2: absolute_url+title(Greenhouse),
// 形状3: text+hostedUrl(Lever)
func walkForJobs(data interface{}, depth int, jobs *[]models.JobPosting) {
	if depth > maxJSONWalkDepth {
		return
	}

	switch v := data.(type) {
	case map[string]interface{}:
		if job, ok := jobFromObject(v); ok {
			*jobs = append(*jobs, job)
		}
		for _, value := range v {
			walkForJobs(value, depth+1, jobs)
		}
	case []interface{}:
		for _, item := range v {
			walkForJobs(item, depth+1, jobs)
		}
	}
}

// jobFromObject 尝试把JSON对象识别为职位
func jobFromObject(obj map[string]interface{}) (models.JobPosting, bool) {
	title := stringField(obj, "title")

	// 通用形状: title + location/jobLocation
	if title != "" {
		location := stringField(obj, "location")
		if location == "" {
			location = nestedName(obj["jobLocation"])
		}
		if location != "" || obj["location"] != nil {
			if location == "" {
				location = nestedName(obj["location"])
			}
			jobURL := stringField(obj, "url")
			if jobURL == "" {
				jobURL = stringField(obj, "absolute_url")
			}
			return models.JobPosting{
				Title:       title,
				Location:    location,
				Department:  stringField(obj, "department"),
				Description: stringField(obj, "description"),
				URL:         jobURL,
				Source:      "embedded_json",
			}, true
		}
	}

	// Greenhouse形状: absolute_url + title
	if title != "" && stringField(obj, "absolute_url") != "" {
		return models.JobPosting{
			Title:    title,
			Location: nestedName(obj["location"]),
			URL:      stringField(obj, "absolute_url"),
			Source:   "embedded_json",
		}, true
	}

	// Lever形状: text + hostedUrl
	if text := stringField(obj, "text"); text != "" {
		if hosted := stringField(obj, "hostedUrl"); hosted != "" {
			var location, department string
			if cats, ok := obj["categories"].(map[string]interface{}); ok {
				location = stringField(cats, "location")
				department = stringField(cats, "team")
			}
			return models.JobPosting{
				Title:      text,
				Location:   location,
				Department: department,
				URL:        hosted,
				Source:     "embedded_json",
			}, true
		}
	}

	return models.JobPosting{}, false
}

// jobsFromCards 按职位卡片选择器提取HTML职位条目
func jobsFromCards(doc *goquery.Document, base *url.URL) []models.JobPosting {
	var jobs []models.JobPosting
	seen := make(map[string]bool)

	for _, selector := range jobCardSelectors {
		doc.Find(selector).Each(func(_ int, card *goquery.Selection) {
			job, ok := jobFromCard(card, base)
			if !ok {
				return
			}
			key := job.DedupeKey()
			if seen[key] {
				return
			}
			seen[key] = true
			jobs = append(jobs, job)
		})
	}

	return jobs
}

// jobFromCard 从单个职位卡片元素提取字段
func jobFromCard(card *goquery.Selection, base *url.URL) (models.JobPosting, bool) {
	job := models.JobPosting{Source: "html"}

	// 标题: 依次尝试标题类选择器
	for _, sel := range []string{"h2", "h3", "h4", ".title", ".job-title", `[class*="title"]`, "strong", "a"} {
		titleElem := card.Find(sel).First()
		if titleElem.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(titleElem.Text())
		if len(text) > 5 && len(text) < 200 {
			job.Title = text
			if href, ok := titleElem.Attr("href"); ok {
				job.URL = resolveHref(base, href)
			}
			break
		}
	}
	if job.Title == "" {
		return job, false
	}

	for _, sel := range []string{".location", `[class*="location"]`, "[data-location]"} {
		if elem := card.Find(sel).First(); elem.Length() > 0 {
			job.Location = strings.TrimSpace(elem.Text())
			break
		}
	}

	for _, sel := range []string{".department", `[class*="department"]`, `[class*="team"]`} {
		if elem := card.Find(sel).First(); elem.Length() > 0 {
			job.Department = strings.TrimSpace(elem.Text())
			break
		}
	}

	if elem := card.Find(`p, .description, [class*="description"]`).First(); elem.Length() > 0 {
		desc := strings.TrimSpace(elem.Text())
		if len(desc) > 500 {
			desc = desc[:500]
		}
		job.Description = desc
	}

	if job.URL == "" {
		if href, ok := card.Find("a[href]").First().Attr("href"); ok {
			job.URL = resolveHref(base, href)
		}
	}

	return job, true
}

// jobsFromTables 提取表格形式的职位列表
// 仅处理表头含title/position/role/location/department的表格
func jobsFromTables(doc *goquery.Document, base *url.URL, pageURL string) []models.JobPosting {
	var jobs []models.JobPosting

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		headerMatch := false
		table.Find("th").Each(func(_ int, th *goquery.Selection) {
			text := strings.ToLower(strings.TrimSpace(th.Text()))
			for _, h := range jobTableHeaders {
				if text == h {
					headerMatch = true
				}
			}
		})
		if !headerMatch {
			return
		}

		table.Find("tr").Each(func(i int, tr *goquery.Selection) {
			if i == 0 {
				return // 跳过表头行
			}
			var cells []string
			tr.Find("td").Each(func(_ int, td *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(td.Text()))
			})
			if len(cells) < 2 || cells[0] == "" {
				return
			}

			job := models.JobPosting{
				Title:  cells[0],
				URL:    pageURL,
				Source: "html",
			}
			if len(cells) > 1 {
				job.Location = cells[1]
			}
			if len(cells) > 2 {
				job.Department = cells[2]
			}
			if href, ok := tr.Find("a[href]").First().Attr("href"); ok {
				job.URL = resolveHref(base, href)
			}
			jobs = append(jobs, job)
		})
	})

	return jobs
}

// jobsFromLinks 链接启发式兜底: URL特征或锚文本疑似职位标题
func jobsFromLinks(doc *goquery.Document, base *url.URL) []models.JobPosting {
	var jobs []models.JobPosting

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		hrefLower := strings.ToLower(href)
		text := strings.TrimSpace(sel.Text())

		matched := false
		for _, kw := range jobLinkKeywords {
			if strings.Contains(hrefLower, kw) {
				matched = true
				break
			}
		}
		if !matched && len(text) > 10 && len(text) < 150 {
			textLower := strings.ToLower(text)
			for _, kw := range jobTitleKeywords {
				if strings.Contains(textLower, kw) {
					matched = true
					break
				}
			}
		}
		if !matched || text == "" {
			return
		}

		jobs = append(jobs, models.JobPosting{
			Title:  text,
			URL:    resolveHref(base, href),
			Source: "link",
		})
	})

	return jobs
}

// resolveHref 相对链接转绝对URL
func resolveHref(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
