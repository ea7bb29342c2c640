package extract

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
	"github.com/RecoveryAshes/CompanyCrawl/internal/utils"
)

// ATSKind 已识别的招聘系统类型
type ATSKind string

const (
	ATSGreenhouse ATSKind = "greenhouse"
	ATSLever      ATSKind = "lever"
	ATSWorkable   ATSKind = "workable"
	ATSAshby      ATSKind = "ashby"
	ATSOther      ATSKind = "other" // 识别到ATS但没有公开API
	ATSNone       ATSKind = ""
)

// atsDomains 已知ATS平台域名
// 招聘页重定向到这些域名时允许跨域抓取
var atsDomains = []string{
	"greenhouse.io", "lever.co", "workable.com", "ashbyhq.com", "bamboohr.com",
	"icims.com", "workday.com", "myworkdayjobs.com", "taleo.net",
	"smartrecruiters.com", "jobvite.com", "recruitee.com", "personio.com",
}

// atsSignatures 无公开API的ATS平台特征(仅用于检测归类)
var atsSignatures = []string{
	"bamboohr", "icims", "myworkdayjobs", "workday", "taleo",
	"smartrecruiters", "jobvite",
}

var (
	boardTokenPattern   = regexp.MustCompile(`boardToken["']?\s*[:=]\s*["']([^"']+)["']`)
	greenhouseForParam  = regexp.MustCompile(`for=([^&"']+)`)
	leverSlugPattern    = regexp.MustCompile(`jobs\.lever\.co/([^/?#"']+)`)
	workableSlugPattern = regexp.MustCompile(`apply\.workable\.com/(?:api/v\d+/accounts/)?([^/?#"']+)`)
	ashbySlugPattern    = regexp.MustCompile(`jobs\.ashbyhq\.com/([^/?#"']+)`)
)

// IsATSDomain 判断URL是否属于已知ATS平台
func IsATSDomain(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, domain := range atsDomains {
		if strings.HasSuffix(host, domain) {
			return true
		}
	}
	return false
}

// ATSClient ATS平台的结构化职位来源客户端
// 检测招聘页使用的ATS,有公开API的平台直接调API获取完整职位列表
type ATSClient struct {
	client *http.Client
}

// NewATSClient 创建ATS客户端
func NewATSClient(timeout time.Duration) *ATSClient {
	return &ATSClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true,
				},
			},
		},
	}
}

// Detect 识别招聘页使用的ATS系统
// 检测顺序: URL/HTML子串特征 -> iframe嵌入来源
func (c *ATSClient) Detect(html string, careersURL string) ATSKind {
	htmlLower := strings.ToLower(html)
	urlLower := strings.ToLower(careersURL)

	combined := htmlLower + " " + urlLower
	switch {
	case strings.Contains(combined, "greenhouse"):
		return ATSGreenhouse
	case strings.Contains(combined, "lever.co"):
		return ATSLever
	case strings.Contains(combined, "workable"):
		return ATSWorkable
	case strings.Contains(combined, "ashby"):
		return ATSAshby
	}

	for _, sig := range atsSignatures {
		if strings.Contains(combined, sig) {
			return ATSOther
		}
	}

	// iframe嵌入检测
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ATSNone
	}
	result := ATSNone
	doc.Find("iframe[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, _ := sel.Attr("src")
		srcLower := strings.ToLower(src)
		switch {
		case strings.Contains(srcLower, "greenhouse.io"):
			result = ATSGreenhouse
		case strings.Contains(srcLower, "lever.co"):
			result = ATSLever
		case strings.Contains(srcLower, "workable.com"):
			result = ATSWorkable
		case strings.Contains(srcLower, "ashbyhq.com"):
			result = ATSAshby
		default:
			return true
		}
		return false
	})
	return result
}

// FetchJobs 通过ATS公开API获取职位列表
// API不可用/凭据缺失/响应异常都返回空列表,由调用方回退到通用提取
func (c *ATSClient) FetchJobs(kind ATSKind, html string, careersURL string) []models.JobPosting {
	switch kind {
	case ATSGreenhouse:
		return c.fetchGreenhouse(html, careersURL)
	case ATSLever:
		return c.fetchLever(html, careersURL)
	case ATSWorkable:
		return c.fetchWorkable(html, careersURL)
	case ATSAshby:
		return c.fetchAshby(html, careersURL)
	default:
		return nil
	}
}

// fetchGreenhouse Greenhouse boards API
// board token来源: script中的boardToken字面量,或iframe src的for参数
func (c *ATSClient) fetchGreenhouse(html string, careersURL string) []models.JobPosting {
	token := ""
	if m := boardTokenPattern.FindStringSubmatch(html); m != nil {
		token = m[1]
	}
	if token == "" {
		if m := greenhouseForParam.FindStringSubmatch(html); m != nil {
			token = m[1]
		}
	}
	if token == "" {
		token = companySlug(careersURL)
	}
	if token == "" {
		return nil
	}

	apiURL := fmt.Sprintf("https://boards-api.greenhouse.io/v1/boards/%s/jobs", token)

	var payload struct {
		Jobs []struct {
			Title       string `json:"title"`
			AbsoluteURL string `json:"absolute_url"`
			Location    struct {
				Name string `json:"name"`
			} `json:"location"`
			Departments []struct {
				Name string `json:"name"`
			} `json:"departments"`
		} `json:"jobs"`
	}
	if err := c.getJSON(apiURL, &payload); err != nil {
		utils.Debugf("Greenhouse API不可用 [%s]: %v", apiURL, err)
		return nil
	}

	var jobs []models.JobPosting
	for _, j := range payload.Jobs {
		job := models.JobPosting{
			Title:    j.Title,
			Location: j.Location.Name,
			URL:      j.AbsoluteURL,
			Source:   "ats_api",
		}
		if len(j.Departments) > 0 {
			job.Department = j.Departments[0].Name
		}
		jobs = append(jobs, job)
	}
	utils.Debugf("Greenhouse API返回 %d 个职位", len(jobs))
	return jobs
}

// fetchLever Lever postings API
func (c *ATSClient) fetchLever(html string, careersURL string) []models.JobPosting {
	slug := ""
	if m := leverSlugPattern.FindStringSubmatch(html + " " + careersURL); m != nil {
		slug = m[1]
	}
	if slug == "" {
		slug = companySlug(careersURL)
	}
	if slug == "" {
		return nil
	}

	apiURL := fmt.Sprintf("https://api.lever.co/v0/postings/%s?mode=json", slug)

	var payload []struct {
		Text       string `json:"text"`
		HostedURL  string `json:"hostedUrl"`
		Categories struct {
			Location string `json:"location"`
			Team     string `json:"team"`
		} `json:"categories"`
	}
	if err := c.getJSON(apiURL, &payload); err != nil {
		utils.Debugf("Lever API不可用 [%s]: %v", apiURL, err)
		return nil
	}

	var jobs []models.JobPosting
	for _, j := range payload {
		jobs = append(jobs, models.JobPosting{
			Title:      j.Text,
			Location:   j.Categories.Location,
			Department: j.Categories.Team,
			URL:        j.HostedURL,
			Source:     "ats_api",
		})
	}
	utils.Debugf("Lever API返回 %d 个职位", len(jobs))
	return jobs
}

// fetchWorkable Workable accounts API
func (c *ATSClient) fetchWorkable(html string, careersURL string) []models.JobPosting {
	slug := ""
	if m := workableSlugPattern.FindStringSubmatch(html + " " + careersURL); m != nil {
		candidate := m[1]
		// 排除误匹配的路径段
		if candidate != "api" && candidate != "jobs" && candidate != "job" {
			slug = candidate
		}
	}
	if slug == "" {
		slug = companySlug(careersURL)
	}
	if slug == "" {
		return nil
	}

	apiURL := fmt.Sprintf("https://apply.workable.com/api/v3/accounts/%s/jobs", slug)

	var payload struct {
		Results []struct {
			Title      string `json:"title"`
			URL        string `json:"url"`
			Shortlink  string `json:"shortlink"`
			Department string `json:"department"`
			Location   struct {
				City    string `json:"city"`
				Country string `json:"country"`
			} `json:"location"`
		} `json:"results"`
	}
	if err := c.getJSON(apiURL, &payload); err != nil {
		utils.Debugf("Workable API不可用 [%s]: %v", apiURL, err)
		return nil
	}

	var jobs []models.JobPosting
	for _, j := range payload.Results {
		jobURL := j.URL
		if jobURL == "" {
			jobURL = j.Shortlink
		}
		location := j.Location.City
		if location == "" {
			location = j.Location.Country
		}
		jobs = append(jobs, models.JobPosting{
			Title:      j.Title,
			Location:   location,
			Department: j.Department,
			URL:        jobURL,
			Source:     "ats_api",
		})
	}
	utils.Debugf("Workable API返回 %d 个职位", len(jobs))
	return jobs
}

// fetchAshby Ashby公开职位API
func (c *ATSClient) fetchAshby(html string, careersURL string) []models.JobPosting {
	slug := ""
	if m := ashbySlugPattern.FindStringSubmatch(html + " " + careersURL); m != nil {
		slug = m[1]
	}
	if slug == "" {
		slug = companySlug(careersURL)
	}
	if slug == "" {
		return nil
	}

	apiURL := "https://api.ashbyhq.com/public/job_postings?organization_slug=" + url.QueryEscape(slug)

	var payload struct {
		Jobs []struct {
			Title           string `json:"title"`
			LocationName    string `json:"locationName"`
			DepartmentName  string `json:"departmentName"`
			PublishedJobURL string `json:"publishedJobUrl"`
		} `json:"jobs"`
	}
	if err := c.getJSON(apiURL, &payload); err != nil {
		utils.Debugf("Ashby API不可用 [%s]: %v", apiURL, err)
		return nil
	}

	var jobs []models.JobPosting
	for _, j := range payload.Jobs {
		jobs = append(jobs, models.JobPosting{
			Title:      j.Title,
			Location:   j.LocationName,
			Department: j.DepartmentName,
			URL:        j.PublishedJobURL,
			Source:     "ats_api",
		})
	}
	utils.Debugf("Ashby API返回 %d 个职位", len(jobs))
	return jobs
}

// getJSON 发送GET请求并解析JSON响应
func (c *ATSClient) getJSON(apiURL string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("解析JSON失败: %w", err)
	}
	return nil
}

// companySlug 从域名推断公司标识(去www后取首段)
func companySlug(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		return parts[0]
	}
	return ""
}
