package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/CompanyCrawl/internal/crawlers"
	"github.com/RecoveryAshes/CompanyCrawl/internal/extract"
	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
	"github.com/RecoveryAshes/CompanyCrawl/internal/utils"
)

// maxLinkDepth 普通链接的最大扩展深度
// 规范页面为深度0,从中发现的链接为深度1,以此类推
const maxLinkDepth = 2

// CrawlSession 单目标爬取会话协调器
// 状态机: idle -> discovering -> crawling -> done。
// 独占任务队列和已访问集合,页面级失败只记录不中断;
// 仅首页抓取失败导致会话整体失败。
type CrawlSession struct {
	info   *models.CrawlSessionInfo
	target models.Target
	config models.SessionConfig
	output OutputConfig

	// 抓取基础设施
	fetcher  *crawlers.Fetcher
	renderer *crawlers.Renderer
	queue    *crawlers.TaskQueue

	// 实体来源客户端
	atsClient  *extract.ATSClient
	feedClient *extract.FeedClient

	// 报告与页面持久化
	reporter *utils.Reporter

	// 会话结果聚合
	result       *models.CrawlResult
	jobs         []models.JobPosting
	articles     []models.NewsArticle
	fetchedPages int
}

// NewCrawlSession 创建爬取会话
// monitor可为nil(单目标模式),批量模式传入共享的资源监控器
func NewCrawlSession(
	target models.Target,
	config models.SessionConfig,
	output OutputConfig,
	headerProvider models.HeaderProvider,
	monitor *crawlers.ResourceMonitor,
) (*CrawlSession, error) {
	info, err := models.NewCrawlSessionInfo(target, config)
	if err != nil {
		return nil, fmt.Errorf("创建会话失败: %w", err)
	}

	renderer := crawlers.NewRenderer(config, headerProvider, monitor)
	fetcher := crawlers.NewFetcher(config, headerProvider, renderer)

	if config.RespectRobots {
		fetcher.EnableRobots(crawlers.NewRobotsGate(time.Duration(config.RequestTimeout) * time.Second))
	}

	// domain_separation=false时所有目标共用输出根目录
	reporterDomain := target.Domain
	if !output.DomainSeparation {
		reporterDomain = ""
	}

	return &CrawlSession{
		info:       info,
		target:     target,
		config:     config,
		output:     output,
		fetcher:    fetcher,
		renderer:   renderer,
		queue:      crawlers.NewTaskQueue(target.Domain),
		atsClient:  extract.NewATSClient(time.Duration(config.RequestTimeout) * time.Second),
		feedClient: extract.NewFeedClient(time.Duration(config.RequestTimeout) * time.Second),
		reporter:   utils.NewReporter(output.BaseDir, reporterDomain),
		result:     models.NewCrawlResult(*info),
	}, nil
}

// Run 执行完整会话
// 流程: 输出目录 -> 首页抓取 -> 页面发现 -> 优先级爬取循环 -> 装配 -> 报告
func (s *CrawlSession) Run() (*models.CrawlResult, error) {
	startTime := time.Now()
	defer s.renderer.Close()

	utils.Infof("🚀 开始爬取会话")
	utils.Infof("目标: %s (%s)", s.target.Name, s.target.Domain)
	utils.Infof("页面预算: %d", s.config.PageBudget)
	utils.Infof("会话ID: %s", s.info.ID)

	if err := s.setupOutputDirectories(); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	// 发现阶段
	s.setState(models.SessionDiscovering)
	homepageHTML, err := s.runDiscovery()
	if err != nil {
		// 首页不可达是唯一的会话级失败
		s.setState(models.SessionDone)
		return nil, err
	}

	// 爬取阶段
	s.setState(models.SessionCrawling)
	s.runCrawlLoop()

	// 订阅源文章发现
	if s.config.IncludeFeeds {
		s.collectFeedArticles(homepageHTML)
	}

	// 装配阶段
	s.assemble(startTime)
	s.setState(models.SessionDone)

	// 报告生成
	if err := s.reporter.GenerateReport(s.result); err != nil {
		utils.Warnf("生成报告失败: %v", err)
	}

	utils.Infof("✅ 爬取会话完成")
	utils.Infof("抓取页面: %d (成功 %d, 失败 %d)", s.result.Stats.AttemptedPages,
		s.result.Stats.SucceededPages, s.result.Stats.FailedPages)
	utils.Infof("职位: %d, 文章: %d", s.result.Stats.TotalJobs, s.result.Stats.TotalArticles)
	utils.Infof("⏱️ 总耗时: %.2f秒", s.result.Stats.Duration)

	return s.result, nil
}

// setState 迁移会话状态
func (s *CrawlSession) setState(state models.SessionState) {
	s.info.State = state
	s.result.Session.State = state
	utils.Debugf("会话状态: %s", state)
}

// setupOutputDirectories 创建输出目录结构
// 结构: output/{domain}/pages/ + output/{domain}/reports/
// pages/仅在save_html开启时创建
func (s *CrawlSession) setupOutputDirectories() error {
	basePath := filepath.Join(s.output.BaseDir, s.target.Domain)
	if !s.output.DomainSeparation {
		basePath = s.output.BaseDir
	}

	dirs := []string{
		filepath.Join(basePath, "reports"), // JSON报告
	}
	if s.output.SaveHTML {
		dirs = append(dirs, filepath.Join(basePath, "pages")) // 原始HTML
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败 [%s]: %w", dir, err)
		}
		utils.Debugf("创建目录: %s", dir)
	}

	return nil
}

// runDiscovery 抓取首页并执行页面发现
// 返回首页HTML供后续订阅源发现复用;首页抓取失败返回错误
func (s *CrawlSession) runDiscovery() (string, error) {
	baseURL := s.target.BaseURL()

	utils.Infof("🔍 页面发现阶段启动")

	s.queue.MarkVisited(baseURL)
	outcome := s.fetcher.Fetch(baseURL, false)
	s.fetchedPages++

	homepageRecord := s.buildRecord(baseURL, models.PageTypeHomepage, outcome)
	s.result.Pages = append(s.result.Pages, homepageRecord)

	if !outcome.Found() {
		s.result.Resolution[models.PageTypeHomepage] = models.Resolution{
			URL:         baseURL,
			Found:       false,
			Attempted:   true,
			StatusClass: outcome.StatusClass,
			Note:        outcome.Note,
		}
		return "", fmt.Errorf("首页不可达 [%s]: %s (%s)", baseURL, outcome.StatusClass, outcome.Note)
	}

	s.result.Resolution[models.PageTypeHomepage] = models.Resolution{
		URL:         baseURL,
		Found:       true,
		Attempted:   true,
		StatusClass: models.StatusOK,
	}
	s.persistPage(homepageRecord)
	s.harvestEntities(homepageRecord)
	s.expandLinks(homepageRecord, 1)

	// 发现其余11种规范页面类型
	discoverer := crawlers.NewDiscoverer(s.fetcher, s.target)
	discovered := discoverer.Discover(outcome.HTML)

	for _, pt := range models.AllPageTypes {
		if pt == models.PageTypeHomepage {
			continue
		}

		page := discovered[pt]
		if !page.Found {
			s.result.Resolution[pt] = models.Resolution{
				Found:     false,
				Attempted: false,
				Note:      "未发现匹配的页面",
			}
			continue
		}

		// 发现即登记URL,抓取结果稍后回填
		s.result.Resolution[pt] = models.Resolution{
			URL:       page.URL,
			Found:     false,
			Attempted: false,
			Note:      "等待抓取",
		}

		task := models.PageTask{
			URL:      page.URL,
			Type:     pt,
			Priority: models.PriorityCanonical,
		}
		if err := s.queue.Push(task); err != nil {
			utils.Debugf("规范页面入队失败 [%s]: %v", page.URL, err)
		}
	}

	return outcome.HTML, nil
}

// runCrawlLoop 优先级爬取循环
// 终止条件: 队列为空或页面预算耗尽;单页失败只记录不中断
func (s *CrawlSession) runCrawlLoop() {
	for {
		if s.fetchedPages >= s.config.PageBudget {
			utils.Infof("📊 页面预算已耗尽 (%d),停止爬取", s.config.PageBudget)
			s.markBudgetExhausted()
			return
		}

		task, ok := s.queue.Pop()
		if !ok {
			utils.Debugf("任务队列为空,爬取循环结束")
			return
		}

		s.processTask(task)
	}
}

// processTask 处理单个抓取任务
func (s *CrawlSession) processTask(task models.PageTask) {
	utils.Debugf("📥 抓取 [%s] %s", task.Type, task.URL)

	outcome := s.fetcher.Fetch(task.URL, false)
	s.fetchedPages++

	record := s.buildRecord(task.URL, task.Type, outcome)

	// 错误页检测: HTTP成功但内容为错误模板时,用浏览器渲染重试一次
	if record.Body != nil && record.Body.ErrorSignature != "" && !outcome.Rendered {
		utils.Debugf("检测到错误页 [%s]: %s, 用浏览器渲染重试", task.URL, record.Body.ErrorSignature)
		retry := s.fetcher.Fetch(task.URL, true)
		retryRecord := s.buildRecord(task.URL, task.Type, retry)
		if retryRecord.Body == nil || retryRecord.Body.ErrorSignature != "" {
			// 渲染后仍是错误页,终态content_error
			record.StatusClass = models.StatusContentError
			record.Found = false
			if retryRecord.Body != nil {
				record.FailureNote = retryRecord.Body.ErrorSignature
			}
		} else {
			record = retryRecord
		}
	} else if record.Body != nil && record.Body.ErrorSignature != "" {
		record.StatusClass = models.StatusContentError
		record.Found = false
		record.FailureNote = record.Body.ErrorSignature
	}

	s.result.Pages = append(s.result.Pages, record)
	s.backfillResolution(task.URL, record)

	if !record.Found {
		utils.Warnf("❌ 页面抓取失败 [%s] %s: %s", task.Type, task.URL, record.StatusClass)
		return
	}

	s.persistPage(record)
	s.harvestEntities(record)
	s.expandLinks(record, task.Depth+1)
}

// buildRecord 从抓取结果构建页面记录,成功时附带内容提取
func (s *CrawlSession) buildRecord(pageURL string, pageType models.PageType, outcome *crawlers.FetchOutcome) *models.PageRecord {
	record := &models.PageRecord{
		URL:         pageURL,
		Type:        pageType,
		Found:       outcome.Found(),
		StatusCode:  outcome.StatusCode,
		StatusClass: outcome.StatusClass,
		Hash:        outcome.Hash,
		HTML:        outcome.HTML,
		Rendered:    outcome.Rendered,
		FailureNote: outcome.Note,
		FetchedAt:   time.Now(),
	}

	if record.Found {
		body, err := extract.ExtractPage(outcome.HTML, pageURL)
		if err != nil {
			utils.Warnf("内容提取失败 [%s]: %v", pageURL, err)
		} else {
			record.Body = body
		}
	}

	return record
}

// backfillResolution 将抓取结果回填到解析映射
// 多个规范类型可能解析到同一URL(如blog和press同指/newsroom),
// 后者入队时被访问集合拒绝,因此按归一化URL回填所有待抓取条目
func (s *CrawlSession) backfillResolution(pageURL string, record *models.PageRecord) {
	key := models.NormalizeURL(pageURL)

	for pt, res := range s.result.Resolution {
		if res.Attempted || res.URL == "" {
			continue
		}
		if models.NormalizeURL(res.URL) != key {
			continue
		}
		s.result.Resolution[pt] = models.Resolution{
			URL:         res.URL,
			Found:       record.Found,
			Attempted:   true,
			StatusClass: record.StatusClass,
			Note:        record.FailureNote,
		}
	}
}

// persistPage 保存页面原始HTML到output/{domain}/pages/
func (s *CrawlSession) persistPage(record *models.PageRecord) {
	if !s.output.SaveHTML {
		return
	}
	if err := s.reporter.SavePageHTML(record); err != nil {
		utils.Warnf("保存页面HTML失败 [%s]: %v", record.URL, err)
	}
}

// harvestEntities 按页面类型执行专属提取
func (s *CrawlSession) harvestEntities(record *models.PageRecord) {
	switch record.Type {
	case models.PageTypeCareers:
		s.harvestJobs(record)
	case models.PageTypePress:
		if press := extract.ExtractPress(record.HTML, record.URL); len(press) > 0 {
			s.result.Press = append(s.result.Press, press...)
		}
	case models.PageTypeTeam:
		if team := extract.ExtractTeam(record.HTML, record.URL); len(team) > 0 {
			s.result.Team = append(s.result.Team, team...)
			utils.Infof("✨ 提取到 %d 名团队成员", len(team))
		}
	case models.PageTypeInvestors:
		if funding := extract.ExtractFunding(record.HTML); len(funding) > 0 {
			s.result.Funding = append(s.result.Funding, funding...)
		}
	case models.PageTypeCustomers:
		if customers := extract.ExtractCustomers(record.HTML); len(customers) > 0 {
			s.result.Customers = append(s.result.Customers, customers...)
		}
	case models.PageTypePartners:
		if partners := extract.ExtractPartners(record.HTML); len(partners) > 0 {
			s.result.Partners = append(s.result.Partners, partners...)
		}
	case models.PageTypePricing:
		if s.result.Pricing == nil {
			pricing := extract.ExtractPricing(record.HTML)
			s.result.Pricing = &pricing
		}
	case models.PageTypeOther:
		// 职位/文章类实体URL
		urlLower := strings.ToLower(record.URL)
		switch {
		case strings.Contains(urlLower, "/job") || strings.Contains(urlLower, "/position") ||
			strings.Contains(urlLower, "/opening") || strings.Contains(urlLower, "/career"):
			s.jobs = append(s.jobs, extract.ExtractJobs(record.HTML, record.URL)...)
		case strings.Contains(urlLower, "/blog/") || strings.Contains(urlLower, "/news/") ||
			strings.Contains(urlLower, "/post/") || strings.Contains(urlLower, "/article/"):
			if article, ok := extract.ExtractArticle(record.HTML, record.URL); ok {
				s.articles = append(s.articles, article)
			}
		}
	}
}

// harvestJobs 招聘页职位提取
// ATS API优先,失败或为空时回退到通用提取链
func (s *CrawlSession) harvestJobs(record *models.PageRecord) {
	kind := s.atsClient.Detect(record.HTML, record.URL)
	if kind != extract.ATSNone {
		utils.Infof("🔍 检测到ATS系统: %s", kind)
		if jobs := s.atsClient.FetchJobs(kind, record.HTML, record.URL); len(jobs) > 0 {
			s.jobs = append(s.jobs, jobs...)
			utils.Infof("✨ ATS API提取到 %d 个职位", len(jobs))
			return
		}
	}

	jobs := extract.ExtractJobs(record.HTML, record.URL)
	if len(jobs) > 0 {
		s.jobs = append(s.jobs, jobs...)
		utils.Infof("✨ 通用提取到 %d 个职位", len(jobs))
	}
}

// expandLinks 将页面中的同域链接扩展为低优先级任务
// 职位/文章类URL提升为最高优先级;深度超限的链接不再扩展
func (s *CrawlSession) expandLinks(record *models.PageRecord, depth int) {
	if record.Body == nil || depth > maxLinkDepth {
		return
	}

	for _, link := range record.Body.Links {
		if !link.Internal {
			continue
		}

		task := models.PageTask{
			URL:      link.URL,
			Type:     models.PageTypeOther,
			Priority: models.PriorityLink,
			Depth:    depth,
		}
		if crawlers.IsEntityURL(link.URL) {
			task.Priority = models.PriorityEntity
		}

		// 重复/跨域/命中过滤模式的链接在Push内拒绝
		if err := s.queue.Push(task); err != nil {
			continue
		}
	}
}

// collectFeedArticles 订阅源文章发现
// 来源: 首页和博客页声明的订阅源,兜底探测常见路径;首个产出文章的订阅源胜出
func (s *CrawlSession) collectFeedArticles(homepageHTML string) {
	candidates := extract.DiscoverFeedURLs(homepageHTML, s.target.BaseURL())

	for _, record := range s.result.Pages {
		if record.Type == models.PageTypeBlog && record.Found {
			candidates = append(candidates, extract.DiscoverFeedURLs(record.HTML, record.URL)...)
		}
	}
	candidates = append(candidates, extract.CandidateFeedURLs(s.target.BaseURL())...)

	tried := make(map[string]bool)
	for _, feedURL := range candidates {
		if tried[feedURL] {
			continue
		}
		tried[feedURL] = true

		articles := s.feedClient.FetchArticles(feedURL, s.config.ArticleLimit)
		if len(articles) > 0 {
			utils.Infof("✨ 订阅源提取到 %d 篇文章: %s", len(articles), feedURL)
			s.articles = append(s.articles, articles...)
			return
		}
	}

	// 无订阅源时,从已抓取的博客页提取单篇文章
	for _, record := range s.result.Pages {
		if record.Type == models.PageTypeBlog && record.Found {
			if article, ok := extract.ExtractArticle(record.HTML, record.URL); ok {
				s.articles = append(s.articles, article)
			}
		}
	}
}

// markBudgetExhausted 预算耗尽时标注未抓取的规范类型
func (s *CrawlSession) markBudgetExhausted() {
	for pt, res := range s.result.Resolution {
		if res.URL != "" && !res.Attempted {
			res.Note = "页面预算耗尽,未抓取"
			s.result.Resolution[pt] = res
		}
	}
}

// assemble 装配最终结果: 实体去重 + 统计汇总
func (s *CrawlSession) assemble(startTime time.Time) {
	s.result.Jobs = extract.DedupeJobs(s.jobs)
	s.result.Articles = extract.DedupeArticles(s.articles)

	stats := models.SessionStats{
		TotalJobs:     len(s.result.Jobs),
		TotalArticles: len(s.result.Articles),
		Duration:      time.Since(startTime).Seconds(),
	}

	for _, record := range s.result.Pages {
		stats.AttemptedPages++
		if record.Found {
			stats.SucceededPages++
		} else {
			stats.FailedPages++
		}
		if record.Rendered {
			stats.RenderedPages++
		}
	}

	for _, res := range s.result.Resolution {
		if !res.Found && res.URL == "" {
			stats.NotFoundTypes++
		}
	}

	now := time.Now()
	s.info.CompletedAt = &now
	s.result.Session.CompletedAt = &now
	s.result.Stats = stats
}

// Result 返回会话结果(Run完成后有效)
func (s *CrawlSession) Result() *models.CrawlResult {
	return s.result
}
