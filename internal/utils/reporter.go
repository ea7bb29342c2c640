package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 报告生成器
// 将会话结果写入 output/{domain}/reports/,供下游管线消费
type Reporter struct {
	outputDir string
	domain    string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string, domain string) *Reporter {
	return &Reporter{
		outputDir: outputDir,
		domain:    domain,
	}
}

// GenerateReport 生成爬取报告
// 主报告包含会话元数据、解析映射和全部页面记录;
// 职位和文章额外拆分为独立文件,便于下游按实体消费
func (r *Reporter) GenerateReport(result *models.CrawlResult) error {
	reportsDir := filepath.Join(r.outputDir, r.domain, "reports")
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	// 主报告
	if err := r.saveJSONReport(reportsDir, "crawl_result.json", result); err != nil {
		return err
	}

	// 职位列表
	if err := r.saveJSONReport(reportsDir, "jobs.json", result.Jobs); err != nil {
		return err
	}

	// 文章列表
	if err := r.saveJSONReport(reportsDir, "articles.json", result.Articles); err != nil {
		return err
	}

	// 类型解析映射(含显式缺失项)
	if err := r.saveJSONReport(reportsDir, "resolution.json", result.Resolution); err != nil {
		return err
	}

	Infof("✅ 报告已生成: %s", reportsDir)
	return nil
}

// SavePageHTML 保存单个页面的原始HTML
// 路径: output/{domain}/pages/{page_type}.html
func (r *Reporter) SavePageHTML(record *models.PageRecord) error {
	if record.HTML == "" {
		return nil
	}

	pagesDir := filepath.Join(r.outputDir, r.domain, "pages")
	if err := os.MkdirAll(pagesDir, 0755); err != nil {
		return fmt.Errorf("创建页面目录失败: %w", err)
	}

	filename := string(record.Type) + ".html"
	if record.Type == models.PageTypeOther {
		if len(record.Hash) < 12 {
			return nil
		}
		filename = record.Hash[:12] + ".html"
	}

	path := filepath.Join(pagesDir, filename)
	if err := os.WriteFile(path, []byte(record.HTML), 0644); err != nil {
		return fmt.Errorf("写入页面文件失败: %w", err)
	}

	Debugf("保存页面: %s", path)
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(dir string, filename string, data interface{}) error {
	filepath := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(filepath, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", filepath)
	return nil
}

// NewProgressBar 创建进度条(批量模式使用)
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
