package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/RecoveryAshes/CompanyCrawl/internal/crawlers"
	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
	"github.com/RecoveryAshes/CompanyCrawl/internal/utils"
)

// BatchCrawler 批量爬取器
// 不同目标的会话互不共享状态,由有界worker池并行执行;
// worker数量按系统资源动态计算,也可通过配置固定
type BatchCrawler struct {
	config         models.SessionConfig
	output         OutputConfig
	batch          BatchConfig
	headerProvider models.HeaderProvider

	monitor *crawlers.ResourceMonitor
}

// BatchResult 单目标爬取结果
type BatchResult struct {
	Target      models.Target
	Success     bool
	Error       error
	Stats       models.SessionStats
	ProcessedAt time.Time
	Duration    float64
}

// BatchSummary 批量爬取摘要
type BatchSummary struct {
	TotalTargets  int
	SuccessCount  int
	FailCount     int
	TotalPages    int
	TotalJobs     int
	TotalArticles int
	TotalDuration float64
	Results       []BatchResult
}

// NewBatchCrawler 创建批量爬取器
func NewBatchCrawler(config models.SessionConfig, output OutputConfig, batch BatchConfig, headerProvider models.HeaderProvider) *BatchCrawler {
	return &BatchCrawler{
		config:         config,
		output:         output,
		batch:          batch,
		headerProvider: headerProvider,
		monitor:        crawlers.NewResourceMonitor(crawlers.DefaultResourceMonitorConfig()),
	}
}

// CrawlBatch 批量爬取目标列表
// worker池大小 = min(配置上限, 资源监控计算值, 目标数)
func (bc *BatchCrawler) CrawlBatch(targets []models.Target) (*BatchSummary, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("目标列表为空")
	}

	utils.Infof("🚀 开始批量爬取: %d个目标", len(targets))

	bc.monitor.StartMonitoring(1 * time.Second)
	defer bc.monitor.StopMonitoring()

	maxWorkers := bc.batch.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = bc.monitor.CalculateMaxWorkers()
	}
	if maxWorkers > len(targets) {
		maxWorkers = len(targets)
	}
	utils.Infof("并发worker数: %d", maxWorkers)

	summary := &BatchSummary{
		TotalTargets: len(targets),
		Results:      make([]BatchResult, len(targets)),
	}

	startTime := time.Now()
	bar := utils.NewProgressBar(len(targets), "批量爬取进度")

	taskCh := make(chan int)
	var wg sync.WaitGroup
	var abortOnce sync.Once
	aborted := make(chan struct{})

	for w := 0; w < maxWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range taskCh {
				result := bc.crawlSingleTarget(targets[idx])
				summary.Results[idx] = result
				_ = bar.Add(1)

				if !result.Success {
					utils.Errorf("❌ 目标爬取失败 [%s]: %v", result.Target.Domain, result.Error)
					if !bc.batch.ContinueOnError {
						abortOnce.Do(func() { close(aborted) })
					}
				}

				// 同一worker相邻目标之间的礼貌间隔
				if bc.batch.TargetDelay > 0 {
					time.Sleep(time.Duration(bc.batch.TargetDelay) * time.Second)
				}
			}
		}(w)
	}

	for idx := range targets {
		select {
		case <-aborted:
			utils.Warn("批量爬取中止 (continue_on_error=false)")
		case taskCh <- idx:
			continue
		}
		break
	}
	close(taskCh)
	wg.Wait()

	// 汇总
	for _, result := range summary.Results {
		if result.ProcessedAt.IsZero() {
			continue // 中止后未处理的目标
		}
		if result.Success {
			summary.SuccessCount++
			summary.TotalPages += result.Stats.AttemptedPages
			summary.TotalJobs += result.Stats.TotalJobs
			summary.TotalArticles += result.Stats.TotalArticles
		} else {
			summary.FailCount++
		}
	}
	summary.TotalDuration = time.Since(startTime).Seconds()

	bc.printSummary(summary)

	return summary, nil
}

// crawlSingleTarget 爬取单个目标
func (bc *BatchCrawler) crawlSingleTarget(target models.Target) BatchResult {
	result := BatchResult{
		Target:      target,
		ProcessedAt: time.Now(),
	}

	startTime := time.Now()

	session, err := NewCrawlSession(target, bc.config, bc.output, bc.headerProvider, bc.monitor)
	if err != nil {
		result.Success = false
		result.Error = fmt.Errorf("创建会话失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	crawlResult, err := session.Run()
	if err != nil {
		result.Success = false
		result.Error = fmt.Errorf("会话执行失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	result.Success = true
	result.Stats = crawlResult.Stats
	result.Duration = time.Since(startTime).Seconds()

	return result
}

// printSummary 打印批量爬取摘要
func (bc *BatchCrawler) printSummary(summary *BatchSummary) {
	utils.Info("\n==================================================")
	utils.Info("📊 批量爬取摘要")
	utils.Info("==================================================")
	utils.Infof("总目标数: %d", summary.TotalTargets)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("📦 总页面数: %d", summary.TotalPages)
	utils.Infof("📦 职位: %d, 文章: %d", summary.TotalJobs, summary.TotalArticles)
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	// 显示失败的目标
	if summary.FailCount > 0 {
		utils.Warn("\n失败的目标:")
		for _, result := range summary.Results {
			if !result.ProcessedAt.IsZero() && !result.Success {
				utils.Warnf("  - %s: %v", result.Target.Domain, result.Error)
			}
		}
	}
}
