package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/CompanyCrawl/internal/core"
	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
	"github.com/RecoveryAshes/CompanyCrawl/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	// 目标参数
	targetDomain string
	targetName   string
	targetsFile  string

	// 爬取参数
	pageBudget      int
	requestInterval int
	articleLimit    int
	forceRender     bool
	includeFeeds    bool
	respectRobots   bool
	headless        bool
	outputDir       string

	// 批量处理参数
	batchWorkers    int
	targetDelay     int
	continueOnError bool
)

var rootCmd = &cobra.Command{
	Use:   "companycrawl",
	Short: "公司官网爬取和内容提取工具",
	Long: `CompanyCrawl - 公司官网结构化爬取引擎 (Go版本)

以公司域名为输入,自动发现并抓取12类规范页面,提取结构化内容,支持:
  • 规范页面发现 (路径模式探测 + 首页链接分析)
  • 优先级爬取调度与页面预算控制
  • 静态抓取失败时自动降级到浏览器渲染
  • ATS招聘平台职位API (Greenhouse/Lever/Workable/Ashby)
  • RSS/Atom订阅源文章发现
  • 团队/投资方/客户/合作伙伴/定价/新闻稿专属解析
  • 批量目标处理
  • 自定义HTTP请求头

HTTP头部配置示例:
  # 通过配置文件 (configs/headers.yaml)
  companycrawl -u example.com

  # 通过命令行参数
  companycrawl -u example.com -H "User-Agent: MyBot/1.0" -H "Authorization: Bearer token"

  # 验证配置文件
  companycrawl --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 设置信号处理(Ctrl+C优雅退出)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		go func() {
			sig := <-sigChan
			utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
			os.Exit(0)
		}()

		// 重新加载配置(与PersistentPreRunE保持一致)
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 创建HTTP头部管理器
		headerManager, err := core.NewHeaderManager(configFile, headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		// 如果用户请求验证配置
		if validateConfig {
			utils.Info("🔍 验证HTTP头部配置...")
			if err := headerManager.LoadConfig(); err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}
			if err := headerManager.Validate(); err != nil {
				return fmt.Errorf("配置验证失败: %w", err)
			}

			// 显示合并后的头部(脱敏)
			safeHeaders := headerManager.GetSafeHeaders()
			utils.Info("✅ 配置验证通过!")
			utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
			for name, value := range safeHeaders {
				utils.Infof("  %s: %s", name, value)
			}
			return nil
		}

		// 如果没有提供任何参数,显示帮助信息
		if targetDomain == "" && targetsFile == "" {
			return cmd.Help()
		}

		// 验证参数
		if err := ValidateFlags(
			targetDomain,
			pageBudget,
			requestInterval,
			articleLimit,
			batchWorkers,
			targetDelay,
		); err != nil {
			return err
		}

		// 命令行参数覆盖配置文件,未显式指定的布尔标志沿用配置文件的值
		if !cmd.Flags().Changed("force-render") {
			forceRender = appConfig.Crawl.ForceRender
		}
		if !cmd.Flags().Changed("include-feeds") {
			includeFeeds = appConfig.Crawl.IncludeFeeds
		}
		if !cmd.Flags().Changed("respect-robots") {
			respectRobots = appConfig.Crawl.RespectRobots
		}
		if !cmd.Flags().Changed("headless") {
			headless = appConfig.Crawl.Headless
		}
		appConfig.MergeCLIFlags(
			pageBudget,
			requestInterval,
			articleLimit,
			forceRender,
			includeFeeds,
			respectRobots,
			headless,
		)
		if outputDir != "" {
			appConfig.Output.BaseDir = outputDir
		}
		if batchWorkers > 0 {
			appConfig.Batch.MaxWorkers = batchWorkers
		}
		if cmd.Flags().Changed("target-delay") {
			appConfig.Batch.TargetDelay = targetDelay
		}
		if cmd.Flags().Changed("continue-on-error") {
			appConfig.Batch.ContinueOnError = continueOnError
		}

		// 检查是否为批量处理模式
		if targetsFile != "" {
			// 批量处理模式
			targets, err := utils.ReadTargetsFromFile(targetsFile)
			if err != nil {
				return fmt.Errorf("读取目标文件失败: %w", err)
			}

			// 创建批量爬取器
			batchCrawler := core.NewBatchCrawler(appConfig.Crawl, appConfig.Output, appConfig.Batch, headerManager)

			// 执行批量爬取
			if _, err := batchCrawler.CrawlBatch(targets); err != nil {
				return fmt.Errorf("批量爬取失败: %w", err)
			}

			utils.Info("✨ 批量爬取任务完成!")
			return nil
		}

		// 单目标爬取模式
		target, err := models.NewTarget(targetName, targetDomain)
		if err != nil {
			return fmt.Errorf("无效的爬取目标: %w", err)
		}

		session, err := core.NewCrawlSession(target, appConfig.Crawl, appConfig.Output, headerManager, nil)
		if err != nil {
			return fmt.Errorf("创建爬取会话失败: %w", err)
		}

		// 执行爬取
		result, err := session.Run()
		if err != nil {
			return fmt.Errorf("爬取失败: %w", err)
		}

		// 显示统计结果
		stats := result.Stats
		fmt.Println("\n==================================================")
		fmt.Println("📊 爬取统计")
		fmt.Println("==================================================")
		fmt.Printf("✅ 尝试页面数: %d\n", stats.AttemptedPages)
		fmt.Printf("✅ 成功页面数: %d\n", stats.SucceededPages)
		fmt.Printf("✅ 渲染页面数: %d\n", stats.RenderedPages)
		fmt.Printf("❌ 失败页面数: %d\n", stats.FailedPages)
		fmt.Printf("❌ 未解析的规范类型: %d\n", stats.NotFoundTypes)
		fmt.Printf("📦 职位数(去重): %d\n", stats.TotalJobs)
		fmt.Printf("📦 文章数(去重): %d\n", stats.TotalArticles)
		fmt.Printf("⏱️  总耗时: %.2f秒\n", stats.Duration)
		fmt.Println("==================================================")

		utils.Info("✨ 爬取任务完成!")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("CompanyCrawl %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 公司官网结构化爬取引擎")
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 目标参数
	rootCmd.Flags().StringVarP(&targetDomain, "domain", "u", "", "目标公司域名 (必需,除非使用 --targets-file)")
	rootCmd.Flags().StringVarP(&targetName, "name", "n", "", "公司名称 (缺省时使用域名)")
	rootCmd.Flags().StringVarP(&targetsFile, "targets-file", "f", "", "目标列表文件路径,每行: '公司名,域名' 或 '域名'")

	// 爬取参数
	rootCmd.Flags().IntVarP(&pageBudget, "page-budget", "b", 0, "单会话最大抓取页面数 (1-500,默认30)")
	rootCmd.Flags().IntVar(&requestInterval, "request-interval", -1, "同域请求最小间隔(秒,0-60)")
	rootCmd.Flags().IntVar(&articleLimit, "article-limit", 0, "Feed文章数量上限 (1-100,默认25)")
	rootCmd.Flags().BoolVar(&forceRender, "force-render", false, "全部页面强制浏览器渲染")
	rootCmd.Flags().BoolVar(&includeFeeds, "include-feeds", true, "启用RSS/Atom文章发现")
	rootCmd.Flags().BoolVar(&respectRobots, "respect-robots", false, "遵守robots.txt")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "输出目录 (默认output)")

	// 批量处理参数
	rootCmd.Flags().IntVar(&batchWorkers, "max-workers", 0, "批量模式并发worker数 (0=按系统资源自动计算)")
	rootCmd.Flags().IntVar(&targetDelay, "target-delay", 2, "同一worker相邻目标间延迟(秒)")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理后续目标")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
