package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/CompanyCrawl/internal/models"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Crawl   models.SessionConfig `mapstructure:"crawl"`
	Logging LoggingConfig        `mapstructure:"logging"`
	Output  OutputConfig         `mapstructure:"output"`
	Batch   BatchConfig          `mapstructure:"batch"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir          string `mapstructure:"base_dir"`
	DomainSeparation bool   `mapstructure:"domain_separation"`
	SaveHTML         bool   `mapstructure:"save_html"`
}

// BatchConfig 批量模式配置
type BatchConfig struct {
	MaxWorkers      int  `mapstructure:"max_workers"`
	TargetDelay     int  `mapstructure:"target_delay"` // 同一worker相邻目标间隔(秒)
	ContinueOnError bool `mapstructure:"continue_on_error"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".companycrawl"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在,使用默认值
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := config.Crawl.Validate(); err != nil {
		return nil, fmt.Errorf("爬取配置无效: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 爬取配置默认值
	defaults := models.DefaultSessionConfig()
	v.SetDefault("crawl.page_budget", defaults.PageBudget)
	v.SetDefault("crawl.request_interval", defaults.RequestInterval)
	v.SetDefault("crawl.request_timeout", defaults.RequestTimeout)
	v.SetDefault("crawl.render_timeout", defaults.RenderTimeout)
	v.SetDefault("crawl.max_retries", defaults.MaxRetries)
	v.SetDefault("crawl.force_render", defaults.ForceRender)
	v.SetDefault("crawl.include_feeds", defaults.IncludeFeeds)
	v.SetDefault("crawl.article_limit", defaults.ArticleLimit)
	v.SetDefault("crawl.respect_robots", defaults.RespectRobots)
	v.SetDefault("crawl.headless", defaults.Headless)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "output")
	v.SetDefault("output.domain_separation", true)
	v.SetDefault("output.save_html", true)

	// 批量模式默认值
	v.SetDefault("batch.max_workers", 0) // 0表示按系统资源自动计算
	v.SetDefault("batch.target_delay", 2)
	v.SetDefault("batch.continue_on_error", true)
}

// GetSessionConfig 从配置中提取会话配置
func (c *Config) GetSessionConfig() models.SessionConfig {
	return c.Crawl
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(
	pageBudget int,
	requestInterval int,
	articleLimit int,
	forceRender bool,
	includeFeeds bool,
	respectRobots bool,
	headless bool,
) {
	if pageBudget > 0 {
		c.Crawl.PageBudget = pageBudget
	}
	if requestInterval >= 0 {
		c.Crawl.RequestInterval = requestInterval
	}
	if articleLimit > 0 {
		c.Crawl.ArticleLimit = articleLimit
	}
	c.Crawl.ForceRender = forceRender
	c.Crawl.IncludeFeeds = includeFeeds
	c.Crawl.RespectRobots = respectRobots
	c.Crawl.Headless = headless
}
