package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/DocPack/internal/models"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Crawl   models.CrawlConfig  `mapstructure:"crawl"`
	Output  models.OutputConfig `mapstructure:"output"`
	Logging LoggingConfig       `mapstructure:"logging"`
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

// LoadConfig 加载配置文件
// configPath为空时搜索默认位置,配置文件不存在则使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".docpack"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &models.ConfigError{FilePath: configPath, Cause: err}
		}
		// 配置文件不存在,使用默认值
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 爬取配置默认值
	v.SetDefault("crawl.wait_time", 3)
	v.SetDefault("crawl.max_pages", 100)
	v.SetDefault("crawl.max_tabs", 4)
	v.SetDefault("crawl.headless", true)
	v.SetDefault("crawl.api_marker", models.DefaultAPIMarker)
	v.SetDefault("crawl.exclude_resources", []string{"image", "media", "font"})

	// 输出配置默认值
	v.SetDefault("output.base_dir", "output")
	v.SetDefault("output.file_name", "data.json")
	v.SetDefault("output.max_file_size_mb", 0)
	v.SetDefault("output.max_tokens", 0)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)
}

// Validate 验证整个配置
func (c *Config) Validate() error {
	if err := c.Crawl.Validate(); err != nil {
		return fmt.Errorf("爬取配置无效: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("输出配置无效: %w", err)
	}
	return nil
}

// RecordsDir 中间记录目录,位于输出根目录下
func (c *Config) RecordsDir() string {
	return filepath.Join(c.Output.BaseDir, "records")
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(
	targetURL string,
	match []string,
	exclude []string,
	maxPages int,
	waitTime int,
	maxTabs int,
	headless bool,
	outputFile string,
	maxFileSizeMB int,
	maxTokens int,
) {
	if targetURL != "" {
		c.Crawl.URL = targetURL
	}
	if len(match) > 0 {
		c.Crawl.Match = match
	}
	if len(exclude) > 0 {
		c.Crawl.Exclude = exclude
	}
	if maxPages > 0 {
		c.Crawl.MaxPages = maxPages
	}
	if waitTime >= 0 {
		c.Crawl.WaitTime = waitTime
	}
	if maxTabs > 0 {
		c.Crawl.MaxTabs = maxTabs
	}
	c.Crawl.Headless = headless
	if outputFile != "" {
		c.Output.FileName = outputFile
	}
	if maxFileSizeMB > 0 {
		c.Output.MaxFileSizeMB = maxFileSizeMB
	}
	if maxTokens > 0 {
		c.Output.MaxTokens = maxTokens
	}
}
