package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/DocPack/internal/core"
	"github.com/RecoveryAshes/DocPack/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile     string
	verbose        bool
	logLevel       string
	validateConfig bool

	// 爬取参数
	targetURL   string
	match       []string
	exclude     []string
	maxPages    int
	waitTime    int
	maxTabs     int
	headless    bool
	cliCookies  []string
	skipCrawl   bool

	// 输出参数
	outputFile    string
	maxFileSizeMB int
	maxTokens     int
)

var rootCmd = &cobra.Command{
	Use:   "docpack",
	Short: "文档站点内容采集和打包工具",
	Long: `DocPack - 文档站点内容采集和打包工具

通过无头浏览器遍历文档站点,捕获页面加载时的内部API响应,
提取其中的结构化文本,打包成大小受控的JSON文件,支持:
  • 响应式渲染站点的动态内容采集
  • sitemap自动展开
  • glob模式的链接过滤
  • 登录态Cookie注入
  • 按字节和token双重上限分批输出

使用示例:
  # 基本采集
  docpack -u https://docs.example.com -m "https://docs.example.com/**"

  # 限制单文件大小并注入登录Cookie
  docpack -u https://docs.example.com -m "**/guide/**" \
    --max-file-size 5 --max-tokens 100000 -C "session_id=abc123"

  # 只对已有记录重新分批写出
  docpack --skip-crawl -o data.json --max-tokens 50000

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

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
		if verbose {
			logConfig.Level = "debug"
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		config.MergeCLIFlags(
			targetURL, match, exclude,
			maxPages, waitTime, maxTabs, headless,
			outputFile, maxFileSizeMB, maxTokens,
		)

		// 没有任何输入时显示帮助
		if config.Crawl.URL == "" && !skipCrawl && !validateConfig {
			return cmd.Help()
		}

		cookieManager, err := core.NewCookieManager(config.Crawl.Cookies, cliCookies)
		if err != nil {
			return fmt.Errorf("解析Cookie失败: %w", err)
		}
		config.Crawl.Cookies = cookieManager.Cookies()

		// 如果用户请求验证配置
		if validateConfig {
			utils.Info("🔍 验证配置...")
			if err := config.Validate(); err != nil {
				return fmt.Errorf("配置验证失败: %w", err)
			}
			if err := cookieManager.Validate(); err != nil {
				return fmt.Errorf("Cookie验证失败: %w", err)
			}
			utils.Info("✅ 配置验证通过!")
			if cookies := cookieManager.Cookies(); len(cookies) > 0 {
				utils.Infof("当前有效的Cookie (%d个): %s", len(cookies), cookieManager.SafeString())
			}
			return nil
		}

		if !skipCrawl {
			if err := ValidateFlags(config); err != nil {
				return err
			}
		}

		runner := core.NewRunner(config, cookieManager, skipCrawl)

		// Ctrl+C优雅退出: 中止爬取但保留已采集记录,写出阶段照常执行
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-sigChan
			utils.Warnf("收到中断信号: %v, 正在停止爬取...", sig)
			runner.Stop()
		}()

		if err := runner.Run(); err != nil {
			return fmt.Errorf("任务执行失败: %w", err)
		}

		utils.Info("✨ 采集任务完成!")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("DocPack %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置和Cookie后退出")

	// 爬取参数
	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "种子URL (sitemap URL会自动展开)")
	rootCmd.Flags().StringSliceVarP(&match, "match", "m", []string{}, "链接匹配glob模式,可多次指定")
	rootCmd.Flags().StringSliceVarP(&exclude, "exclude", "e", []string{}, "链接排除glob模式,可多次指定")
	rootCmd.Flags().IntVarP(&maxPages, "max-pages", "p", 0, "最大爬取页面数")
	rootCmd.Flags().IntVarP(&waitTime, "wait", "w", -1, "页面加载后等待时间(秒)")
	rootCmd.Flags().IntVar(&maxTabs, "tabs", 0, "浏览器标签页数上限")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().StringSliceVarP(&cliCookies, "cookie", "C", []string{}, "注入的Cookie,格式: name=value,可多次指定")
	rootCmd.Flags().BoolVar(&skipCrawl, "skip-crawl", false, "跳过爬取,只对已有记录执行分批写出")

	// 输出参数
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "输出文件名 (如 data.json)")
	rootCmd.Flags().IntVar(&maxFileSizeMB, "max-file-size", 0, "单文件最大大小(MB,0=不限)")
	rootCmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "单文件最大token数(0=不限)")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
