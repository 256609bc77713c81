package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/donutnomad/derivegen/buildergen"
	"github.com/donutnomad/derivegen/debuggen"
	"github.com/donutnomad/derivegen/internal/config"
	"github.com/donutnomad/derivegen/internal/logger"
	"github.com/donutnomad/derivegen/plugin"
)

func init() {
	// 集中注册所有生成器
	plugin.MustRegister(buildergen.NewBuilderGenerator())
	plugin.MustRegister(debuggen.NewDebugGenerator())
}

const defaultDebounce = 5 * time.Second

var rootCmd = &cobra.Command{
	Use:   "derivegen [路径...]",
	Short: "根据 @Builder / @CustomDebug 注解生成 Go 代码",
	Long: `derivegen - 注解驱动的 Go 代码生成工具

路径支持 Go 包路径模式，如 ./...（默认）、./pkg/...、./models`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runGen,
}

var genCmd = &cobra.Command{
	Use:   "gen [路径...]",
	Short: "执行代码生成（默认命令）",
	Args:  cobra.ArbitraryArgs,
	RunE:  runGen,
}

func main() {
	rootCmd.AddCommand(genCmd, checkCmd, devCmd)

	registerFlags(rootCmd.PersistentFlags())

	rootCmd.Long += "\n\n支持的注解:\n" + plugin.FormatHelpText(plugin.Global()) + `模板变量:
  $FILE     - 源文件名（不含 .go 后缀）
  $PACKAGE  - 包名

示例:
  derivegen                          扫描当前目录（默认 ./...）
  derivegen -v ./models/...          详细模式扫描 models 目录
  derivegen --output '$FILE_gen' .   所有生成器输出到同一个文件
  derivegen check ./...              检查生成文件是否过期
  derivegen dev ./...                开发模式，监听文件变动`

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errStale) {
			fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		}
		os.Exit(1)
	}
}

func registerFlags(flags *pflag.FlagSet) {
	flags.BoolP("verbose", "v", false, "详细输出")
	flags.String("output", "", "默认输出路径（支持模板变量 $FILE, $PACKAGE）")
	flags.Bool("no-output", false, "禁用默认输出（每个生成器输出到独立文件）")
	flags.Bool("async", true, "并发执行生成器")
	flags.String("format", "text", "诊断输出格式 (text|json)")
	flags.String("color", "auto", "诊断着色 (auto|on|off)")
	flags.String("log-level", "info", "日志级别 (debug|info|warn|error)")
	flags.String("config", "", "配置文件路径（默认向上查找 "+config.FileName+"）")
}

// settings 合并配置文件与命令行参数后的运行设置
type settings struct {
	Verbose       bool
	Output        string
	PluginOutputs map[string]string
	Async         bool
	Format        plugin.DiagFormat
	Color         string // auto / on / off
	LogLevel      logger.Level
	Debounce      time.Duration
}

// resolveSettings 命令行参数优先于配置文件，配置文件优先于参数默认值
func resolveSettings(flags *pflag.FlagSet, cfg *config.Config) (*settings, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	s := &settings{PluginOutputs: cfg.Outputs}

	pick := func(name, fromConfig string) string {
		v, _ := flags.GetString(name)
		if flags.Changed(name) || fromConfig == "" {
			return v
		}
		return fromConfig
	}

	s.Verbose, _ = flags.GetBool("verbose")
	s.Output = pick("output", cfg.Output)
	if noOutput, _ := flags.GetBool("no-output"); noOutput {
		s.Output = ""
	}

	s.Async, _ = flags.GetBool("async")
	if !flags.Changed("async") && cfg.Async != nil {
		s.Async = *cfg.Async
	}

	s.Format = plugin.DiagFormat(pick("format", cfg.Format))
	if s.Format != plugin.FormatText && s.Format != plugin.FormatJSON {
		return nil, fmt.Errorf("--format 必须是 text 或 json，得到 %q", s.Format)
	}

	s.Color = pick("color", cfg.Color)
	if !lo.Contains([]string{"auto", "on", "off"}, s.Color) {
		return nil, fmt.Errorf("--color 必须是 auto、on 或 off，得到 %q", s.Color)
	}

	s.LogLevel = logger.Level(strings.ToLower(pick("log-level", cfg.LogLevel)))
	if !s.LogLevel.Valid() {
		return nil, fmt.Errorf("未知的日志级别 %q", s.LogLevel)
	}
	if s.Verbose && s.LogLevel != logger.DebugLevel {
		s.LogLevel = logger.DebugLevel
	}

	debounce, err := cfg.DebounceDuration(defaultDebounce)
	if err != nil {
		return nil, err
	}
	s.Debounce = debounce
	return s, nil
}

// useColor auto 时只有 stderr 是终端才着色
func (s *settings) useColor() bool {
	return s.Color == "on" || (s.Color == "auto" && term.IsTerminal(int(os.Stderr.Fd())))
}

// runOptions 转换为 plugin.RunOptions
func (s *settings) runOptions(patterns []string) *plugin.RunOptions {
	baseDir, _ := os.Getwd()
	return &plugin.RunOptions{
		Registry:      plugin.Global(),
		Patterns:      patterns,
		Verbose:       s.Verbose,
		Output:        s.Output,
		PluginOutputs: s.PluginOutputs,
		Async:         s.Async,
		Format:        s.Format,
		Color:         s.useColor(),
		BaseDir:       baseDir,
		Stderr:        os.Stderr,
		Logger:        logger.Default(),
	}
}

// loadSettings 读取配置文件并初始化日志
func loadSettings(cmd *cobra.Command) (*settings, error) {
	flags := cmd.Flags()
	explicit, _ := flags.GetString("config")
	cfg, err := config.Resolve(explicit, ".")
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	s, err := resolveSettings(flags, cfg)
	if err != nil {
		return nil, err
	}
	logger.Init(&logger.Config{
		Level:      s.LogLevel,
		Output:     os.Stderr,
		TimeFormat: logger.DefaultConfig().TimeFormat,
	})
	if cfg.Path != "" {
		logger.Default().Debug("使用配置文件", "path", cfg.Path)
	}
	return s, nil
}

func patternsOrDefault(args []string) []string {
	if len(args) == 0 {
		return []string{"./..."}
	}
	return args
}

func runGen(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log := logger.Default()

	registry := plugin.Global()
	if len(registry.Generators()) == 0 {
		return errors.New("没有已注册的生成器")
	}
	if s.Verbose {
		for _, gen := range registry.Generators() {
			anns := lo.Map(gen.Annotations(), func(item string, _ int) string { return "@" + item })
			log.Info("已注册生成器", "name", gen.Name(), "annotations", strings.Join(anns, ","))
		}
	}

	stats, err := plugin.RunWithOptionsAndStats(context.Background(), s.runOptions(patternsOrDefault(args)))
	if stats != nil && (stats.FileCount > 0 || s.Verbose) {
		log.Info("统计", "targets", stats.TargetCount, "files", stats.FileCount,
			"scan", stats.ScanDuration, "generate", stats.GenerateDuration, "total", stats.TotalDuration)
	}
	return err
}
