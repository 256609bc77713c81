package main

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/donutnomad/derivegen/internal/logger"
	"github.com/donutnomad/derivegen/plugin"
)

var devCmd = &cobra.Command{
	Use:   "dev [路径...]",
	Short: "开发模式，监听文件变动自动生成",
	Args:  cobra.ArbitraryArgs,
	RunE:  runDev,
}

func runDev(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if len(plugin.Global().Generators()) == 0 {
		return fmt.Errorf("没有已注册的生成器")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	patterns := patternsOrDefault(args)
	session, err := newDevSession(s.runOptions(patterns), s.Debounce)
	if err != nil {
		return err
	}
	defer session.watcher.Close()

	dirs, err := collectWatchDirs(patterns)
	if err != nil {
		return fmt.Errorf("收集监听目录失败: %w", err)
	}
	if len(dirs) == 0 {
		return fmt.Errorf("没有找到需要监听的目录")
	}
	for _, dir := range dirs {
		if err := session.watch(dir); err != nil {
			return err
		}
	}

	session.log.Info("开发模式已启动，按 Ctrl+C 退出", "dirs", len(dirs), "debounce", s.Debounce)
	session.loop(ctx)
	session.log.Info("已退出")
	return nil
}

// devSession 收集变动的包目录，静默 debounce 之后一次性重新生成
type devSession struct {
	run      *plugin.RunOptions
	debounce time.Duration
	log      *charmlog.Logger
	scanner  *plugin.Scanner
	watcher  *fsnotify.Watcher

	dirty map[string]struct{} // 待生成的包目录
}

func newDevSession(run *plugin.RunOptions, debounce time.Duration) (*devSession, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监听器失败: %w", err)
	}
	log := run.Logger
	if log == nil {
		log = logger.Default()
	}
	registry := run.Registry
	if registry == nil {
		registry = plugin.Global()
	}
	return &devSession{
		run:      run,
		debounce: debounce,
		log:      log,
		scanner: plugin.NewScanner(
			plugin.WithAnnotationFilter(registry.Annotations()...),
			plugin.WithScannerLogger(log),
		),
		watcher: watcher,
		dirty:   make(map[string]struct{}),
	}, nil
}

func (d *devSession) watch(dir string) error {
	if err := d.watcher.Add(dir); err != nil {
		return fmt.Errorf("添加监听目录失败 %s: %w", dir, err)
	}
	d.log.Debug("监听目录", "dir", dir)
	return nil
}

// loop 在 ctx 取消或监听器关闭前一直运行
// 生成在本 goroutine 中同步执行，期间的事件由 fsnotify 缓冲
func (d *devSession) loop(ctx context.Context) {
	timer := time.NewTimer(d.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if d.markDirty(event) {
				timer.Reset(d.debounce)
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.log.Warn("监听错误", "err", err)
		case <-timer.C:
			d.flush(ctx)
		}
	}
}

// markDirty 事件涉及带注解的源文件时记录其目录
// 新建的子目录加入监听
func (d *devSession) markDirty(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !skipWatchDir(info.Name()) {
				if err := d.watch(path); err != nil {
					d.log.Warn(err.Error())
				}
			}
			return false
		}
	}
	if !strings.HasSuffix(path, ".go") || isGeneratedFile(path) {
		return false
	}

	matched, err := d.scanner.QuickMatchFile(path)
	if err != nil || !matched {
		d.log.Debug("跳过文件", "file", path, "err", err)
		return false
	}
	if _, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.AllErrors); err != nil {
		d.log.Error("语法错误，等待修正", "file", path, "err", err)
		return false
	}

	d.log.Debug("检测到文件变化", "file", path)
	d.dirty[filepath.Dir(path)] = struct{}{}
	return true
}

// flush 对所有待生成的目录执行一次生成，诊断已由 Run 输出
func (d *devSession) flush(ctx context.Context) {
	if len(d.dirty) == 0 {
		return
	}
	dirs := slices.Sorted(maps.Keys(d.dirty))
	clear(d.dirty)

	opts := *d.run
	opts.Patterns = dirs
	stats, err := plugin.RunWithOptionsAndStats(ctx, &opts)
	switch {
	case err != nil:
		d.log.Error("生成失败", "dirs", dirs, "err", err)
	case stats.FileCount > 0:
		d.log.Info("生成完成", "files", stats.FileCount, "duration", stats.TotalDuration)
	default:
		d.log.Debug("没有文件需要生成", "dirs", dirs)
	}
}

// collectWatchDirs 展开路径模式得到需要监听的目录，不存在的路径返回错误
func collectWatchDirs(patterns []string) ([]string, error) {
	var dirs []string
	for _, pattern := range patterns {
		if pattern == "..." {
			pattern = "./..."
		}
		root, recursive := strings.CutSuffix(pattern, "/...")
		if root == "" {
			root = "."
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			continue
		}
		if !recursive {
			dirs = append(dirs, abs)
			continue
		}

		err = filepath.WalkDir(abs, func(path string, entry os.DirEntry, err error) error {
			switch {
			case err != nil:
				return err
			case !entry.IsDir():
				return nil
			case path != abs && skipWatchDir(entry.Name()):
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return lo.Uniq(dirs), nil
}

func skipWatchDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata"
}

// generatedSuffixes 默认输出文件与测试文件的后缀
var generatedSuffixes = []string{"_test.go", "_builder.go", "_debug.go"}

// isGeneratedFile 自定义输出路径的文件通过 Code generated 头识别
func isGeneratedFile(path string) bool {
	if lo.SomeBy(generatedSuffixes, func(suffix string) bool { return strings.HasSuffix(path, suffix) }) {
		return true
	}
	file, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.PackageClauseOnly|parser.ParseComments)
	if err != nil {
		return false
	}
	return ast.IsGenerated(file)
}
