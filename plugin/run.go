package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/donutnomad/gg"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/donutnomad/derivegen/internal/diag"
	"github.com/donutnomad/derivegen/internal/logger"
	"github.com/donutnomad/derivegen/internal/pkgresolver"
	"github.com/donutnomad/derivegen/internal/structparse"
	"github.com/donutnomad/derivegen/internal/utils"
)

// GeneratedHeader 生成文件的头部注释
const GeneratedHeader = "Code generated by derivegen. DO NOT EDIT."

// DiagFormat 诊断输出格式
type DiagFormat string

const (
	FormatText DiagFormat = "text"
	FormatJSON DiagFormat = "json"
)

// RunOptions 一次生成的全部输入
type RunOptions struct {
	Registry *Registry // 默认 Global()
	Patterns []string
	Verbose  bool

	Output        string            // 运行级默认输出路径，优先级最低
	PluginOutputs map[string]string // 按插件名指定，优先于 Output
	Async         bool              // 各生成器并发执行

	// DryRun 只渲染不写文件，结果放在 RunStats.Outputs
	DryRun bool

	Format  DiagFormat // 默认 text
	Color   bool
	BaseDir string    // 诊断中的路径相对于该目录输出
	Stderr  io.Writer // 默认 os.Stderr
	Logger  *charmlog.Logger
}

// RunStats 运行统计
type RunStats struct {
	ScanDuration     time.Duration
	GenerateDuration time.Duration
	TotalDuration    time.Duration
	TargetCount      int
	FileCount        int

	// Outputs DryRun 时的渲染结果，key: 输出路径
	Outputs map[string][]byte
	// Diagnostics 源码诊断，按文件与位置排序
	Diagnostics []diag.Diagnostic
}

func RunWithOptions(ctx context.Context, opts *RunOptions) error {
	_, err := RunWithOptionsAndStats(ctx, opts)
	return err
}

// RunWithOptionsAndStats 扫描、分发、生成并写出文件
//
// 单个声明的错误不会中断其他声明；所有诊断在最后统一输出，
// 有任何诊断或错误时返回非 nil 错误，stats 仍然有效。
func RunWithOptionsAndStats(ctx context.Context, opts *RunOptions) (*RunStats, error) {
	p := newPipeline(opts)
	if len(p.registry.Annotations()) == 0 {
		return nil, errors.New("没有已注册的生成器")
	}
	start := time.Now()

	scan, err := NewScanner(
		WithAnnotationFilter(p.registry.Annotations()...),
		WithScannerVerbose(opts.Verbose),
		WithScannerLogger(p.log),
	).Scan(ctx, opts.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("扫描失败: %w", err)
	}
	p.stats.ScanDuration = time.Since(start)
	p.stats.TargetCount = len(scan.All())

	if p.stats.TargetCount == 0 {
		if opts.Verbose {
			p.log.Info("没有找到任何带注解的目标")
		}
		p.stats.TotalDuration = time.Since(start)
		return p.stats, nil
	}
	if opts.Verbose {
		p.log.Info("扫描完成", "targets", p.stats.TargetCount, "duration", p.stats.ScanDuration)
	}

	genStart := time.Now()
	jobs := p.bind(scan)
	results := p.execute(ctx, scan, jobs)
	p.emit(p.collect(jobs, results))
	p.stats.GenerateDuration = time.Since(genStart)
	p.stats.TotalDuration = time.Since(start)

	return p.finish()
}

// pipeline 一次运行的状态
type pipeline struct {
	opts     *RunOptions
	registry *Registry
	log      *charmlog.Logger
	stats    *RunStats
	errs     []error
}

func newPipeline(opts *RunOptions) *pipeline {
	p := &pipeline{
		opts:     opts,
		registry: opts.Registry,
		log:      opts.Logger,
		stats:    &RunStats{},
	}
	if p.registry == nil {
		p.registry = Global()
	}
	if p.log == nil {
		p.log = logger.Default()
	}
	return p
}

// job 一个生成器及分发给它的目标
type job struct {
	gen     Generator
	targets []*AnnotatedTarget
}

// bind 按优先级排列生成器，并把注解参数解析到各自的参数结构体
// 目标对每个生成器复制一份，ParsedParams 互不影响；参数错误的目标不参与生成
func (p *pipeline) bind(scan *ScanResult) []job {
	dispatch := p.registry.DispatchTargets(scan)
	gens := lo.FilterMap(lo.Keys(dispatch), func(name string, _ int) (Generator, bool) {
		return p.registry.GetByName(name)
	})
	slices.SortFunc(gens, comparePriority)

	jobs := make([]job, 0, len(gens))
	for _, gen := range gens {
		j := job{gen: gen}
		for _, shared := range dispatch[gen.Name()] {
			target := &AnnotatedTarget{Target: shared.Target, Annotations: shared.Annotations}
			if err := bindParams(gen, target); err != nil {
				p.errs = append(p.errs, fmt.Errorf("%s: 解析参数失败: %w", target.Target.Name, err))
				continue
			}
			j.targets = append(j.targets, target)
		}
		jobs = append(jobs, j)
	}
	return jobs
}

func bindParams(gen Generator, target *AnnotatedTarget) error {
	params := gen.NewParams()
	if params == nil {
		return nil
	}
	ann, ok := lo.Find(target.Annotations, func(a *Annotation) bool {
		return slices.Contains(gen.Annotations(), a.Name)
	})
	if !ok {
		return nil
	}
	val := reflect.ValueOf(params)
	if val.Kind() != reflect.Pointer {
		return fmt.Errorf("NewParams() 必须返回指针类型, 得到: %T", params)
	}
	if err := ParseAnnotationParams(ann, params, gen.ParamDefs()); err != nil {
		return err
	}
	target.ParsedParams = val.Elem().Interface()
	return nil
}

// execute 执行生成器，结果与 jobs 一一对应；失败的生成器结果为 nil
func (p *pipeline) execute(ctx context.Context, scan *ScanResult, jobs []job) []*GenerateResult {
	// 同一文件只解析一次；包名按第一个目标所在模块解析
	parser := structparse.NewParseContext(
		structparse.WithPackageNamer(pkgresolver.New(filepath.Dir(scan.All()[0].Target.FilePath))),
	)

	results := make([]*GenerateResult, len(jobs))
	errs := make([]error, len(jobs))
	run := func(i int) {
		j := jobs[i]
		log := p.log.WithPrefix(j.gen.Name())
		if p.opts.Verbose {
			log.Info("执行生成器", "targets", len(j.targets))
		}
		start := time.Now()
		results[i], errs[i] = j.gen.Generate(&GenerateContext{
			Targets:        j.targets,
			PackageConfigs: scan.PackageConfigs,
			DefaultOutput:  p.opts.Output,
			PluginOutputs:  p.opts.PluginOutputs,
			Verbose:        p.opts.Verbose,
			Parser:         parser,
			Logger:         log,
		})
		if p.opts.Verbose {
			log.Info("生成器执行完成", "duration", time.Since(start))
		}
	}

	if p.opts.Async {
		g, _ := errgroup.WithContext(ctx)
		for i := range jobs {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range jobs {
			run(i)
		}
	}

	for i, err := range errs {
		if err != nil {
			p.errs = append(p.errs, fmt.Errorf("生成器 %s 执行失败: %w", jobs[i].gen.Name(), err))
			results[i] = nil
		}
	}
	return results
}

// collect 按输出路径汇总各生成器的定义，保持生成器优先级顺序
func (p *pipeline) collect(jobs []job, results []*GenerateResult) map[string][]section {
	files := make(map[string][]section)
	for i, res := range results {
		if res == nil {
			continue
		}
		for path, def := range res.Definitions {
			files[path] = append(files[path], section{generator: jobs[i].gen.Name(), def: def})
		}
		p.errs = append(p.errs, res.Errors...)
	}
	return files
}

// emit 按路径顺序合并、格式化并写出（或在 DryRun 时保存）
func (p *pipeline) emit(files map[string][]section) {
	paths := lo.Keys(files)
	slices.Sort(paths)
	if p.opts.DryRun {
		p.stats.Outputs = make(map[string][]byte, len(paths))
	}

	for _, path := range paths {
		merged, err := mergeSections(files[path])
		if err != nil {
			p.errs = append(p.errs, fmt.Errorf("合并文件 %s 的定义失败: %w", path, err))
			continue
		}

		if p.opts.DryRun {
			out, err := utils.Format(path, merged.Bytes())
			if err != nil {
				p.errs = append(p.errs, err)
				continue
			}
			p.stats.Outputs[path] = out
			p.stats.FileCount++
			continue
		}

		if err := writeOutput(path, merged); err != nil {
			p.errs = append(p.errs, fmt.Errorf("写入文件 %s 失败: %w", path, err))
			continue
		}
		p.stats.FileCount++
		p.log.Info("生成文件", "path", path)
	}
}

// finish 源码诊断按诊断格式输出，其余错误写日志
func (p *pipeline) finish() (*RunStats, error) {
	var others []error
	for _, err := range p.errs {
		if d, ok := diag.As(err); ok {
			p.stats.Diagnostics = append(p.stats.Diagnostics, *d)
			continue
		}
		others = append(others, err)
	}
	slices.SortStableFunc(p.stats.Diagnostics, func(a, b diag.Diagnostic) int {
		if c := strings.Compare(a.Span.Start.Filename, b.Span.Start.Filename); c != 0 {
			return c
		}
		return a.Span.Start.Offset - b.Span.Start.Offset
	})

	if err := p.report(); err != nil {
		others = append(others, fmt.Errorf("输出诊断失败: %w", err))
	}
	for _, err := range others {
		p.log.Error(err.Error())
	}

	if n := len(p.stats.Diagnostics) + len(others); n > 0 {
		return p.stats, fmt.Errorf("生成过程中出现 %d 个错误", n)
	}
	return p.stats, nil
}

func (p *pipeline) report() error {
	diags := p.stats.Diagnostics
	if len(diags) == 0 {
		return nil
	}
	w := p.opts.Stderr
	if w == nil {
		w = os.Stderr
	}
	if p.opts.Format == FormatJSON {
		return diag.JSON(w, diags)
	}
	diag.Pretty(w, diags, diag.PrettyOpts{Color: p.opts.Color, BaseDir: p.opts.BaseDir})
	return nil
}

// section 一个生成器对某个输出文件贡献的定义
type section struct {
	generator string
	def       *gg.Generator
}
