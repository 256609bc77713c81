package plugin

import (
	"bufio"
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/donutnomad/derivegen/internal/logger"
)

// Scanner 两阶段并行扫描
//
// 第一阶段只按行查找注释中的 @Name 与 go:derivegen:，
// 第二阶段只对命中的文件做 AST 解析，收集带注解的类型声明。
type Scanner struct {
	workers int
	verbose bool
	log     *charmlog.Logger
	filter  []string // 为空时接受任意注解
}

type ScannerOption func(*Scanner)

func WithWorkers(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithScannerVerbose(v bool) ScannerOption {
	return func(s *Scanner) { s.verbose = v }
}

func WithScannerLogger(l *charmlog.Logger) ScannerOption {
	return func(s *Scanner) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAnnotationFilter 只保留这些注解，通常传 Registry.Annotations()
func WithAnnotationFilter(annotations ...string) ScannerOption {
	return func(s *Scanner) { s.filter = annotations }
}

func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{
		workers: runtime.GOMAXPROCS(0),
		log:     logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan 扫描路径模式：./...、./pkg/...、./pkg、单个 .go 文件
// 结果按文件路径与声明顺序排列
func (s *Scanner) Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	files, err := collectFiles(patterns)
	if err != nil {
		return nil, err
	}

	hits, err := parallel(ctx, s.workers, files, func(file string) (bool, error) {
		ok, err := s.QuickMatchFile(file)
		if err != nil {
			s.log.Debug("读取文件失败，已跳过", "file", file, "err", err)
			return false, nil
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	matched := lo.Filter(files, func(_ string, i int) bool { return hits[i] })
	if s.verbose {
		s.log.Debug("快速匹配完成", "files", len(files), "matched", len(matched))
	}

	parsed, err := parallel(ctx, s.workers, matched, func(file string) (*fileResult, error) {
		r, err := s.parseFile(file)
		if err != nil {
			s.log.Warn("解析文件失败，已跳过", "file", file, "err", err)
			return nil, nil
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	result := &ScanResult{PackageConfigs: make(map[string]*PackageConfig)}
	for _, r := range parsed {
		if r == nil {
			continue
		}
		result.Structs = append(result.Structs, r.structs...)
		result.Interfaces = append(result.Interfaces, r.interfaces...)
		result.Types = append(result.Types, r.types...)
		if r.pkgConfig != nil {
			s.mergePackageConfig(result.PackageConfigs, r.pkgConfig)
		}
	}
	return result, nil
}

// parallel 用有限的 worker 对 items 逐个执行 fn，结果与输入一一对应
func parallel[T, R any](ctx context.Context, workers int, items []T, fn func(T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r, err := fn(item)
			out[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, ctx.Err()
}

// QuickMatchFile 注释中是否出现过滤器内的注解或 go:derivegen: 指令
// dev 模式据此判断文件变动是否需要重新生成
func (s *Scanner) QuickMatchFile(filePath string) (bool, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "//") && !strings.HasPrefix(line, "/*") {
			continue
		}
		if strings.Contains(line, directivePrefix) {
			return true, nil
		}
		if lo.SomeBy(scanLine(strings.TrimPrefix(line, "//")), s.accepts) {
			return true, nil
		}
	}
	return false, sc.Err()
}

func (s *Scanner) accepts(ann *Annotation) bool {
	return len(s.filter) == 0 || slices.Contains(s.filter, ann.Name)
}

// mergePackageConfig 同一包多个文件写了指令时合并，冲突时后解析的生效
func (s *Scanner) mergePackageConfig(configs map[string]*PackageConfig, cfg *PackageConfig) {
	existing, ok := configs[cfg.PackageDir]
	if !ok {
		configs[cfg.PackageDir] = cfg
		return
	}
	if cfg.DefaultOutput != "" {
		if existing.DefaultOutput != "" && existing.DefaultOutput != cfg.DefaultOutput {
			s.log.Warn("包中存在多个不同的 go:derivegen 默认输出配置，使用后发现的配置", "package", cfg.PackageDir)
		}
		existing.DefaultOutput = cfg.DefaultOutput
	}
	for name, output := range cfg.PluginOutputs {
		if prev, ok := existing.PluginOutputs[name]; ok && prev != output {
			s.log.Warn("插件存在多个不同的输出配置，使用后发现的配置", "package", cfg.PackageDir, "plugin", name)
		}
		existing.PluginOutputs[name] = output
	}
}

type fileResult struct {
	structs    []*AnnotatedTarget
	interfaces []*AnnotatedTarget
	types      []*AnnotatedTarget
	pkgConfig  *PackageConfig
}

// parseFile 生成的文件直接跳过
func (s *Scanner) parseFile(filePath string) (*fileResult, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	result := &fileResult{}
	if ast.IsGenerated(file) {
		return result, nil
	}

	result.pkgConfig = s.parsePackageConfig(file, filePath)
	for _, decl := range file.Decls {
		if d, ok := decl.(*ast.GenDecl); ok && d.Tok == token.TYPE {
			s.collectTypes(filePath, file.Name.Name, d, result)
		}
	}
	return result, nil
}

// collectTypes type ( ... ) 分组中的注释挂在各自的 TypeSpec 上，单独声明的注释挂在 GenDecl 上
func (s *Scanner) collectTypes(filePath, packageName string, decl *ast.GenDecl, result *fileResult) {
	for _, spec := range decl.Specs {
		typeSpec, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}
		doc := typeSpec.Doc
		if doc == nil && !decl.Lparen.IsValid() {
			doc = decl.Doc
		}
		if doc == nil {
			continue
		}
		annotations := lo.Filter(ParseAnnotations(doc.Text()), func(a *Annotation, _ int) bool { return s.accepts(a) })
		if len(annotations) == 0 {
			continue
		}

		at := &AnnotatedTarget{
			Target: &Target{
				Kind:        kindOf(typeSpec),
				Name:        typeSpec.Name.Name,
				PackageName: packageName,
				FilePath:    filePath,
				Position:    typeSpec.Pos(),
			},
			Annotations: annotations,
		}
		switch at.Target.Kind {
		case TargetStruct:
			result.structs = append(result.structs, at)
		case TargetInterface:
			result.interfaces = append(result.interfaces, at)
		default:
			result.types = append(result.types, at)
		}
	}
}

// kindOf 指向结构体字面量的别名也算 TargetType
func kindOf(spec *ast.TypeSpec) TargetKind {
	switch spec.Type.(type) {
	case *ast.StructType:
		if spec.Assign.IsValid() {
			return TargetType
		}
		return TargetStruct
	case *ast.InterfaceType:
		return TargetInterface
	default:
		return TargetType
	}
}

// collectFiles 展开路径模式，跳过测试文件以及隐藏、vendor、testdata 目录
func collectFiles(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		if pattern == "..." {
			pattern = "./..."
		}
		root, recursive := strings.CutSuffix(pattern, "/...")
		if root == "" {
			root = "."
		}
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(absRoot)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if strings.HasSuffix(absRoot, ".go") {
				add(absRoot)
			}
			continue
		}

		err = filepath.WalkDir(absRoot, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == absRoot {
					return nil
				}
				name := d.Name()
				if !recursive || strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata" {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go") {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
