package debuggen

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/davecgh/go-spew/spew"
	"github.com/samber/lo"

	"github.com/donutnomad/derivegen/internal/logger"
	"github.com/donutnomad/derivegen/internal/shape"
	"github.com/donutnomad/derivegen/internal/structparse"
	"github.com/donutnomad/derivegen/plugin"
)

const (
	generatorName  = "debug"
	annotationName = "CustomDebug"
)

// DebugParams 定义 CustomDebug 注解支持的参数
type DebugParams struct {
	Method string `param:"name=method,required=false,default=GoString,description=生成的方法名（GoString 或 String）"`
}

// DebugGenerator 实现 plugin.Generator 接口
type DebugGenerator struct {
	plugin.BaseGenerator
}

func NewDebugGenerator() *DebugGenerator {
	return &DebugGenerator{
		BaseGenerator: *plugin.NewBaseGenerator(
			generatorName,
			[]string{annotationName},
			[]plugin.TargetKind{plugin.TargetStruct, plugin.TargetInterface, plugin.TargetType},
			plugin.WithParams(DebugParams{}),
			plugin.WithPriority(20),
		),
	}
}

// Generate 执行代码生成
func (g *DebugGenerator) Generate(ctx *plugin.GenerateContext) (*plugin.GenerateResult, error) {
	result := plugin.NewGenerateResult()
	if len(ctx.Targets) == 0 {
		return result, nil
	}

	parser := ctx.Parser
	if parser == nil {
		parser = structparse.NewParseContext()
	}
	log := ctx.Logger
	if log == nil {
		log = logger.Default()
	}

	targets := slices.Clone(ctx.Targets)
	slices.SortFunc(targets, func(a, b *plugin.AnnotatedTarget) int {
		return cmp.Or(
			cmp.Compare(a.Target.FilePath, b.Target.FilePath),
			cmp.Compare(a.Target.Position, b.Target.Position),
		)
	})

	for _, at := range targets {
		ann := plugin.GetAnnotation(at.Annotations, annotationName)
		if ann == nil {
			continue
		}

		var params DebugParams
		if at.ParsedParams != nil {
			var ok bool
			params, ok = at.ParsedParams.(DebugParams)
			if !ok {
				result.AddError(fmt.Errorf("ParsedParams 类型断言失败: %T", at.ParsedParams))
				continue
			}
		}

		decl, err := parser.ParseStruct(at.Target.FilePath, at.Target.Name)
		if err != nil {
			result.AddError(fmt.Errorf("解析 %s 失败: %w", at.Target.Name, err))
			continue
		}
		if ctx.Verbose {
			if shapes, err := shape.ClassifyDecl(decl); err == nil {
				log.Debug("字段形状", "type", decl.Name, "shapes", spew.Sdump(lo.Map(shapes, func(s shape.Shape, _ int) string {
					return s.String()
				})))
			}
		}

		frag, err := Synthesize(decl, Options{Method: params.Method})
		if err != nil {
			result.AddError(fmt.Errorf("生成 %s 的 %s 方法失败: %w", decl.Name, cmp.Or(params.Method, MethodGoString), err))
			continue
		}

		pkgConfig := ctx.GetPackageConfig(at.Target.FilePath)
		outputPath := plugin.GetOutputPath(at.Target, ann, "$FILE_debug.go", pkgConfig, g.Name(), ctx.OutputFor(g.Name()))
		result.AddDefinition(outputPath, frag)

		if ctx.Verbose {
			log.Info("生成格式化方法", "type", decl.Name, "output", outputPath)
		}
	}

	return result, nil
}
