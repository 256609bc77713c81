package buildergen

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/davecgh/go-spew/spew"
	"github.com/samber/lo"

	"github.com/donutnomad/derivegen/internal/logger"
	"github.com/donutnomad/derivegen/internal/structparse"
	"github.com/donutnomad/derivegen/plugin"
)

const (
	generatorName  = "builder"
	annotationName = "Builder"
)

// BuilderParams 定义 Builder 注解支持的参数
type BuilderParams struct {
	Name string `param:"name=name,required=false,default={{.Name}}Builder,description=构建器类型名模板（text/template + sprig）"`
	Ctor string `param:"name=ctor,required=false,default=New{{.Name}}Builder,description=构造函数名模板（text/template + sprig）"`
}

// BuilderGenerator 实现 plugin.Generator 接口
type BuilderGenerator struct {
	plugin.BaseGenerator
}

func NewBuilderGenerator() *BuilderGenerator {
	return &BuilderGenerator{
		BaseGenerator: *plugin.NewBaseGenerator(
			generatorName,
			[]string{annotationName},
			// 非结构体也要分发进来，由解析器给出 UnsupportedShape 诊断
			[]plugin.TargetKind{plugin.TargetStruct, plugin.TargetInterface, plugin.TargetType},
			plugin.WithParams(BuilderParams{}),
			plugin.WithPriority(10),
		),
	}
}

// Generate 执行代码生成
// 单个声明失败只记录诊断，不影响其他声明
func (g *BuilderGenerator) Generate(ctx *plugin.GenerateContext) (*plugin.GenerateResult, error) {
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

	// 扫描是并行的，先按文件与位置排序保证输出稳定
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

		var params BuilderParams
		if at.ParsedParams != nil {
			var ok bool
			params, ok = at.ParsedParams.(BuilderParams)
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
			log.Debug("解析声明", "type", decl.Name, "fields", spew.Sdump(fieldSummary(decl)))
		}

		frag, err := Synthesize(decl, Options{NameTemplate: params.Name, CtorTemplate: params.Ctor})
		if err != nil {
			result.AddError(fmt.Errorf("生成 %s 的构建器失败: %w", decl.Name, err))
			continue
		}

		pkgConfig := ctx.GetPackageConfig(at.Target.FilePath)
		outputPath := plugin.GetOutputPath(at.Target, ann, "$FILE_builder.go", pkgConfig, g.Name(), ctx.OutputFor(g.Name()))
		result.AddDefinition(outputPath, frag)

		if ctx.Verbose {
			log.Info("生成构建器", "type", decl.Name, "output", outputPath)
		}
	}

	return result, nil
}

func fieldSummary(decl *structparse.Declaration) []string {
	return lo.Map(decl.Fields, func(f structparse.Field, _ int) string {
		return f.Name + " " + f.Type
	})
}
