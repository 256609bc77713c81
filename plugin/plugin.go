package plugin

import "reflect"

// DefaultPriority 未设置优先级的生成器
const DefaultPriority = 100

// Generator 注解驱动的代码生成器
//
// 扫描器把带注解的声明交给绑定该注解的生成器；生成器只返回 gg 定义，
// 合并、格式化与写文件由 Run 统一处理。
type Generator interface {
	Name() string

	// Annotations 绑定的注解名（不含 @），一个注解只能绑定一个生成器
	Annotations() []string

	// SupportedTargets 接受的声明种类
	// 派生类生成器同时接受 TargetInterface 与 TargetType，以便对不支持的形状给出诊断
	SupportedTargets() []TargetKind

	ParamDefs() []ParamDef

	// NewParams 返回参数结构体的新指针，nil 表示没有参数
	NewParams() any

	// Priority 数字越小越靠前，多个生成器写同一文件时按此排列
	Priority() int

	Generate(ctx *GenerateContext) (*GenerateResult, error)
}

// BaseGenerator 元信息部分的通用实现，嵌入后只需实现 Generate
type BaseGenerator struct {
	name        string
	annotations []string
	targets     []TargetKind
	paramDefs   []ParamDef
	paramsType  reflect.Type
	priority    int
}

// BaseOption BaseGenerator 选项
type BaseOption func(*BaseGenerator)

// WithParams 用参数结构体声明注解参数，proto 可以是值或指针
//
//	type BuilderParams struct {
//		Name string `param:"name=name,required=false,description=..."`
//	}
//	plugin.NewBaseGenerator("builder", []string{"Builder"}, targets, plugin.WithParams(BuilderParams{}))
func WithParams(proto any) BaseOption {
	return func(g *BaseGenerator) {
		g.paramDefs = ParseParamsFromStruct(proto)
		typ := reflect.TypeOf(proto)
		for typ.Kind() == reflect.Pointer {
			typ = typ.Elem()
		}
		g.paramsType = typ
	}
}

// WithParamDefs 只声明参数（用于帮助信息），不创建参数结构体
func WithParamDefs(defs []ParamDef) BaseOption {
	return func(g *BaseGenerator) {
		g.paramDefs = defs
	}
}

func WithPriority(priority int) BaseOption {
	return func(g *BaseGenerator) {
		g.priority = priority
	}
}

func NewBaseGenerator(name string, annotations []string, targets []TargetKind, opts ...BaseOption) *BaseGenerator {
	g := &BaseGenerator{
		name:        name,
		annotations: annotations,
		targets:     targets,
		priority:    DefaultPriority,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *BaseGenerator) Name() string                   { return g.name }
func (g *BaseGenerator) Annotations() []string          { return g.annotations }
func (g *BaseGenerator) SupportedTargets() []TargetKind { return g.targets }
func (g *BaseGenerator) ParamDefs() []ParamDef          { return g.paramDefs }
func (g *BaseGenerator) Priority() int                  { return g.priority }

// NewParams 每次返回参数结构体的新指针，各目标互不影响
func (g *BaseGenerator) NewParams() any {
	if g.paramsType == nil {
		return nil
	}
	return reflect.New(g.paramsType).Interface()
}
