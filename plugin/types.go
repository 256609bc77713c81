package plugin

import (
	"go/token"

	charmlog "github.com/charmbracelet/log"
	"github.com/donutnomad/gg"

	"github.com/donutnomad/derivegen/internal/structparse"
)

// TargetKind 带注解声明的种类
type TargetKind int

const (
	TargetStruct    TargetKind = iota + 1
	TargetInterface            // 派生类生成器据此给出 unsupported-shape 诊断
	TargetType                 // 其他具名类型与类型别名
)

var targetKindNames = map[TargetKind]string{
	TargetStruct:    "struct",
	TargetInterface: "interface",
	TargetType:      "type",
}

func (k TargetKind) String() string {
	if name, ok := targetKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParamDef 注解参数定义，来自参数结构体的 param tag
type ParamDef struct {
	Name        string
	Required    bool
	Default     string
	Description string
}

// Annotation 类型注释中的一个 @Name(...)
type Annotation struct {
	Name   string            // Builder、CustomDebug
	Params map[string]string // key 已转小写
	Raw    string
}

// Target 带注解的声明
type Target struct {
	Kind        TargetKind
	Name        string
	PackageName string
	FilePath    string
	Position    token.Pos // 同一文件内排序用
}

// AnnotatedTarget 声明及其注解，ParsedParams 为生成器参数结构体的值（非指针）
type AnnotatedTarget struct {
	Target       *Target
	Annotations  []*Annotation
	ParsedParams any
}

// ScanResult 扫描结果，按声明种类分组
type ScanResult struct {
	Structs    []*AnnotatedTarget
	Interfaces []*AnnotatedTarget
	Types      []*AnnotatedTarget

	// PackageConfigs key: 包目录
	PackageConfigs map[string]*PackageConfig
}

// All 依次返回结构体、接口与其他类型
func (r *ScanResult) All() []*AnnotatedTarget {
	all := make([]*AnnotatedTarget, 0, len(r.Structs)+len(r.Interfaces)+len(r.Types))
	all = append(all, r.Structs...)
	all = append(all, r.Interfaces...)
	return append(all, r.Types...)
}

// GenerateContext 一次 Generate 调用的输入
type GenerateContext struct {
	Targets        []*AnnotatedTarget        // 分发给该生成器的声明
	PackageConfigs map[string]*PackageConfig // key: 包目录
	DefaultOutput  string                    // --output 或配置文件 output
	PluginOutputs  map[string]string         // 配置文件 [outputs]，优先于 DefaultOutput
	Verbose        bool

	// Parser 同一次运行的所有生成器共享，同一文件只解析一次
	Parser *structparse.ParseContext
	Logger *charmlog.Logger
}

// GetPackageConfig 文件所在包的 go:derivegen 配置，可能为 nil
func (c *GenerateContext) GetPackageConfig(filePath string) *PackageConfig {
	return c.PackageConfigs[packageDir(filePath)]
}

// OutputFor 返回插件的运行级输出路径
func (c *GenerateContext) OutputFor(pluginName string) string {
	if output := c.PluginOutputs[pluginName]; output != "" {
		return output
	}
	return c.DefaultOutput
}

// GenerateResult 生成器的输出，合并、格式化与写文件由 Run 处理
type GenerateResult struct {
	// Definitions key: 输出文件路径
	Definitions map[string]*gg.Generator

	// Errors 中的 *diag.Error 按诊断格式输出，其余按普通错误输出
	Errors []error
}

func NewGenerateResult() *GenerateResult {
	return &GenerateResult{Definitions: make(map[string]*gg.Generator)}
}

// AddDefinition 同一路径的定义按添加顺序合并，中间空一行
func (r *GenerateResult) AddDefinition(path string, gen *gg.Generator) {
	if r.Definitions == nil {
		r.Definitions = make(map[string]*gg.Generator)
	}
	existing, ok := r.Definitions[path]
	if !ok {
		r.Definitions[path] = gen
		return
	}
	existing.Body().AddLine()
	existing.Merge(gen)
}

func (r *GenerateResult) AddError(err error) {
	r.Errors = append(r.Errors, err)
}

// PackageConfig 包级输出配置，来自包内任一文件的 go:derivegen 注释
//
//	// go:derivegen: -output `$FILE_gen`
//	// go:derivegen: plugin:builder -output `$FILE_builder` plugin:debug -output `debug_gen`
type PackageConfig struct {
	PackageDir    string
	DefaultOutput string            // 对所有插件生效
	PluginOutputs map[string]string // key: 小写插件名
}

// GetPluginOutput 插件配置优先，其次包默认值；nil 返回空串
func (c *PackageConfig) GetPluginOutput(pluginName string) string {
	if c == nil {
		return ""
	}
	if output, ok := c.PluginOutputs[pluginName]; ok {
		return output
	}
	return c.DefaultOutput
}
