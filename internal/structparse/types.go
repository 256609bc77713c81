package structparse

import (
	"go/ast"
	"go/token"

	"github.com/donutnomad/derivegen/internal/diag"
	"github.com/donutnomad/derivegen/internal/meta"
)

// ImportInfo 导入信息
type ImportInfo struct {
	Alias       string // 显式别名（如果有）
	PackageName string // 包名（真实包名，无法解析时按导入路径推断）
	ImportPath  string // 完整导入路径
}

// Qualifier 返回源文件中引用该包时使用的限定符
func (i *ImportInfo) Qualifier() string {
	if i.Alias != "" {
		return i.Alias
	}
	return i.PackageName
}

// NeedsAlias 限定符与包名不同，生成代码时必须带别名导入
func (i *ImportInfo) NeedsAlias() bool {
	return i.Qualifier() != i.PackageName
}

// TypeParam 类型参数
type TypeParam struct {
	Name       string   // T
	Constraint string   // any、comparable、fmt.Stringer ...
	Qualifiers []string // 约束中引用的包限定符
}

// AttrSource 属性来源
type AttrSource int

const (
	SourceComment AttrSource = iota + 1 // 字段注释中的 @builder / @debug
	SourceTag                           // 结构体标签 builder:"..." / debug:"..."
)

func (s AttrSource) String() string {
	switch s {
	case SourceComment:
		return "comment"
	case SourceTag:
		return "tag"
	default:
		return "unknown"
	}
}

// Attribute 字段属性
type Attribute struct {
	Key    string     // builder 或 debug
	Meta   *meta.Item // 解析后的 meta 节点
	Source AttrSource
	Span   diag.Span // 整个属性在源文件中的位置

	// base 为 meta 文本第 0 个字节在源文件中的位置
	// exact 为 false 时 meta 内部偏移无法精确映射，统一使用 Span
	base  token.Position
	exact bool
}

// SpanOf 把 meta 文本内的字节区间换算成源文件位置
func (a *Attribute) SpanOf(ms meta.Span) diag.Span {
	if !a.exact {
		return a.Span
	}
	return diag.Span{Start: shift(a.base, ms.Start), End: shift(a.base, ms.End)}
}

// ItemSpan 返回 meta 节点在源文件中的位置
func (a *Attribute) ItemSpan(it *meta.Item) diag.Span {
	if it == nil {
		return a.Span
	}
	return a.SpanOf(it.Span)
}

// shift 在同一行内向后移动 n 个字节
func shift(pos token.Position, n int) token.Position {
	pos.Offset += n
	pos.Column += n
	return pos
}

// Field 结构体字段
type Field struct {
	Name       string   // 字段名，可能是 _
	Type       string   // 打印后的类型表达式
	TypeExpr   ast.Expr // 类型表达式
	Tag        string   // 原始标签（已去掉反引号）
	Attributes []Attribute
	Qualifiers []string // 类型表达式引用的包限定符，按出现顺序去重

	Span     diag.Span // 字段名
	TypeSpan diag.Span // 类型表达式
}

// IsBlank 是否为 _ 字段
func (f *Field) IsBlank() bool {
	return f.Name == "_"
}

// Attrs 返回指定 key 的所有属性
func (f *Field) Attrs(key string) []*Attribute {
	var out []*Attribute
	for i := range f.Attributes {
		if f.Attributes[i].Key == key {
			out = append(out, &f.Attributes[i])
		}
	}
	return out
}

// Declaration 一个只含具名字段的结构体声明
type Declaration struct {
	Name        string
	TypeParams  []TypeParam
	Fields      []Field
	PackageName string
	FilePath    string
	Imports     map[string]*ImportInfo // key: 限定符

	Span     diag.Span // 类型名
	TypeSpan diag.Span // struct{...}
}

// Import 按限定符查找导入
func (d *Declaration) Import(qualifier string) (*ImportInfo, bool) {
	info, ok := d.Imports[qualifier]
	return info, ok
}

// ImportByPath 按导入路径查找导入
func (d *Declaration) ImportByPath(path string) (*ImportInfo, bool) {
	for _, info := range d.Imports {
		if info.ImportPath == path {
			return info, true
		}
	}
	return nil, false
}

// Generic 是否为泛型声明
func (d *Declaration) Generic() bool {
	return len(d.TypeParams) > 0
}
