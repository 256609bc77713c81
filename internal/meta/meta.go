// Package meta 解析字段属性的微语法。
//
// 支持三种形式：
//
//	builder                     // 路径
//	builder(each = "arg")       // 嵌套列表
//	debug = "0b%08b"            // 名值对
//
// 解析结果是一棵 Item 树，所有位置都是相对于输入文本的字节区间，
// 由调用方换算成源文件位置。
package meta

import "fmt"

// Span 表示输入文本中的字节区间 [Start, End)
type Span struct {
	Start int
	End   int
}

// Cover 返回同时覆盖 s 和 other 的最小区间
func (s Span) Cover(other Span) Span {
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Kind 表示 Item 的形状
type Kind int

const (
	KindPath      Kind = iota + 1 // name
	KindList                      // name(...)
	KindNameValue                 // name = lit
	KindLit                       // 列表中的裸字面量
)

func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindList:
		return "list"
	case KindNameValue:
		return "name-value"
	case KindLit:
		return "literal"
	default:
		return "unknown"
	}
}

// LitKind 表示字面量类型
type LitKind int

const (
	LitStr LitKind = iota + 1
	LitInt
	LitFloat
	LitChar
	LitBool
)

func (k LitKind) String() string {
	switch k {
	case LitStr:
		return "string"
	case LitInt:
		return "integer"
	case LitFloat:
		return "float"
	case LitChar:
		return "char"
	case LitBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Lit 字面量
type Lit struct {
	Kind  LitKind
	Raw   string // 源文本
	Value string // 字符串字面量为解引号后的值，其余与 Raw 相同
	Span  Span
}

// Item 是一个 meta 节点
type Item struct {
	Kind     Kind
	Name     string
	NameSpan Span
	Span     Span
	Nested   []*Item // KindList
	Value    *Lit    // KindNameValue / KindLit
}

// IsNameValue 判断是否为指定名称的名值对
func (it *Item) IsNameValue(name string) bool {
	return it != nil && it.Kind == KindNameValue && it.Name == name
}

// StringValue 返回名值对或裸字面量的字符串值，非字符串返回 false
func (it *Item) StringValue() (string, bool) {
	if it == nil || it.Value == nil || it.Value.Kind != LitStr {
		return "", false
	}
	return it.Value.Value, true
}

func (it *Item) String() string {
	switch it.Kind {
	case KindPath:
		return it.Name
	case KindNameValue:
		return fmt.Sprintf("%s = %s", it.Name, it.Value.Raw)
	case KindLit:
		return it.Value.Raw
	case KindList:
		s := it.Name + "("
		for i, n := range it.Nested {
			if i > 0 {
				s += ", "
			}
			s += n.String()
		}
		return s + ")"
	default:
		return ""
	}
}

// Error 属性语法错误
type Error struct {
	Span Span
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Span.Start, e.Span.End, e.Msg)
}
