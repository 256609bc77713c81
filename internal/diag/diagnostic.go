// Package diag 定义锚定到源码位置的诊断信息。
//
// 诊断代替生成代码：一个声明要么产出生成代码，要么产出一条诊断。
package diag

import (
	"errors"
	"fmt"
	"go/token"
)

// Kind 诊断类别
type Kind uint8

const (
	// UnsupportedShape 声明不是只含具名字段的结构体
	UnsupportedShape Kind = iota + 1
	// MalformedAttribute 字段属性形状、键名或字面量类型错误
	MalformedAttribute
	// NameConflict 生成的方法名冲突
	NameConflict
)

func (k Kind) String() string {
	switch k {
	case UnsupportedShape:
		return "unsupported-shape"
	case MalformedAttribute:
		return "malformed-attribute"
	case NameConflict:
		return "name-conflict"
	default:
		return "unknown"
	}
}

// Span 源码区间，End 不包含
type Span struct {
	Start token.Position
	End   token.Position
}

// SpanOf 从 token.Pos 区间解析出 Span
func SpanOf(fset *token.FileSet, pos, end token.Pos) Span {
	return Span{Start: fset.Position(pos), End: fset.Position(end)}
}

func (s Span) String() string {
	return s.Start.String()
}

// Len 返回区间字节长度
func (s Span) Len() int {
	if s.End.Offset < s.Start.Offset {
		return 0
	}
	return s.End.Offset - s.Start.Offset
}

// Note 附加说明
type Note struct {
	Span Span
	Msg  string
}

// Diagnostic 单条诊断
type Diagnostic struct {
	Kind    Kind
	Message string
	Span    Span
	Notes   []Note
}

// Error 把 Diagnostic 包装为 error
type Error struct {
	Diagnostic
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Span, e.Kind, e.Message)
}

// Errorf 创建一条诊断错误
func Errorf(kind Kind, span Span, format string, args ...any) *Error {
	return &Error{Diagnostic: Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	}}
}

// WithNote 追加说明
func (e *Error) WithNote(span Span, format string, args ...any) *Error {
	e.Notes = append(e.Notes, Note{Span: span, Msg: fmt.Sprintf(format, args...)})
	return e
}

// As 从错误链中取出诊断
func As(err error) (*Diagnostic, bool) {
	var de *Error
	if errors.As(err, &de) {
		return &de.Diagnostic, true
	}
	return nil, false
}

// IsKind 判断错误链中是否有指定类别的诊断
func IsKind(err error, kind Kind) bool {
	d, ok := As(err)
	return ok && d.Kind == kind
}
