package shape

import (
	"go/token"
	"strings"

	"github.com/donutnomad/derivegen/internal/diag"
	"github.com/donutnomad/derivegen/internal/meta"
	"github.com/donutnomad/derivegen/internal/structparse"
)

const (
	expectBuilder = "expected `builder(each = \"...\")`"
	expectDebug   = "expected `debug = \"...\"`"
)

// eachName 校验 builder(each = "name") 并返回 name
func eachName(a *structparse.Attribute) (string, error) {
	item := a.Meta
	if item == nil || item.Kind != meta.KindList || len(item.Nested) != 1 {
		return "", diag.Errorf(diag.MalformedAttribute, a.Span, expectBuilder)
	}
	nested := item.Nested[0]
	if !nested.IsNameValue("each") {
		return "", diag.Errorf(diag.MalformedAttribute, a.Span, expectBuilder)
	}
	each, ok := nested.StringValue()
	if !ok {
		return "", diag.Errorf(diag.MalformedAttribute, a.SpanOf(nested.Value.Span),
			"%s: `each` must be a string literal, found %s", expectBuilder, nested.Value.Kind)
	}
	if !token.IsIdentifier(each) || each == "_" {
		return "", diag.Errorf(diag.MalformedAttribute, a.SpanOf(nested.Value.Span),
			"`each` value %q is not a valid identifier", each)
	}
	return each, nil
}

// debugFormat 校验 debug = "fmt" 并返回格式串
func debugFormat(a *structparse.Attribute) (string, error) {
	item := a.Meta
	if item == nil || item.Kind != meta.KindNameValue {
		return "", diag.Errorf(diag.MalformedAttribute, a.Span, expectDebug)
	}
	format, ok := item.StringValue()
	if !ok {
		return "", diag.Errorf(diag.MalformedAttribute, a.SpanOf(item.Value.Span),
			"%s: found %s literal", expectDebug, item.Value.Kind)
	}
	n, err := CountOperands(format)
	if err != nil {
		return "", diag.Errorf(diag.MalformedAttribute, a.SpanOf(item.Value.Span),
			"invalid debug format %q: %v", format, err)
	}
	if n != 1 {
		return "", diag.Errorf(diag.MalformedAttribute, a.SpanOf(item.Value.Span),
			"debug format %q must format exactly one value, found %d verbs", format, n)
	}
	return format, nil
}

type formatError string

func (e formatError) Error() string { return string(e) }

// CountOperands 统计 fmt 格式串消耗的操作数个数，%% 不计入
// 宽度或精度写作 * 时各自消耗一个操作数；不支持 [n] 显式下标
func CountOperands(format string) (int, error) {
	n := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		i++
		if i >= len(format) {
			return 0, formatError("trailing `%`")
		}
		if format[i] == '%' {
			continue
		}
		// 标志
		for i < len(format) && strings.IndexByte("+-# 0", format[i]) >= 0 {
			i++
		}
		// 宽度
		if i < len(format) && format[i] == '*' {
			n++
			i++
		}
		for i < len(format) && isDigit(format[i]) {
			i++
		}
		// 精度
		if i < len(format) && format[i] == '.' {
			i++
			if i < len(format) && format[i] == '*' {
				n++
				i++
			}
			for i < len(format) && isDigit(format[i]) {
				i++
			}
		}
		if i >= len(format) {
			return 0, formatError("missing verb at end of format")
		}
		if format[i] == '[' {
			return 0, formatError("explicit argument indexes are not supported")
		}
		n++
	}
	return n, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
