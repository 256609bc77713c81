// Package debuggen 为 @CustomDebug 声明生成格式化方法。
//
// 生成的方法把所有字段拼进一次 fmt.Sprintf 调用：
//
//	func (x Field) GoString() string {
//		return fmt.Sprintf("Field{name: %#v, bitmask: 0b%08b}", x.name, x.bitmask)
//	}
package debuggen

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/donutnomad/gg"
	"github.com/samber/lo"

	"github.com/donutnomad/derivegen/internal/diag"
	"github.com/donutnomad/derivegen/internal/shape"
	"github.com/donutnomad/derivegen/internal/structparse"
	"github.com/donutnomad/derivegen/internal/utils"
)

const (
	MethodGoString = "GoString"
	MethodString   = "String"

	defaultFormat = "%#v"
	phantomFormat = "%T"
)

// Options 生成选项
type Options struct {
	Method string // GoString（默认）或 String
}

// part 一个字段在输出中的片段
type part struct {
	label  string // 字段名
	format string
	arg    string // Sprintf 的实参
}

// Synthesize 为一个声明生成格式化方法
// 成功时返回 gg 片段，失败时返回错误，二者不会同时出现
func Synthesize(decl *structparse.Declaration, opts Options) (*gg.Generator, error) {
	method := cmp.Or(opts.Method, MethodGoString)
	if method != MethodGoString && method != MethodString {
		return nil, fmt.Errorf("method 参数只能是 %s 或 %s，得到 %q", MethodGoString, MethodString, method)
	}

	shapes, err := shape.ClassifyDecl(decl)
	if err != nil {
		return nil, err
	}

	// 字段与方法同名时无法编译
	for i := range decl.Fields {
		if f := &decl.Fields[i]; f.Name == method {
			return nil, diag.Errorf(diag.NameConflict, f.Span,
				"field `%s` collides with the generated `%s` method", f.Name, method)
		}
	}

	reserved := lo.Map(decl.TypeParams, func(p structparse.TypeParam, _ int) string { return p.Name })
	reserved = append(reserved, lo.Keys(decl.Imports)...)
	recv := utils.SafeParamName("x", append(reserved, "fmt")...)

	gen := gg.New()
	gen.SetPackage(decl.PackageName)
	fmtRef := gen.P("fmt")

	parts := make([]part, 0, len(decl.Fields))
	for i := range decl.Fields {
		f := &decl.Fields[i]
		s := shapes[i]
		switch {
		case s.Kind == shape.Phantom && f.IsBlank():
			// _ 字段不可访问，用零值得到类型
			requireImports(gen, decl, f.Qualifiers)
			parts = append(parts, part{label: f.Name, format: phantomFormat, arg: fmt.Sprintf("*new(%s)", f.Type)})
		case s.Kind == shape.Phantom:
			parts = append(parts, part{label: f.Name, format: phantomFormat, arg: recv + "." + f.Name})
		case f.IsBlank():
			continue
		default:
			parts = append(parts, part{label: f.Name, format: cmp.Or(s.Format, defaultFormat), arg: recv + "." + f.Name})
		}
	}

	body := gen.Body()
	body.Append(gg.S("// %s", docComment(decl, method, shapes)))
	fn := body.NewFunction(method).
		WithReceiver(recv, decl.Name+typeArgs(decl.TypeParams)).
		AddResult("", "string")

	if len(parts) == 0 {
		fn.AddBody(gg.Return(gg.Lit(decl.Name + "{}")))
	} else {
		format, args := compile(decl.Name, parts)
		fn.AddBody(gg.Return(fmtRef.Call("Sprintf", append([]any{gg.Lit(format)}, args...)...)))
	}

	return gen, nil
}

// compile 把所有片段编译成一个格式串与实参列表
func compile(name string, parts []part) (string, []any) {
	var sb strings.Builder
	sb.WriteString(escape(name))
	sb.WriteString("{")
	args := make([]any, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(escape(p.label))
		sb.WriteString(": ")
		sb.WriteString(p.format)
		args = append(args, p.arg)
	}
	sb.WriteString("}")
	return sb.String(), args
}

// escape 字面文本中的 % 需要转义
func escape(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}

func docComment(decl *structparse.Declaration, method string, shapes []shape.Shape) string {
	verb := "%#v"
	if method == MethodString {
		verb = "%v"
	}
	doc := fmt.Sprintf("%s formats %s for %s, printing every field in declaration order.", method, decl.Name, verb)
	if !decl.Generic() {
		return doc
	}
	formatted := lo.Map(shape.FormattedParams(decl, shapes), func(p structparse.TypeParam, _ int) string { return p.Name })
	if len(formatted) == 0 {
		return doc + " No type parameter is formatted by value."
	}
	return doc + " Type parameters formatted by value: " + strings.Join(formatted, ", ") + "."
}

func requireImports(gen *gg.Generator, decl *structparse.Declaration, qualifiers []string) {
	for _, q := range qualifiers {
		info, ok := decl.Import(q)
		if !ok {
			continue
		}
		if info.NeedsAlias() {
			gen.PAlias(info.ImportPath, q)
		} else {
			gen.P(info.ImportPath)
		}
	}
}

// typeArgs 返回接收者上的类型实参 [K, V]
func typeArgs(params []structparse.TypeParam) string {
	if len(params) == 0 {
		return ""
	}
	names := lo.Map(params, func(p structparse.TypeParam, _ int) string { return p.Name })
	return "[" + strings.Join(names, ", ") + "]"
}
