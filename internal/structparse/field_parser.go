package structparse

import (
	"go/ast"
	"go/token"
	"go/types"
	"slices"
	"strconv"

	"github.com/samber/lo"

	"github.com/donutnomad/derivegen/internal/diag"
)

// parseFields 解析具名字段列表
// a, b int 这样的声明会展开为两个共享类型与属性的 Field
func parseFields(fset *token.FileSet, list []*ast.Field) ([]Field, error) {
	var fields []Field

	for _, f := range list {
		attrs, err := collectAttributes(fset, f)
		if err != nil {
			return nil, err
		}

		var tag string
		if f.Tag != nil {
			tag, _ = strconv.Unquote(f.Tag.Value)
		}

		fieldType := exprString(f.Type)
		quals := qualifiers(f.Type)
		typeSpan := diag.SpanOf(fset, f.Type.Pos(), f.Type.End())

		for _, name := range f.Names {
			fields = append(fields, Field{
				Name:       name.Name,
				Type:       fieldType,
				TypeExpr:   f.Type,
				Tag:        tag,
				Attributes: slices.Clone(attrs),
				Qualifiers: quals,
				Span:       diag.SpanOf(fset, name.Pos(), name.End()),
				TypeSpan:   typeSpan,
			})
		}
	}

	return fields, nil
}

// exprString 打印类型表达式
func exprString(expr ast.Expr) string {
	return types.ExprString(expr)
}

// qualifiers 收集类型表达式中引用的包限定符
// 输入: map[string]mo.Option[time.Time] 返回: ["mo", "time"]
func qualifiers(expr ast.Expr) []string {
	var quals []string
	ast.Inspect(expr, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if ident, ok := sel.X.(*ast.Ident); ok {
			quals = append(quals, ident.Name)
		}
		return true
	})
	return lo.Uniq(quals)
}
