package shape

import (
	"go/ast"

	"github.com/samber/lo"

	"github.com/donutnomad/derivegen/internal/structparse"
)

// PhantomOnlyParams 返回只出现在 Phantom 字段见证类型中的类型参数
//
// 非 Phantom 字段的类型按任意深度检查：Option[T]、map[K]T、func(T) 中出现的 T
// 都算作被使用。未出现在任何字段中的参数不算 phantom-only。
func PhantomOnlyParams(decl *structparse.Declaration, shapes []Shape) []string {
	if !decl.Generic() {
		return nil
	}
	params := lo.Map(decl.TypeParams, func(p structparse.TypeParam, _ int) string { return p.Name })
	isParam := lo.SliceToMap(params, func(name string) (string, bool) { return name, true })

	witnessed := make(map[string]bool)
	used := make(map[string]bool)
	for i, s := range shapes {
		if s.Kind == Phantom {
			collectIdents(s.InnerExpr, isParam, witnessed)
			continue
		}
		collectIdents(decl.Fields[i].TypeExpr, isParam, used)
	}

	return lo.Filter(params, func(name string, _ int) bool {
		return witnessed[name] && !used[name]
	})
}

// FormattedParams 返回需要按值格式化的类型参数（PhantomOnlyParams 的补集）
func FormattedParams(decl *structparse.Declaration, shapes []Shape) []structparse.TypeParam {
	phantom := PhantomOnlyParams(decl, shapes)
	return lo.Filter(decl.TypeParams, func(p structparse.TypeParam, _ int) bool {
		return !lo.Contains(phantom, p.Name)
	})
}

// collectIdents 记录表达式中出现的类型参数，pkg.Name 中的标识符不是类型参数
func collectIdents(expr ast.Expr, isParam map[string]bool, into map[string]bool) {
	if expr == nil {
		return
	}
	ast.Inspect(expr, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.SelectorExpr:
			return false
		case *ast.Ident:
			if isParam[x.Name] {
				into[x.Name] = true
			}
		}
		return true
	})
}
