// Package shape 根据字段的声明类型与属性判定字段形状。
//
// 判定是纯语法的，只看最外层类型构造器及其唯一的类型实参：
//
//	X.Option[T]            Optional(T)
//	[]T + @builder(each)   Repeated(T, each)
//	[0]T / PhantomData[T]  Phantom(T)
//	其它                   Plain
package shape

import (
	"fmt"
	"go/ast"
	"go/types"

	"github.com/donutnomad/derivegen/internal/diag"
	"github.com/donutnomad/derivegen/internal/structparse"
)

// Kind 字段形状
type Kind int

const (
	Plain Kind = iota + 1
	Optional
	Repeated
	Phantom
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Optional:
		return "optional"
	case Repeated:
		return "repeated"
	case Phantom:
		return "phantom"
	default:
		return "unknown"
	}
}

// Shape 一个字段的形状，判定一次后不再修改
type Shape struct {
	Kind Kind
	Type string // 声明类型

	// Optional / Repeated 为内层元素类型，Phantom 为见证类型
	Inner     string
	InnerExpr ast.Expr

	// Optional: Option 的包限定符，同包定义时为空
	OptionQualifier string

	// Repeated: 单元素 setter 名称
	Each string

	// 自定义调试格式（@debug），未设置时为空
	Format    string
	HasFormat bool
}

func (s Shape) String() string {
	switch s.Kind {
	case Optional:
		return fmt.Sprintf("Optional(%s)", s.Inner)
	case Repeated:
		return fmt.Sprintf("Repeated(%s, %s)", s.Inner, s.Each)
	case Phantom:
		return fmt.Sprintf("Phantom(%s)", s.Inner)
	default:
		return fmt.Sprintf("Plain(%s)", s.Type)
	}
}

// ClassifyDecl 判定声明中所有字段的形状
// 任意一个字段失败都会使整个声明失败
func ClassifyDecl(decl *structparse.Declaration) ([]Shape, error) {
	shapes := make([]Shape, 0, len(decl.Fields))
	for i := range decl.Fields {
		s, err := Classify(&decl.Fields[i])
		if err != nil {
			return nil, err
		}
		shapes = append(shapes, s)
	}
	return shapes, nil
}

// Classify 判定单个字段的形状
func Classify(f *structparse.Field) (Shape, error) {
	if err := checkDuplicates(f); err != nil {
		return Shape{}, err
	}

	s := Shape{Kind: Plain, Type: f.Type}

	if attrs := f.Attrs(structparse.AttrDebug); len(attrs) > 0 {
		format, err := debugFormat(attrs[0])
		if err != nil {
			return Shape{}, err
		}
		s.Format = format
		s.HasFormat = true
	}

	var builderAttr *structparse.Attribute
	if attrs := f.Attrs(structparse.AttrBuilder); len(attrs) > 0 {
		builderAttr = attrs[0]
	}

	if qual, inner, ok := matchGeneric(f.TypeExpr, "Option"); ok {
		if builderAttr != nil {
			return Shape{}, diag.Errorf(diag.MalformedAttribute, builderAttr.Span,
				"`builder(each = ...)` requires a slice field, found optional `%s`", f.Type)
		}
		s.Kind = Optional
		s.OptionQualifier = qual
		s.Inner = types.ExprString(inner)
		s.InnerExpr = inner
		return s, nil
	}

	if builderAttr != nil {
		each, err := eachName(builderAttr)
		if err != nil {
			return Shape{}, err
		}
		elem, ok := sliceElem(f.TypeExpr)
		if !ok {
			return Shape{}, diag.Errorf(diag.MalformedAttribute, builderAttr.Span,
				"`builder(each = ...)` requires a slice field, found `%s`", f.Type)
		}
		s.Kind = Repeated
		s.Each = each
		s.Inner = types.ExprString(elem)
		s.InnerExpr = elem
		return s, nil
	}

	if witness, ok := phantomWitness(f.TypeExpr); ok {
		s.Kind = Phantom
		s.Inner = types.ExprString(witness)
		s.InnerExpr = witness
		return s, nil
	}

	return s, nil
}

// checkDuplicates 同一字段上同名属性只能出现一次
func checkDuplicates(f *structparse.Field) error {
	seen := make(map[string]*structparse.Attribute)
	for i := range f.Attributes {
		a := &f.Attributes[i]
		if first, ok := seen[a.Key]; ok {
			return diag.Errorf(diag.MalformedAttribute, a.Span, "duplicate `%s` attribute on field `%s`", a.Key, f.Name).
				WithNote(first.Span, "first `%s` attribute here", a.Key)
		}
		seen[a.Key] = a
	}
	return nil
}

// matchGeneric 匹配 Name[T] 或 pkg.Name[T]，返回包限定符与类型实参
func matchGeneric(expr ast.Expr, name string) (qual string, arg ast.Expr, ok bool) {
	idx, isIndex := expr.(*ast.IndexExpr)
	if !isIndex {
		return "", nil, false
	}
	switch x := idx.X.(type) {
	case *ast.Ident:
		if x.Name == name {
			return "", idx.Index, true
		}
	case *ast.SelectorExpr:
		if pkg, isIdent := x.X.(*ast.Ident); isIdent && x.Sel.Name == name {
			return pkg.Name, idx.Index, true
		}
	}
	return "", nil, false
}

// sliceElem 匹配 []T
func sliceElem(expr ast.Expr) (ast.Expr, bool) {
	arr, ok := expr.(*ast.ArrayType)
	if !ok || arr.Len != nil {
		return nil, false
	}
	return arr.Elt, true
}

// phantomWitness 匹配 [0]T、PhantomData[T]、Phantom[T]
func phantomWitness(expr ast.Expr) (ast.Expr, bool) {
	if arr, ok := expr.(*ast.ArrayType); ok {
		if lit, isLit := arr.Len.(*ast.BasicLit); isLit && lit.Value == "0" {
			return arr.Elt, true
		}
		return nil, false
	}
	for _, name := range []string{"PhantomData", "Phantom"} {
		if _, arg, ok := matchGeneric(expr, name); ok {
			return arg, true
		}
	}
	return nil, false
}
