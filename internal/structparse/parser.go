package structparse

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/donutnomad/derivegen/internal/diag"
)

// ParseStruct 解析指定文件中的结构体（包级便捷函数）
func ParseStruct(filename, structName string) (*Declaration, error) {
	return NewParseContext().ParseStruct(filename, structName)
}

// ParseSource 从内存中的源码解析结构体，filename 只用于定位
func ParseSource(filename string, src []byte, structName string) (*Declaration, error) {
	return NewParseContext().ParseSource(filename, src, structName)
}

// ParseStruct 解析指定文件中的结构体（ParseContext 方法）
func (c *ParseContext) ParseStruct(filename, structName string) (*Declaration, error) {
	file, err := c.parseFile(filename, nil)
	if err != nil {
		return nil, err
	}
	return c.parseIn(file, filename, structName)
}

// ParseSource 从内存源码解析结构体（ParseContext 方法）
func (c *ParseContext) ParseSource(filename string, src []byte, structName string) (*Declaration, error) {
	file, err := c.parseFile(filename, src)
	if err != nil {
		return nil, err
	}
	return c.parseIn(file, filename, structName)
}

func (c *ParseContext) parseIn(file *ast.File, filename, structName string) (*Declaration, error) {
	spec := FindTypeSpec(file, structName)
	if spec == nil {
		return nil, fmt.Errorf("未找到类型 %s", structName)
	}
	return c.parseTypeSpec(file, spec, filename)
}

// FindTypeSpec 在文件中查找指定名称的类型声明
func FindTypeSpec(file *ast.File, name string) *ast.TypeSpec {
	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}
		for _, spec := range genDecl.Specs {
			if typeSpec, ok := spec.(*ast.TypeSpec); ok && typeSpec.Name.Name == name {
				return typeSpec
			}
		}
	}
	return nil
}

// parseTypeSpec 把已解析的类型声明转换为 Declaration
//
// 先确认声明是只含具名字段的结构体，再解析字段和属性；
// 形状不符时返回 diag.UnsupportedShape，不会检查任何字段属性。
func (c *ParseContext) parseTypeSpec(file *ast.File, spec *ast.TypeSpec, filename string) (*Declaration, error) {
	fset := c.fset
	name := spec.Name.Name
	decl := &Declaration{
		Name:        name,
		PackageName: file.Name.Name,
		FilePath:    filename,
		Span:        diag.SpanOf(fset, spec.Name.Pos(), spec.Name.End()),
		TypeSpan:    diag.SpanOf(fset, spec.Type.Pos(), spec.Type.End()),
	}

	st, err := checkShape(fset, spec, decl)
	if err != nil {
		return nil, err
	}

	decl.Imports = extractImports(file, c.packageName)
	decl.TypeParams = parseTypeParams(spec.TypeParams)

	fields, err := parseFields(fset, st.Fields.List)
	if err != nil {
		return nil, err
	}
	decl.Fields = fields
	return decl, nil
}

// checkShape 只接受结构体，且不能有嵌入字段
func checkShape(fset *token.FileSet, spec *ast.TypeSpec, decl *Declaration) (*ast.StructType, error) {
	const hint = "only structs with named fields are supported"

	if spec.Assign.IsValid() {
		return nil, diag.Errorf(diag.UnsupportedShape, decl.TypeSpan,
			"`%s` is a type alias; %s", decl.Name, hint)
	}

	st, ok := spec.Type.(*ast.StructType)
	if !ok {
		what := "a named non-struct type"
		if _, isIface := spec.Type.(*ast.InterfaceType); isIface {
			what = "an interface"
		}
		return nil, diag.Errorf(diag.UnsupportedShape, decl.TypeSpan,
			"`%s` is %s; %s", decl.Name, what, hint)
	}

	for _, f := range st.Fields.List {
		if len(f.Names) == 0 {
			return nil, diag.Errorf(diag.UnsupportedShape, diag.SpanOf(fset, f.Type.Pos(), f.Type.End()),
				"embedded field `%s` in `%s`; %s", exprString(f.Type), decl.Name, hint)
		}
	}
	return st, nil
}

func parseTypeParams(list *ast.FieldList) []TypeParam {
	if list == nil {
		return nil
	}
	var params []TypeParam
	for _, f := range list.List {
		constraint := exprString(f.Type)
		var quals []string
		if q := qualifiers(f.Type); len(q) > 0 {
			quals = q
		}
		for _, n := range f.Names {
			params = append(params, TypeParam{Name: n.Name, Constraint: constraint, Qualifiers: quals})
		}
	}
	return params
}
