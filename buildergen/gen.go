package buildergen

import (
	"bytes"
	"fmt"
	"go/token"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/donutnomad/gg"

	"github.com/donutnomad/derivegen/internal/diag"
	"github.com/donutnomad/derivegen/internal/shape"
	"github.com/donutnomad/derivegen/internal/structparse"
	"github.com/donutnomad/derivegen/internal/utils"
)

const (
	moPkgPath     = "github.com/samber/mo"
	derivePkgPath = "github.com/donutnomad/derivegen/derive"

	receiver = "b"
)

// Options 生成选项
type Options struct {
	NameTemplate string // 构建器类型名模板，默认 {{.Name}}Builder
	CtorTemplate string // 构造函数名模板，默认 New{{.Name}}Builder
}

func (o Options) withDefaults() Options {
	if o.NameTemplate == "" {
		o.NameTemplate = "{{.Name}}Builder"
	}
	if o.CtorTemplate == "" {
		o.CtorTemplate = "New{{.Name}}Builder"
	}
	return o
}

// member 构建器中的一个字段
type member struct {
	field  *structparse.Field
	shape  shape.Shape
	store  string // 构建器中的字段名
	setter string // setter 名称，Phantom 为空
	param  string
}

// Synthesize 为一个声明生成构建器代码片段
// 成功时返回完整的 gg 片段，失败时返回 *diag.Error，二者不会同时出现
func Synthesize(decl *structparse.Declaration, opts Options) (*gg.Generator, error) {
	shapes, err := shape.ClassifyDecl(decl)
	if err != nil {
		return nil, err
	}

	opts = opts.withDefaults()
	builderName, err := renderName(opts.NameTemplate, decl.Name)
	if err != nil {
		return nil, err
	}
	ctorName, err := renderName(opts.CtorTemplate, decl.Name)
	if err != nil {
		return nil, err
	}

	members, err := planMembers(decl, shapes)
	if err != nil {
		return nil, err
	}

	gen := gg.New()
	gen.SetPackage(decl.PackageName)
	refs := newImportSet(gen, decl)
	for _, tp := range decl.TypeParams {
		refs.requireAll(tp.Qualifiers)
	}
	for _, m := range members {
		refs.requireAll(m.field.Qualifiers)
	}

	long, short := formatTypeParams(decl.TypeParams)
	builderType := builderName + short
	targetType := decl.Name + short
	body := gen.Body()

	// ====== 构建器类型
	body.Append(gg.S("// %s builds %s values field by field.", builderName, decl.Name))
	st := body.NewStruct(builderName + long)
	for _, m := range members {
		switch m.shape.Kind {
		case shape.Plain:
			st.AddField(m.store, gg.NewInlineGroup().Append(
				refs.mo().Type("Option"),
				gg.S("[%s]", m.field.Type),
			))
		case shape.Optional, shape.Repeated:
			st.AddField(m.store, m.field.Type)
		}
	}
	body.AddLine()

	// ====== 构造函数
	var init []string
	for _, m := range members {
		if m.shape.Kind == shape.Repeated {
			init = append(init, fmt.Sprintf("\t%s: %s{},", m.store, m.field.Type))
		}
	}
	ctorBody := []any{gg.S("return &%s{}", builderType)}
	if len(init) > 0 {
		ctorBody = []any{gg.S("return &%s{", builderType)}
		for _, line := range init {
			ctorBody = append(ctorBody, gg.S("%s", line))
		}
		ctorBody = append(ctorBody, gg.String("}"))
	}
	body.Append(gg.S("// %s returns an empty %s.", ctorName, builderName))
	body.NewFunction(ctorName+long).
		AddResult("", "*"+builderType).
		AddBody(ctorBody...)
	body.AddLine()

	// ====== setter
	for _, m := range members {
		if m.setter == "" {
			continue
		}
		fn := body.NewFunction(m.setter).
			WithReceiver(receiver, "*"+builderType)

		switch m.shape.Kind {
		case shape.Plain:
			fn.AddParameter(m.param, m.field.Type).
				AddResult("", "*"+builderType).
				AddBody(
					gg.NewInlineGroup().Append(
						gg.S("%s.%s = ", receiver, m.store),
						refs.mo().Call("Some", m.param),
					),
					gg.S("return %s", receiver),
				)
		case shape.Optional:
			fn.AddParameter(m.param, m.shape.Inner).
				AddResult("", "*"+builderType).
				AddBody(
					gg.S("%s.%s = %s", receiver, m.store, refs.some(m.shape.OptionQualifier, m.param)),
					gg.S("return %s", receiver),
				)
		case shape.Repeated:
			fn.AddParameter(m.param, m.shape.Inner).
				AddResult("", "*"+builderType).
				AddBody(
					gg.S("%s.%s = append(%s.%s, %s)", receiver, m.store, receiver, m.store, m.param),
					gg.S("return %s", receiver),
				)
		}
		body.AddLine()
	}

	// ====== Build
	var (
		buildBody  []any
		assign     []string
		slicesUsed bool
	)
	for _, m := range members {
		switch m.shape.Kind {
		case shape.Plain:
			buildBody = append(buildBody,
				gg.If(gg.S("%s.%s.IsAbsent()", receiver, m.store)).AddBody(
					gg.NewInlineGroup().Append(
						gg.S("return nil, "),
						refs.derive().Call("MissingField", gg.Lit(decl.Name), gg.Lit(m.field.Name)),
					),
				),
			)
			assign = append(assign, fmt.Sprintf("\t%s: %s.%s.MustGet(),", m.field.Name, receiver, m.store))
		case shape.Optional:
			assign = append(assign, fmt.Sprintf("\t%s: %s.%s,", m.field.Name, receiver, m.store))
		case shape.Repeated:
			// 构建结果不与构建器共享底层数组
			assign = append(assign, fmt.Sprintf("\t%s: slices.Clone(%s.%s),", m.field.Name, receiver, m.store))
			slicesUsed = true
		}
	}
	if slicesUsed {
		refs.byPath("slices", "")
	}
	if len(assign) == 0 {
		buildBody = append(buildBody, gg.S("return &%s{}, nil", targetType))
	} else {
		buildBody = append(buildBody, gg.S("return &%s{", targetType))
		for _, line := range assign {
			buildBody = append(buildBody, gg.S("%s", line))
		}
		buildBody = append(buildBody, gg.String("}, nil"))
	}
	body.Append(gg.S("// Build returns the assembled %s, or an error naming the first required field that was never set.", decl.Name))
	body.NewFunction("Build").
		WithReceiver(receiver, "*"+builderType).
		AddResult("", "*"+targetType).
		AddResult("", "error").
		AddBody(buildBody...)

	return gen, nil
}

// planMembers 计算存储字段名、setter 名与参数名，并检查命名冲突
func planMembers(decl *structparse.Declaration, shapes []shape.Shape) ([]member, error) {
	reserved := []string{receiver}
	for q := range decl.Imports {
		reserved = append(reserved, q)
	}
	for _, tp := range decl.TypeParams {
		reserved = append(reserved, tp.Name)
	}
	reserved = append(reserved, "mo", "derive")

	type owner struct {
		name string
		span diag.Span
	}
	setters := make(map[string]owner)

	var members []member
	for i := range decl.Fields {
		f := &decl.Fields[i]
		s := shapes[i]
		if f.IsBlank() || s.Kind == shape.Phantom {
			continue
		}

		m := member{field: f, shape: s, store: utils.LowerFirst(f.Name)}
		m.setter = utils.UpperCamelCase(f.Name)
		if s.Kind == shape.Repeated {
			m.setter = utils.UpperCamelCase(s.Each)
		}

		if m.setter == "Build" {
			return nil, diag.Errorf(diag.NameConflict, f.Span,
				"setter `Build` for field `%s` conflicts with the generated `Build` method", f.Name)
		}
		if first, ok := setters[m.setter]; ok {
			return nil, diag.Errorf(diag.NameConflict, f.Span,
				"setter `%s` for field `%s` is already generated for field `%s`", m.setter, f.Name, first.name).
				WithNote(first.span, "`%s` first generated here", m.setter)
		}
		setters[m.setter] = owner{name: f.Name, span: f.Span}

		m.param = utils.SafeParamName(f.Name, reserved...)
		if s.Kind == shape.Repeated {
			m.param = utils.SafeParamName(s.Each, reserved...)
		}
		members = append(members, m)
	}

	// 构建器字段与方法同名时无法编译
	for _, m := range members {
		if other, ok := setters[m.store]; ok {
			return nil, diag.Errorf(diag.NameConflict, m.field.Span,
				"field `%s` collides with the builder method `%s`", m.field.Name, m.store).
				WithNote(other.span, "method generated for field `%s`", other.name)
		}
	}
	return members, nil
}

// renderName 用 text/template + sprig 渲染名称模板
func renderName(tpl, name string) (string, error) {
	t, err := template.New("name").Funcs(sprig.TxtFuncMap()).Parse(tpl)
	if err != nil {
		return "", fmt.Errorf("解析名称模板 %q 失败: %w", tpl, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, struct{ Name string }{Name: name}); err != nil {
		return "", fmt.Errorf("渲染名称模板 %q 失败: %w", tpl, err)
	}
	out := strings.TrimSpace(buf.String())
	if !token.IsIdentifier(out) {
		return "", fmt.Errorf("名称模板 %q 生成了非法标识符 %q", tpl, out)
	}
	return out, nil
}

// formatTypeParams 返回 [K comparable, V any] 与 [K, V] 两种形式
func formatTypeParams(params []structparse.TypeParam) (long, short string) {
	if len(params) == 0 {
		return "", ""
	}
	var l, s []string
	for _, p := range params {
		l = append(l, p.Name+" "+p.Constraint)
		s = append(s, p.Name)
	}
	return "[" + strings.Join(l, ", ") + "]", "[" + strings.Join(s, ", ") + "]"
}
