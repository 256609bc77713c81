package structparse

import (
	"errors"
	"go/ast"
	"go/token"
	"strconv"
	"strings"
	"unicode"

	"github.com/fatih/structtag"

	"github.com/donutnomad/derivegen/internal/diag"
	"github.com/donutnomad/derivegen/internal/meta"
)

// 支持的字段属性
const (
	AttrBuilder = "builder"
	AttrDebug   = "debug"
)

var attrKeys = []string{AttrBuilder, AttrDebug}

func isAttrKey(key string) bool {
	for _, k := range attrKeys {
		if k == key {
			return true
		}
	}
	return false
}

// collectAttributes 收集字段属性
// 顺序：文档注释、行尾注释、结构体标签
func collectAttributes(fset *token.FileSet, f *ast.Field) ([]Attribute, error) {
	var attrs []Attribute

	for _, cg := range []*ast.CommentGroup{f.Doc, f.Comment} {
		if cg == nil {
			continue
		}
		for _, c := range cg.List {
			attr, ok, err := parseDirective(fset, c)
			if err != nil {
				return nil, err
			}
			if ok {
				attrs = append(attrs, attr)
			}
		}
	}

	tagAttrs, err := parseTagAttributes(fset, f.Tag)
	if err != nil {
		return nil, err
	}
	return append(attrs, tagAttrs...), nil
}

// parseDirective 解析一行注释指令
//
//	// @builder(each = "arg")
//	// @debug = "0b%08b"
//
// 只识别行注释，@ 之后必须紧跟 builder 或 debug；
// 键之后只能是 =、( 或行尾，"@debug is noisy" 这样的说明文字不是指令
func parseDirective(fset *token.FileSet, c *ast.Comment) (Attribute, bool, error) {
	if !strings.HasPrefix(c.Text, "//") {
		return Attribute{}, false, nil
	}
	body := c.Text[2:]
	rest := strings.TrimLeft(body, " \t")
	if !strings.HasPrefix(rest, "@") {
		return Attribute{}, false, nil
	}
	text := strings.TrimRight(rest[1:], " \t\r")
	key := leadingIdent(text)
	if !isAttrKey(key) {
		return Attribute{}, false, nil
	}
	if after := strings.TrimLeft(text[len(key):], " \t"); after != "" && after[0] != '=' && after[0] != '(' {
		return Attribute{}, false, nil
	}

	at := 2 + len(body) - len(rest) // '@' 相对注释起点的偏移
	pos := fset.Position(c.Slash)
	attr := Attribute{
		Key:    key,
		Source: SourceComment,
		Span:   diag.Span{Start: shift(pos, at), End: shift(pos, at+1+len(text))},
		base:   shift(pos, at+1),
		exact:  true,
	}

	item, err := meta.Parse(text)
	if err != nil {
		return Attribute{}, false, attr.metaError(err)
	}
	attr.Meta = item
	return attr, true, nil
}

// parseTagAttributes 从结构体标签读取 builder:"..." 与 debug:"..."
func parseTagAttributes(fset *token.FileSet, lit *ast.BasicLit) ([]Attribute, error) {
	if lit == nil {
		return nil, nil
	}
	raw := lit.Value
	value, err := strconv.Unquote(raw)
	if err != nil {
		return nil, nil
	}
	if findTagKey(value, AttrBuilder) < 0 && findTagKey(value, AttrDebug) < 0 {
		return nil, nil
	}

	tagSpan := diag.SpanOf(fset, lit.Pos(), lit.End())
	tags, err := structtag.Parse(value)
	if err != nil {
		return nil, diag.Errorf(diag.MalformedAttribute, tagSpan, "malformed struct tag: %v", err)
	}

	var attrs []Attribute
	for _, key := range attrKeys {
		t, err := tags.Get(key)
		if err != nil {
			continue
		}
		v := t.Value()

		attr := Attribute{Key: key, Source: SourceTag, Span: tagSpan}
		// 反引号标签内的文本与源码逐字节对应，可以精确定位
		if strings.HasPrefix(raw, "`") && !strings.Contains(v, `\`) {
			if idx := findTagKey(raw, key); idx >= 0 {
				tagPos := fset.Position(lit.Pos())
				valueAt := idx + len(key) + 2 // key:"
				attr.Span = diag.Span{Start: shift(tagPos, idx), End: shift(tagPos, valueAt+len(v)+1)}
				attr.base = shift(tagPos, valueAt)
				attr.exact = true
			}
		}

		switch key {
		case AttrBuilder:
			item, err := meta.ParseList(key, v, meta.WithBareIdentStrings())
			if err != nil {
				return nil, attr.metaError(err)
			}
			attr.Meta = item
		case AttrDebug:
			whole := meta.Span{Start: 0, End: len(v)}
			attr.Meta = &meta.Item{
				Kind:     meta.KindNameValue,
				Name:     key,
				NameSpan: meta.Span{},
				Span:     whole,
				Value:    &meta.Lit{Kind: meta.LitStr, Raw: strconv.Quote(v), Value: v, Span: whole},
			}
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// metaError 把 meta 语法错误转换为源码诊断
func (a *Attribute) metaError(err error) error {
	var merr *meta.Error
	if errors.As(err, &merr) {
		return diag.Errorf(diag.MalformedAttribute, a.SpanOf(merr.Span), "malformed `%s` attribute: %s", a.Key, merr.Msg)
	}
	return diag.Errorf(diag.MalformedAttribute, a.Span, "malformed `%s` attribute: %v", a.Key, err)
}

// findTagKey 返回 key:" 在标签文本中的位置，key 必须位于标签开头或空白之后
func findTagKey(tag, key string) int {
	needle := key + `:"`
	from := 0
	for {
		i := strings.Index(tag[from:], needle)
		if i < 0 {
			return -1
		}
		i += from
		if i == 0 || tag[i-1] == ' ' || tag[i-1] == '\t' || tag[i-1] == '`' {
			return i
		}
		from = i + 1
	}
}

func leadingIdent(s string) string {
	for i, r := range s {
		if !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return s[:i]
		}
	}
	return s
}
