package meta

import (
	"fmt"
	"go/scanner"
	"go/token"
	"strconv"
)

type tokenInfo struct {
	tok   token.Token
	lit   string
	start int
	end   int
}

func (t tokenInfo) span() Span {
	return Span{Start: t.start, End: t.end}
}

func (t tokenInfo) describe() string {
	switch {
	case t.tok == token.EOF:
		return "end of attribute"
	case t.lit != "":
		return fmt.Sprintf("`%s`", t.lit)
	default:
		return fmt.Sprintf("`%s`", t.tok.String())
	}
}

// Option 解析选项
type Option func(*parser)

// WithBareIdentStrings 允许等号右侧使用裸标识符作为字符串（struct tag 写法 each=arg）
func WithBareIdentStrings() Option {
	return func(p *parser) {
		p.bareIdents = true
	}
}

type parser struct {
	src        string
	toks       []tokenInfo
	pos        int
	bareIdents bool
}

// Parse 解析一个完整属性：path、path(...) 或 path = lit
func Parse(src string, opts ...Option) (*Item, error) {
	p, err := newParser(src, opts)
	if err != nil {
		return nil, err
	}
	item, err := p.parseMeta()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.tok != token.EOF {
		return nil, p.errorf(t.span(), "unexpected %s after attribute", t.describe())
	}
	return item, nil
}

// ParseList 把 src 当作列表主体解析，返回名为 name 的 KindList 节点
// 例如 ParseList("builder", `each=arg`) 等价于 Parse(`builder(each=arg)`)
func ParseList(name, src string, opts ...Option) (*Item, error) {
	p, err := newParser(src, opts)
	if err != nil {
		return nil, err
	}
	item := &Item{
		Kind: KindList,
		Name: name,
		Span: Span{Start: 0, End: len(src)},
	}
	if p.peek().tok == token.EOF {
		return item, nil
	}
	for {
		nested, err := p.parseNested()
		if err != nil {
			return nil, err
		}
		item.Nested = append(item.Nested, nested)

		t := p.next()
		switch t.tok {
		case token.EOF:
			return item, nil
		case token.COMMA:
			if p.peek().tok == token.EOF {
				return item, nil
			}
		default:
			return nil, p.errorf(t.span(), "expected `,` or end of attribute, found %s", t.describe())
		}
	}
}

func newParser(src string, opts []Option) (*parser, error) {
	p := &parser{src: src}
	for _, opt := range opts {
		opt(p)
	}
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p.toks = toks
	return p, nil
}

// tokenize 使用 go/scanner 切分属性文本
func tokenize(src string) ([]tokenInfo, error) {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var firstErr *Error
	var s scanner.Scanner
	s.Init(file, []byte(src), func(pos token.Position, msg string) {
		if firstErr == nil {
			firstErr = &Error{Span: Span{Start: pos.Offset, End: pos.Offset + 1}, Msg: msg}
		}
	}, 0)

	var toks []tokenInfo
	for {
		pos, tok, lit := s.Scan()
		if firstErr != nil {
			return nil, clampErr(firstErr, len(src))
		}
		start := file.Offset(pos)
		if tok == token.EOF {
			toks = append(toks, tokenInfo{tok: tok, start: len(src), end: len(src)})
			return toks, nil
		}
		// 扫描器在行尾自动插入的分号
		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}
		if tok == token.COMMENT {
			continue
		}
		if tok == token.ILLEGAL {
			return nil, clampErr(&Error{Span: Span{Start: start, End: start + len(lit)}, Msg: fmt.Sprintf("illegal character %q", lit)}, len(src))
		}
		text := lit
		if text == "" {
			text = tok.String()
		}
		toks = append(toks, tokenInfo{tok: tok, lit: lit, start: start, end: start + len(text)})
	}
}

func clampErr(e *Error, n int) *Error {
	if e.Span.End > n {
		e.Span.End = n
	}
	if e.Span.Start > e.Span.End {
		e.Span.Start = e.Span.End
	}
	return e
}

func (p *parser) peek() tokenInfo {
	return p.toks[p.pos]
}

func (p *parser) next() tokenInfo {
	t := p.toks[p.pos]
	if t.tok != token.EOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(sp Span, format string, args ...any) *Error {
	return &Error{Span: sp, Msg: fmt.Sprintf(format, args...)}
}

// parseMeta: path ( "(" [nested {"," nested} [","]] ")" | "=" lit )?
func (p *parser) parseMeta() (*Item, error) {
	t := p.next()
	if t.tok != token.IDENT {
		return nil, p.errorf(t.span(), "expected attribute name, found %s", t.describe())
	}
	item := &Item{
		Kind:     KindPath,
		Name:     t.lit,
		NameSpan: t.span(),
		Span:     t.span(),
	}

	switch p.peek().tok {
	case token.LPAREN:
		p.next()
		item.Kind = KindList
		for p.peek().tok != token.RPAREN {
			nested, err := p.parseNested()
			if err != nil {
				return nil, err
			}
			item.Nested = append(item.Nested, nested)

			sep := p.peek()
			if sep.tok == token.COMMA {
				p.next()
				continue
			}
			if sep.tok != token.RPAREN {
				return nil, p.errorf(sep.span(), "expected `,` or `)`, found %s", sep.describe())
			}
		}
		closing := p.next()
		item.Span = item.Span.Cover(closing.span())

	case token.ASSIGN:
		p.next()
		lit, err := p.parseLit()
		if err != nil {
			return nil, err
		}
		item.Kind = KindNameValue
		item.Value = lit
		item.Span = item.Span.Cover(lit.Span)
	}

	return item, nil
}

// parseNested: meta | lit
func (p *parser) parseNested() (*Item, error) {
	t := p.peek()
	if isLitToken(t) {
		lit, err := p.parseLit()
		if err != nil {
			return nil, err
		}
		return &Item{Kind: KindLit, Span: lit.Span, Value: lit}, nil
	}
	return p.parseMeta()
}

func isLitToken(t tokenInfo) bool {
	switch t.tok {
	case token.STRING, token.INT, token.FLOAT, token.CHAR, token.IMAG:
		return true
	case token.IDENT:
		return t.lit == "true" || t.lit == "false"
	}
	return false
}

func (p *parser) parseLit() (*Lit, error) {
	t := p.next()
	lit := &Lit{Raw: t.lit, Value: t.lit, Span: t.span()}
	switch t.tok {
	case token.STRING:
		v, err := strconv.Unquote(t.lit)
		if err != nil {
			return nil, p.errorf(t.span(), "invalid string literal %s", t.lit)
		}
		lit.Kind = LitStr
		lit.Value = v
	case token.INT:
		lit.Kind = LitInt
	case token.FLOAT, token.IMAG:
		lit.Kind = LitFloat
	case token.CHAR:
		lit.Kind = LitChar
	case token.IDENT:
		switch {
		case t.lit == "true" || t.lit == "false":
			lit.Kind = LitBool
		case p.bareIdents:
			lit.Kind = LitStr
		default:
			return nil, p.errorf(t.span(), "expected literal, found %s", t.describe())
		}
	default:
		return nil, p.errorf(t.span(), "expected literal, found %s", t.describe())
	}
	return lit, nil
}
