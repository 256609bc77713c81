package diag

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// PrettyOpts 文本输出选项
type PrettyOpts struct {
	Color   bool
	BaseDir string // 非空时输出相对路径
	// ReadFile 读取源文件，默认 os.ReadFile
	ReadFile func(name string) ([]byte, error)
}

// Pretty 输出人类可读的诊断：
//
//	<path>:<line>:<col>: error[<kind>]: <message>
//	  12 | <source line>
//	     |     ^^^^^^
func Pretty(w io.Writer, diags []Diagnostic, opts PrettyOpts) {
	p := newPrinter(opts)
	for i := range diags {
		p.print(w, &diags[i])
	}
}

type printer struct {
	opts   PrettyOpts
	cache  map[string][]string
	errC   *color.Color
	boldC  *color.Color
	caretC *color.Color
	gutter *color.Color
	noteC  *color.Color
}

func newPrinter(opts PrettyOpts) *printer {
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}
	p := &printer{
		opts:   opts,
		cache:  make(map[string][]string),
		errC:   color.New(color.FgRed, color.Bold),
		boldC:  color.New(color.Bold),
		caretC: color.New(color.FgRed),
		gutter: color.New(color.FgBlue),
		noteC:  color.New(color.FgCyan, color.Bold),
	}
	for _, c := range []*color.Color{p.errC, p.boldC, p.caretC, p.gutter, p.noteC} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) print(w io.Writer, d *Diagnostic) {
	_, _ = fmt.Fprintf(w, "%s: %s %s\n",
		p.boldC.Sprint(p.location(d.Span)),
		p.errC.Sprintf("error[%s]:", d.Kind),
		p.boldC.Sprint(d.Message))
	p.excerpt(w, d.Span, "")

	for _, n := range d.Notes {
		_, _ = fmt.Fprintf(w, "%s %s %s\n", p.location(n.Span), p.noteC.Sprint("note:"), n.Msg)
		p.excerpt(w, n.Span, n.Msg)
	}
}

func (p *printer) location(sp Span) string {
	name := sp.Start.Filename
	if name != "" && p.opts.BaseDir != "" {
		if rel, err := filepath.Rel(p.opts.BaseDir, name); err == nil && !strings.HasPrefix(rel, "..") {
			name = rel
		}
	}
	if name == "" {
		name = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", name, sp.Start.Line, sp.Start.Column)
}

// excerpt 打印源码行与下划线
func (p *printer) excerpt(w io.Writer, sp Span, label string) {
	line, ok := p.line(sp.Start.Filename, sp.Start.Line)
	if !ok {
		return
	}

	num := fmt.Sprintf("%d", sp.Start.Line)
	pad := strings.Repeat(" ", len(num))

	_, _ = fmt.Fprintf(w, "%s %s\n", pad, p.gutter.Sprint("|"))
	_, _ = fmt.Fprintf(w, "%s %s %s\n", p.gutter.Sprint(num), p.gutter.Sprint("|"), line)

	prefix, marked := splitLine(line, sp)
	carets := strings.Repeat("^", max(1, runewidth.StringWidth(marked)))
	if label != "" {
		carets += " " + label
	}
	_, _ = fmt.Fprintf(w, "%s %s %s%s\n", pad, p.gutter.Sprint("|"), indentFor(prefix), p.caretC.Sprint(carets))
}

// splitLine 返回区间之前的前缀与区间在该行内的文本
func splitLine(line string, sp Span) (prefix, marked string) {
	col := sp.Start.Column - 1
	if col < 0 {
		col = 0
	}
	if col > len(line) {
		col = len(line)
	}
	end := len(line)
	if sp.End.Line == sp.Start.Line && sp.End.Column > 0 {
		end = min(sp.End.Column-1, len(line))
	}
	if end < col {
		end = col
	}
	return line[:col], line[col:end]
}

// indentFor 生成与前缀等宽的缩进，保留制表符
func indentFor(prefix string) string {
	var sb strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			sb.WriteRune('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return sb.String()
}

func (p *printer) line(filename string, n int) (string, bool) {
	if filename == "" || n <= 0 {
		return "", false
	}
	lines, ok := p.cache[filename]
	if !ok {
		data, err := p.opts.ReadFile(filename)
		if err != nil {
			p.cache[filename] = nil
			return "", false
		}
		lines = strings.Split(string(data), "\n")
		p.cache[filename] = lines
	}
	if n > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[n-1], "\r"), true
}
