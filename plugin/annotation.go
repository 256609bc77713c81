package plugin

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParseAnnotations 从注释文本中解析所有注解
//
// 支持的写法:
//
//	@Builder
//	@Builder(name=`{{.Name}}Factory`, ctor="Make{{.Name}}", output=$FILE_gen.go)
//	@Builder @CustomDebug(method=String)
//
// 参数名大小写不敏感；值可以用反引号、双引号或不加引号；
// 引号内的逗号和括号不参与分隔。只有前面是空白或行首的 @ 才视为注解。
func ParseAnnotations(comment string) []*Annotation {
	var annotations []*Annotation
	for _, line := range strings.Split(comment, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimPrefix(line, "/*")
		line = strings.TrimSuffix(line, "*/")
		annotations = append(annotations, scanLine(line)...)
	}
	return annotations
}

func scanLine(line string) []*Annotation {
	var out []*Annotation
	for i := 0; i < len(line); i++ {
		if line[i] != '@' || (i > 0 && !isSpace(line[i-1])) {
			continue
		}
		name := identAt(line, i+1)
		if name == "" {
			continue
		}
		end := i + 1 + len(name)
		ann := &Annotation{Name: name, Params: map[string]string{}}

		if end < len(line) && line[end] == '(' {
			if close := matchParen(line, end); close > 0 {
				ann.Params = parseParams(line[end+1 : close])
				end = close + 1
			}
		}
		ann.Raw = line[i:end]
		out = append(out, ann)
		i = end - 1
	}
	return out
}

// identAt 返回 s[pos:] 开头的标识符
func identAt(s string, pos int) string {
	end := pos
	for end < len(s) {
		r, size := utf8.DecodeRuneInString(s[end:])
		if r != '_' && !unicode.IsLetter(r) && !(end > pos && unicode.IsDigit(r)) {
			break
		}
		end += size
	}
	return s[pos:end]
}

// matchParen 返回与 s[open] 匹配的右括号下标，跳过引号内容；不闭合时返回 -1
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch c := s[i]; c {
		case '`', '"':
			j := strings.IndexByte(s[i+1:], c)
			if j < 0 {
				return -1
			}
			i += j + 1
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseParams 解析括号内的 key=value 列表，只有 key 时值为 "true"
func parseParams(content string) map[string]string {
	params := make(map[string]string)
	for _, item := range splitTopLevel(content) {
		key, value, hasValue := strings.Cut(item, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" || identAt(key, 0) != key {
			continue
		}
		if !hasValue {
			params[key] = "true"
			continue
		}
		params[key] = unquote(strings.TrimSpace(value))
	}
	return params
}

// splitTopLevel 按逗号分隔，忽略引号和嵌套括号内的逗号
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '`', '"':
			if j := strings.IndexByte(s[i+1:], c); j >= 0 {
				i += j + 1
			}
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if rest := s[start:]; strings.TrimSpace(rest) != "" {
		parts = append(parts, rest)
	}
	return parts
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '`' || v[0] == '"') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

// HasAnnotation 检查是否包含指定注解
func HasAnnotation(annotations []*Annotation, name string) bool {
	return GetAnnotation(annotations, name) != nil
}

// GetAnnotation 获取指定名称的第一个注解
func GetAnnotation(annotations []*Annotation, name string) *Annotation {
	for _, ann := range annotations {
		if ann.Name == name {
			return ann
		}
	}
	return nil
}

// GetParam 获取注解参数，参数名大小写不敏感
func (a *Annotation) GetParam(key string) string {
	return a.Params[strings.ToLower(key)]
}

// LookupParam 获取注解参数并报告是否存在
func (a *Annotation) LookupParam(key string) (string, bool) {
	v, ok := a.Params[strings.ToLower(key)]
	return v, ok
}
