package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donutnomad/derivegen/internal/diag"
	"github.com/donutnomad/derivegen/internal/structparse"
)

func parse(t *testing.T, body string) *structparse.Declaration {
	t.Helper()
	src := "package demo\n\nimport (\n\t\"time\"\n\n\t\"github.com/samber/mo\"\n)\n\n" + body
	decl, err := structparse.ParseSource("demo.go", []byte(src), "T0")
	require.NoError(t, err)
	return decl
}

func classifyErr(t *testing.T, body string) *diag.Diagnostic {
	t.Helper()
	decl := parse(t, body)
	_, err := ClassifyDecl(decl)
	require.Error(t, err)
	d, ok := diag.As(err)
	require.True(t, ok, "期望诊断错误，得到 %v", err)
	return d
}

// TestClassify 测试形状判定
// 场景：Plain、Optional（限定/未限定）、Repeated（注释/标签）、Phantom 三种写法
func TestClassify(t *testing.T) {
	decl := parse(t, `
type T0[P any] struct {
	executable string
	at         time.Time
	current    mo.Option[string]
	local      Option[int]
	// @builder(each = "arg")
	args   []string
	env    []string `+"`builder:\"each=env\"`"+`
	plain  []string
	zero   [0]P
	data   PhantomData[P]
	marker mo.Phantom[P]
	fixed  [4]byte
	pair   Option2[int, string]
}
`)
	shapes, err := ClassifyDecl(decl)
	require.NoError(t, err)

	got := make([]string, 0, len(shapes))
	for _, s := range shapes {
		got = append(got, s.String())
	}
	assert.Equal(t, []string{
		"Plain(string)",
		"Plain(time.Time)",
		"Optional(string)",
		"Optional(int)",
		"Repeated(string, arg)",
		"Repeated(string, env)",
		"Plain([]string)",
		"Phantom(P)",
		"Phantom(P)",
		"Phantom(P)",
		"Plain([4]byte)",
		"Plain(Option2[int, string])",
	}, got)

	assert.Equal(t, "mo", shapes[2].OptionQualifier)
	assert.Equal(t, "", shapes[3].OptionQualifier)
}

func TestClassify_OptionWithTwoArgsIsPlain(t *testing.T) {
	decl := parse(t, "type T0 struct {\n\tpair Option[int, string]\n}\n")
	shapes, err := ClassifyDecl(decl)
	require.NoError(t, err)
	assert.Equal(t, Plain, shapes[0].Kind)
}

// TestClassify_MalformedBuilder 测试 builder 属性的各种错误写法
func TestClassify_MalformedBuilder(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		message string
	}{
		{"two entries", `// @builder(each = "arg", each = "other")` + "\n\targs []string", expectBuilder},
		{"wrong key", `// @builder(eac = "arg")` + "\n\targs []string", expectBuilder},
		{"path form", `// @builder` + "\n\targs []string", expectBuilder},
		{"name-value form", `// @builder = "arg"` + "\n\targs []string", expectBuilder},
		{"empty list", `// @builder()` + "\n\targs []string", expectBuilder},
		{"nested literal", `// @builder("arg")` + "\n\targs []string", expectBuilder},
		{"int literal", `// @builder(each = 1)` + "\n\targs []string", "`each` must be a string literal, found integer"},
		{"bad identifier", `// @builder(each = "a-b")` + "\n\targs []string", "is not a valid identifier"},
		{"blank identifier", `// @builder(each = "_")` + "\n\targs []string", "is not a valid identifier"},
		{"not a slice", `// @builder(each = "arg")` + "\n\targs map[string]string", "requires a slice field, found `map[string]string`"},
		{"array", `// @builder(each = "arg")` + "\n\targs [3]string", "requires a slice field"},
		{"optional", `// @builder(each = "arg")` + "\n\targs mo.Option[[]string]", "found optional"},
		{"tag two entries", "args []string `builder:\"each=arg,each=other\"`", expectBuilder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := classifyErr(t, "type T0 struct {\n\t"+tt.field+"\n}\n")
			assert.Equal(t, diag.MalformedAttribute, d.Kind)
			assert.Contains(t, d.Message, tt.message)
		})
	}
}

func TestClassify_MalformedSpan(t *testing.T) {
	body := "type T0 struct {\n\t// @builder(each = \"arg\", each = \"other\")\n\targs []string\n}\n"
	d := classifyErr(t, body)
	// 整个属性（含 @）
	assert.Equal(t, 5, d.Span.Start.Column)
	assert.Equal(t, len(`@builder(each = "arg", each = "other")`), d.Span.Len())
}

func TestClassify_MalformedAbortsDeclaration(t *testing.T) {
	decl := parse(t, "type T0 struct {\n\tname string\n\t// @builder(eac = \"arg\")\n\targs []string\n\tlater int\n}\n")
	shapes, err := ClassifyDecl(decl)
	assert.Nil(t, shapes)
	assert.True(t, diag.IsKind(err, diag.MalformedAttribute))
}

func TestClassify_DuplicateAttribute(t *testing.T) {
	d := classifyErr(t, "type T0 struct {\n\t// @builder(each = \"arg\")\n\targs []string `builder:\"each=other\"`\n}\n")
	assert.Equal(t, diag.MalformedAttribute, d.Kind)
	assert.Contains(t, d.Message, "duplicate `builder` attribute")
	require.Len(t, d.Notes, 1)
}

// TestClassify_Debug 测试 debug 属性
func TestClassify_Debug(t *testing.T) {
	decl := parse(t, "type T0 struct {\n\tbitmask uint8 // @debug = \"0b%08b\"\n\tpct float64 `debug:\"%5.1f%%\"`\n\tname string\n}\n")
	shapes, err := ClassifyDecl(decl)
	require.NoError(t, err)

	assert.True(t, shapes[0].HasFormat)
	assert.Equal(t, "0b%08b", shapes[0].Format)
	assert.Equal(t, "%5.1f%%", shapes[1].Format)
	assert.False(t, shapes[2].HasFormat)
}

func TestClassify_MalformedDebug(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		message string
	}{
		{"list form", `bitmask uint8 // @debug("x")`, expectDebug},
		{"path form", `bitmask uint8 // @debug`, expectDebug},
		{"int literal", `bitmask uint8 // @debug = 8`, "found integer literal"},
		{"no verb", `bitmask uint8 // @debug = "bits"`, "found 0 verbs"},
		{"two verbs", `bitmask uint8 // @debug = "%d/%d"`, "found 2 verbs"},
		{"star width", `bitmask uint8 // @debug = "%*d"`, "found 2 verbs"},
		{"trailing percent", `bitmask uint8 // @debug = "%d%"`, "trailing `%`"},
		{"indexed", `bitmask uint8 // @debug = "%[1]d"`, "explicit argument indexes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := classifyErr(t, "type T0 struct {\n\t"+tt.field+"\n}\n")
			assert.Equal(t, diag.MalformedAttribute, d.Kind)
			assert.Contains(t, d.Message, tt.message)
		})
	}
}

func TestCountOperands(t *testing.T) {
	tests := map[string]int{
		"%v":       1,
		"0b%08b":   1,
		"%%":       0,
		"100%% %d": 1,
		"%-10s|":   1,
		"%.*f":     2,
		"%+q %x":   2,
		"":         0,
	}
	for format, want := range tests {
		got, err := CountOperands(format)
		require.NoError(t, err, format)
		assert.Equal(t, want, got, format)
	}
}
