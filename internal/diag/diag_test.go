package diag

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = "package demo\n\ntype Command struct {\n\t// @builder(eac = \"arg\")\n\targs []string\n}\n"

func sampleSpan() Span {
	// "@builder(eac = \"arg\")" 位于第 4 行第 5 列
	start := token.Position{Filename: "/src/demo/command.go", Offset: 40, Line: 4, Column: 5}
	end := token.Position{Filename: "/src/demo/command.go", Offset: 61, Line: 4, Column: 26}
	return Span{Start: start, End: end}
}

func readSample(name string) ([]byte, error) {
	if name != "/src/demo/command.go" {
		return nil, errors.New("not found")
	}
	return []byte(sampleSource), nil
}

func TestErrorWrapping(t *testing.T) {
	err := Errorf(MalformedAttribute, sampleSpan(), "expected `builder(each = %q)`", "...")
	wrapped := fmt.Errorf("解析结构体 Command 失败: %w", err)

	d, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, MalformedAttribute, d.Kind)
	assert.Equal(t, "expected `builder(each = \"...\")`", d.Message)
	assert.True(t, IsKind(wrapped, MalformedAttribute))
	assert.False(t, IsKind(wrapped, UnsupportedShape))
	assert.Contains(t, err.Error(), "/src/demo/command.go:4:5")

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "unsupported-shape", UnsupportedShape.String())
	assert.Equal(t, "malformed-attribute", MalformedAttribute.String())
	assert.Equal(t, "name-conflict", NameConflict.String())
	assert.Equal(t, "unknown", Kind(0).String())
}

func TestPretty(t *testing.T) {
	d := Errorf(MalformedAttribute, sampleSpan(), "expected `builder(each = \"...\")`").Diagnostic

	var buf bytes.Buffer
	Pretty(&buf, []Diagnostic{d}, PrettyOpts{BaseDir: "/src", ReadFile: readSample})

	want := "demo/command.go:4:5: error[malformed-attribute]: expected `builder(each = \"...\")`\n" +
		"  |\n" +
		"4 | \t// @builder(eac = \"arg\")\n" +
		"  | \t   ^^^^^^^^^^^^^^^^^^^^^\n"
	assert.Equal(t, want, buf.String())
}

func TestPretty_MissingSource(t *testing.T) {
	sp := sampleSpan()
	sp.Start.Filename = "/elsewhere.go"
	d := Errorf(UnsupportedShape, sp, "only structs with named fields are supported").Diagnostic

	var buf bytes.Buffer
	Pretty(&buf, []Diagnostic{d}, PrettyOpts{ReadFile: readSample})
	assert.Equal(t, "/elsewhere.go:4:5: error[unsupported-shape]: only structs with named fields are supported\n", buf.String())
}

func TestPretty_Note(t *testing.T) {
	err := Errorf(NameConflict, sampleSpan(), "setter `Arg` is generated twice").
		WithNote(sampleSpan(), "first generated here")

	var buf bytes.Buffer
	Pretty(&buf, []Diagnostic{err.Diagnostic}, PrettyOpts{ReadFile: readSample})
	assert.Contains(t, buf.String(), "note: first generated here")
	assert.Contains(t, buf.String(), "^^^^^^^^^^^^^^^^^^^^^ first generated here")
}

func TestIndentFor(t *testing.T) {
	assert.Equal(t, "\t  ", indentFor("\tab"))
	assert.Equal(t, "    ", indentFor("中文"))
}

func TestJSON(t *testing.T) {
	d := Errorf(UnsupportedShape, sampleSpan(), "only structs with named fields are supported").Diagnostic

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, []Diagnostic{d}))

	var out DiagnosticsOutput
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, 1, out.Count)
	got := out.Diagnostics[0]
	assert.Equal(t, "error", got.Severity)
	assert.Equal(t, "unsupported-shape", got.Code)
	assert.Equal(t, 4, got.Location.StartLine)
	assert.Equal(t, 40, got.Location.StartByte)
	assert.Equal(t, 61, got.Location.EndByte)
}
