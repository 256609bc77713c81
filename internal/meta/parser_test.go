package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Path(t *testing.T) {
	item, err := Parse("builder")
	require.NoError(t, err)
	assert.Equal(t, KindPath, item.Kind)
	assert.Equal(t, "builder", item.Name)
	assert.Equal(t, Span{Start: 0, End: 7}, item.Span)
}

func TestParse_List(t *testing.T) {
	src := `builder(each = "arg")`
	item, err := Parse(src)
	require.NoError(t, err)

	assert.Equal(t, KindList, item.Kind)
	assert.Equal(t, "builder", item.Name)
	assert.Equal(t, Span{Start: 0, End: len(src)}, item.Span)
	require.Len(t, item.Nested, 1)

	nested := item.Nested[0]
	assert.True(t, nested.IsNameValue("each"))
	v, ok := nested.StringValue()
	assert.True(t, ok)
	assert.Equal(t, "arg", v)
	assert.Equal(t, `"arg"`, src[nested.Value.Span.Start:nested.Value.Span.End])
	assert.Equal(t, `each = "arg"`, src[nested.Span.Start:nested.Span.End])
}

func TestParse_ListMultipleAndTrailingComma(t *testing.T) {
	item, err := Parse(`builder(each = "arg", each = "other",)`)
	require.NoError(t, err)
	require.Len(t, item.Nested, 2)
	assert.Equal(t, `builder(each = "arg", each = "other")`, item.String())
}

func TestParse_EmptyList(t *testing.T) {
	item, err := Parse(`builder()`)
	require.NoError(t, err)
	assert.Equal(t, KindList, item.Kind)
	assert.Empty(t, item.Nested)
}

func TestParse_NameValue(t *testing.T) {
	src := `debug = "0b%08b"`
	item, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, KindNameValue, item.Kind)
	assert.Equal(t, "debug", item.Name)
	assert.Equal(t, LitStr, item.Value.Kind)
	assert.Equal(t, "0b%08b", item.Value.Value)
	assert.Equal(t, Span{Start: 0, End: len(src)}, item.Span)
}

func TestParse_RawString(t *testing.T) {
	item, err := Parse("debug = `%q`")
	require.NoError(t, err)
	v, ok := item.StringValue()
	assert.True(t, ok)
	assert.Equal(t, "%q", v)
}

func TestParse_LiteralKinds(t *testing.T) {
	tests := []struct {
		src  string
		kind LitKind
	}{
		{`x = "s"`, LitStr},
		{`x = 1`, LitInt},
		{`x = 1.5`, LitFloat},
		{`x = 'c'`, LitChar},
		{`x = true`, LitBool},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			item, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, item.Value.Kind)
		})
	}
}

func TestParse_NestedLiteral(t *testing.T) {
	item, err := Parse(`builder("arg")`)
	require.NoError(t, err)
	require.Len(t, item.Nested, 1)
	assert.Equal(t, KindLit, item.Nested[0].Kind)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		span Span
	}{
		{"missing name", `= "x"`, Span{Start: 0, End: 1}},
		{"bare ident value", `each = arg`, Span{Start: 7, End: 10}},
		{"unclosed list", `builder(each = "arg"`, Span{Start: 20, End: 20}},
		{"missing separator", `builder(each = "a" each = "b")`, Span{Start: 19, End: 23}},
		{"trailing tokens", `debug = "x" "y"`, Span{Start: 12, End: 15}},
		{"unterminated string", `debug = "x`, Span{Start: 8, End: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			var merr *Error
			require.ErrorAs(t, err, &merr)
			assert.Equal(t, tt.span, merr.Span)
		})
	}
}

func TestParseList_TagForm(t *testing.T) {
	item, err := ParseList("builder", "each=arg", WithBareIdentStrings())
	require.NoError(t, err)
	assert.Equal(t, KindList, item.Kind)
	require.Len(t, item.Nested, 1)
	v, ok := item.Nested[0].StringValue()
	assert.True(t, ok)
	assert.Equal(t, "arg", v)
}

func TestParseList_TagFormMultiple(t *testing.T) {
	item, err := ParseList("builder", "each=arg,each=other", WithBareIdentStrings())
	require.NoError(t, err)
	assert.Len(t, item.Nested, 2)
}

func TestParseList_TagFormIntLiteral(t *testing.T) {
	item, err := ParseList("builder", "each=1", WithBareIdentStrings())
	require.NoError(t, err)
	require.Len(t, item.Nested, 1)
	assert.Equal(t, LitInt, item.Nested[0].Value.Kind)
}

func TestParseList_Empty(t *testing.T) {
	item, err := ParseList("builder", "")
	require.NoError(t, err)
	assert.Empty(t, item.Nested)
}

func TestSpanCover(t *testing.T) {
	a := Span{Start: 3, End: 5}
	b := Span{Start: 1, End: 4}
	assert.Equal(t, Span{Start: 1, End: 5}, a.Cover(b))
}
