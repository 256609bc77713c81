package debuggen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donutnomad/derivegen/internal/diag"
	"github.com/donutnomad/derivegen/internal/structparse"
	"github.com/donutnomad/derivegen/internal/utils"
)

func synthesize(t *testing.T, src, name string, opts Options) string {
	t.Helper()
	decl, err := structparse.ParseSource("demo.go", []byte(src), name)
	require.NoError(t, err)
	gen, err := Synthesize(decl, opts)
	require.NoError(t, err)
	out, err := utils.Format("demo_debug.go", gen.Bytes())
	require.NoError(t, err, "生成的代码无法格式化:\n%s", gen.String())
	return string(out)
}

func synthesizeErr(t *testing.T, src, name string, opts Options) error {
	t.Helper()
	decl, err := structparse.ParseSource("demo.go", []byte(src), name)
	require.NoError(t, err)
	gen, err := Synthesize(decl, opts)
	require.Error(t, err)
	assert.Nil(t, gen)
	return err
}

// TestSynthesize_Field 测试默认格式与自定义格式
// 功能：所有字段编译进一次 Sprintf，@debug 替换该字段的格式
func TestSynthesize_Field(t *testing.T) {
	src := `package demo

type Field struct {
	name string
	// @debug = "0b%08b"
	bitmask uint8
	_       int
}
`
	out := synthesize(t, src, "Field", Options{})

	assert.Contains(t, out, "// GoString formats Field for %#v, printing every field in declaration order.")
	assert.Contains(t, out, "func (x Field) GoString() string {")
	assert.Contains(t, out, `return fmt.Sprintf("Field{name: %#v, bitmask: 0b%08b}", x.name, x.bitmask)`)
	assert.Contains(t, out, `"fmt"`)
}

func TestSynthesize_TagFormat(t *testing.T) {
	src := "package demo\n\ntype Point struct {\n\tx float64 `debug:\"%.2f\"`\n\ty float64\n}\n"
	out := synthesize(t, src, "Point", Options{})
	assert.Contains(t, out, `fmt.Sprintf("Point{x: %.2f, y: %#v}", x.x, x.y)`)
}

// TestSynthesize_StringMethod 测试 method=String
func TestSynthesize_StringMethod(t *testing.T) {
	src := "package demo\n\ntype Field struct {\n\tname string\n}\n"
	out := synthesize(t, src, "Field", Options{Method: MethodString})
	assert.Contains(t, out, "// String formats Field for %v")
	assert.Contains(t, out, "func (x Field) String() string {")
	assert.NotContains(t, out, "GoString")
}

// TestSynthesize_Phantom 测试 Phantom 字段只输出类型
// 场景：U 只出现在 Phantom 字段中，不属于按值格式化的类型参数
func TestSynthesize_Phantom(t *testing.T) {
	src := `package demo

type Wrapper[T any, U any] struct {
	value  T
	marker [0]U
}
`
	out := synthesize(t, src, "Wrapper", Options{})

	assert.Contains(t, out, "func (x Wrapper[T, U]) GoString() string {")
	assert.Contains(t, out, `fmt.Sprintf("Wrapper{value: %#v, marker: %T}", x.value, x.marker)`)
	assert.Contains(t, out, "Type parameters formatted by value: T.")
}

// TestSynthesize_PhantomNested 测试嵌套使用不算 phantom-only
// 场景：T 同时出现在 Option[T] 与 [0]T 中，按深度遍历判定为按值格式化
func TestSynthesize_PhantomNested(t *testing.T) {
	src := `package demo

import "github.com/samber/mo"

type Cell[T any] struct {
	value  mo.Option[T]
	marker [0]T
}
`
	out := synthesize(t, src, "Cell", Options{})
	assert.Contains(t, out, "Type parameters formatted by value: T.")
	assert.NotContains(t, out, "samber/mo", "非 _ 字段不需要导入类型所在的包")
}

func TestSynthesize_BlankPhantom(t *testing.T) {
	src := `package demo

import "time"

type Tag[T any] struct {
	_ [0]T
	_ PhantomData[time.Duration]
}

type PhantomData[T any] struct{}
`
	out := synthesize(t, src, "Tag", Options{})
	assert.Contains(t, out, `fmt.Sprintf("Tag{_: %T, _: %T}", *new([0]T), *new(PhantomData[time.Duration]))`)
	assert.Contains(t, out, `"time"`)
	assert.Contains(t, out, "No type parameter is formatted by value.")
}

func TestSynthesize_Empty(t *testing.T) {
	out := synthesize(t, "package demo\n\ntype Empty struct {\n\t_ int\n}\n", "Empty", Options{})
	assert.Contains(t, out, `return "Empty{}"`)
	assert.NotContains(t, out, `"fmt"`)
}

// TestSynthesize_ReceiverName 测试接收者名避开类型参数
func TestSynthesize_ReceiverName(t *testing.T) {
	src := "package demo\n\ntype Box[x any] struct {\n\tv x\n}\n"
	out := synthesize(t, src, "Box", Options{})
	assert.Contains(t, out, "func (xVal Box[x]) GoString() string {")
	assert.Contains(t, out, "xVal.v)")
}

func TestSynthesize_Errors(t *testing.T) {
	t.Run("unknown method", func(t *testing.T) {
		err := synthesizeErr(t, "package demo\n\ntype A struct{ a int }\n", "A", Options{Method: "Format"})
		_, ok := diag.As(err)
		assert.False(t, ok)
		assert.Contains(t, err.Error(), "Format")
	})

	t.Run("field named like method", func(t *testing.T) {
		err := synthesizeErr(t, "package demo\n\ntype A struct{ GoString string }\n", "A", Options{})
		d, ok := diag.As(err)
		require.True(t, ok)
		assert.Equal(t, diag.NameConflict, d.Kind)
	})

	t.Run("two verbs", func(t *testing.T) {
		src := "package demo\n\ntype A struct {\n\t// @debug = \"%d-%d\"\n\ta int\n}\n"
		err := synthesizeErr(t, src, "A", Options{})
		assert.True(t, diag.IsKind(err, diag.MalformedAttribute))
	})

	t.Run("not a struct", func(t *testing.T) {
		decl, err := structparse.ParseSource("demo.go", []byte("package demo\n\ntype A int\n"), "A")
		assert.Nil(t, decl)
		assert.True(t, diag.IsKind(err, diag.UnsupportedShape))
	})
}

func TestCompile(t *testing.T) {
	format, args := compile("Rate", []part{
		{label: "value", format: "%.1f%%", arg: "x.value"},
		{label: "unit", format: "%#v", arg: "x.unit"},
	})
	assert.Equal(t, "Rate{value: %.1f%%, unit: %#v}", format)
	assert.Equal(t, []any{"x.value", "x.unit"}, args)
	assert.Equal(t, "100%%", escape("100%"))
}
