package plugin

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

// stubGenerator 只用于注册表与帮助文本测试
type stubGenerator struct {
	BaseGenerator
}

func (*stubGenerator) Generate(*GenerateContext) (*GenerateResult, error) {
	return NewGenerateResult(), nil
}

func newMockGenerator(name string, annotations []string, targets []TargetKind, params []ParamDef, opts ...BaseOption) *stubGenerator {
	opts = append([]BaseOption{WithParamDefs(params)}, opts...)
	return &stubGenerator{BaseGenerator: *NewBaseGenerator(name, annotations, targets, opts...)}
}

// TestFormatHelpText 测试帮助文本
// 功能：列出注解、生成器名、参数说明与示例
// 场景：必填参数与带默认值的参数都要有标记
func TestFormatHelpText(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(newMockGenerator("debug", []string{"CustomDebug"}, []TargetKind{TargetStruct}, []ParamDef{
		{Name: "method", Default: "GoString", Description: "生成的方法名"},
		{Name: "recv", Required: true, Description: "接收者名"},
	}))

	text := FormatHelpText(registry)
	for _, want := range []string{
		"  @CustomDebug (debug)",
		"output",
		"输出文件路径",
		"method [默认: GoString]",
		"生成的方法名",
		"recv (必填)",
		"示例: @CustomDebug  @CustomDebug(output=$FILE_gen.go)  @CustomDebug(method=GoString)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("help text missing %q:\n%s", want, text)
		}
	}
}

// TestFormatHelpText_Alignment 测试参数说明按显示宽度对齐
func TestFormatHelpText_Alignment(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(newMockGenerator("builder", []string{"Builder"}, []TargetKind{TargetStruct}, []ParamDef{
		{Name: "name", Default: "{{.Name}}Builder", Description: "D1"},
		{Name: "ctor", Description: "D2"},
	}))

	var cols []int
	for _, line := range strings.Split(FormatHelpText(registry), "\n") {
		for _, d := range []string{"D1", "D2"} {
			if strings.HasSuffix(line, d) {
				cols = append(cols, runewidth.StringWidth(strings.TrimSuffix(line, d)))
			}
		}
	}
	if len(cols) != 2 || cols[0] != cols[1] {
		t.Errorf("descriptions not aligned: %v", cols)
	}
}

// TestFormatHelpText_Order 测试帮助文本按优先级排列
func TestFormatHelpText_Order(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(newMockGenerator("debug", []string{"CustomDebug"}, []TargetKind{TargetStruct}, nil, WithPriority(20)))
	registry.MustRegister(newMockGenerator("builder", []string{"Builder"}, []TargetKind{TargetStruct}, nil, WithPriority(10)))

	text := FormatHelpText(registry)
	if strings.Index(text, "@Builder") > strings.Index(text, "@CustomDebug") {
		t.Errorf("@Builder should be listed before @CustomDebug, got:\n%s", text)
	}
}

func TestFormatHelpText_EmptyRegistry(t *testing.T) {
	if text := FormatHelpText(NewRegistry()); !strings.Contains(text, "(暂无已注册的生成器)") {
		t.Errorf("unexpected help text: %q", text)
	}
}

func TestParamLabel(t *testing.T) {
	tests := []struct {
		param ParamDef
		want  string
	}{
		{ParamDef{Name: "method", Default: "GoString"}, "method [默认: GoString]"},
		{ParamDef{Name: "name", Required: true}, "name (必填)"},
		{ParamDef{Name: "ctor"}, "ctor"},
	}
	for _, tt := range tests {
		if got := paramLabel(tt.param); got != tt.want {
			t.Errorf("paramLabel(%+v) = %q, want %q", tt.param, got, tt.want)
		}
	}
}
