package plugin

import (
	"strings"
	"testing"

	"github.com/donutnomad/gg"
)

func TestGenerateContext_OutputFor(t *testing.T) {
	ctx := &GenerateContext{
		DefaultOutput: "all_gen.go",
		PluginOutputs: map[string]string{"builder": "builders.go", "debug": ""},
	}
	tests := map[string]string{
		"builder": "builders.go",
		"debug":   "all_gen.go",
		"other":   "all_gen.go",
	}
	for name, want := range tests {
		if got := ctx.OutputFor(name); got != want {
			t.Errorf("OutputFor(%q) = %q, want %q", name, got, want)
		}
	}
	if got := (&GenerateContext{}).OutputFor("builder"); got != "" {
		t.Errorf("empty context should have no output, got %q", got)
	}
}

func newSection(name, pkg, body string) section {
	def := gg.New()
	if pkg != "" {
		def.SetPackage(pkg)
	}
	def.Body().AddString(body)
	return section{generator: name, def: def}
}

// TestMergeSections 测试同一文件多段定义的合并
// 场景：单段不加分隔符；多段按顺序加分隔符；包名冲突报错
func TestMergeSections(t *testing.T) {
	merged, err := mergeSections([]section{newSection("builder", "demo", "var a = 1")})
	if err != nil {
		t.Fatalf("mergeSections() error = %v", err)
	}
	out := string(merged.Bytes())
	if strings.Contains(out, "================") {
		t.Errorf("single section should not have a separator:\n%s", out)
	}
	if !strings.Contains(out, GeneratedHeader) || !strings.Contains(out, "package demo") {
		t.Errorf("missing header or package clause:\n%s", out)
	}

	merged, err = mergeSections([]section{
		newSection("builder", "demo", "var a = 1"),
		newSection("debug", "", "var b = 2"),
	})
	if err != nil {
		t.Fatalf("mergeSections() error = %v", err)
	}
	out = string(merged.Bytes())
	b := strings.Index(out, "// ================ builder ================")
	d := strings.Index(out, "// ================ debug ================")
	if b < 0 || d < 0 || b > d {
		t.Errorf("separators missing or out of order:\n%s", out)
	}
	if strings.Index(out, "var a = 1") > strings.Index(out, "var b = 2") {
		t.Errorf("sections out of order:\n%s", out)
	}

	_, err = mergeSections([]section{newSection("a", "x", ""), newSection("b", "y", "")})
	if err == nil || !strings.Contains(err.Error(), "包名不一致") {
		t.Errorf("expected package mismatch error, got %v", err)
	}
	if _, err := mergeSections(nil); err == nil {
		t.Error("expected error for no sections")
	}
}

func TestExpandOutput(t *testing.T) {
	target := &Target{PackageName: "demo", FilePath: "/src/demo/command.go"}
	if got := expandOutput("$PACKAGE/$FILE_gen", target); got != "demo/command_gen" {
		t.Errorf("expandOutput() = %q", got)
	}
}
