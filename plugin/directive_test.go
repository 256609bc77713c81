package plugin

import (
	"reflect"
	"testing"
)

func TestDirectiveFields(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"-output `$FILE_gen`", []string{"-output", "$FILE_gen"}},
		{`plugin:builder  -output "a b.go"`, []string{"plugin:builder", "-output", "a b.go"}},
		{"-output ''", []string{"-output", ""}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := directiveFields(tt.line); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("directiveFields(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

// TestParseDirectiveLine 测试默认输出与插件输出
// 场景：plugin:<name> 之后的 -output 只作用于该插件，插件名不区分大小写
func TestParseDirectiveLine(t *testing.T) {
	cfg := parseDirectiveLine("-output `all_gen` plugin:Builder -output `$FILE_b` plugin:debug -output dbg", "/src/demo/a.go")
	if cfg == nil {
		t.Fatal("expected config")
	}
	if cfg.PackageDir != "/src/demo" || cfg.DefaultOutput != "all_gen" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	want := map[string]string{"builder": "$FILE_b", "debug": "dbg"}
	if !reflect.DeepEqual(cfg.PluginOutputs, want) {
		t.Errorf("PluginOutputs = %v, want %v", cfg.PluginOutputs, want)
	}

	if cfg := parseDirectiveLine("plugin:builder", "/src/demo/a.go"); cfg != nil {
		t.Errorf("directive without -output should be ignored, got %+v", cfg)
	}
}
