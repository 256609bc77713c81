package plugin

import (
	"go/ast"
	"path/filepath"
	"strings"
)

// directivePrefix 包级输出配置指令，// 与 go: 之间可以有空格
//
//	//go:derivegen: -output `$FILE_gen`
//	// go:derivegen: plugin:builder -output `$FILE_builder` plugin:debug -output `debug_gen`
const directivePrefix = "go:derivegen:"

func packageDir(filePath string) string {
	return filepath.Dir(filePath)
}

// parsePackageConfig 一个文件最多一条指令，多条时全部忽略
func (s *Scanner) parsePackageConfig(file *ast.File, filePath string) *PackageConfig {
	var found []string
	for _, cg := range file.Comments {
		for _, c := range cg.List {
			text := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(c.Text, "//"), "/*"), "*/"))
			if _, args, ok := strings.Cut(text, directivePrefix); ok {
				found = append(found, args)
			}
		}
	}
	switch len(found) {
	case 0:
		return nil
	case 1:
		return parseDirectiveLine(found[0], filePath)
	default:
		s.log.Warn("文件定义了多个 go:derivegen: 指令，将被忽略", "file", filePath)
		return nil
	}
}

// parseDirectiveLine 解析指令参数
// plugin:<name> 之后的 -output 只作用于该插件，之前的作用于所有插件
func parseDirectiveLine(line, filePath string) *PackageConfig {
	cfg := &PackageConfig{
		PackageDir:    packageDir(filePath),
		PluginOutputs: make(map[string]string),
	}

	var current string
	args := directiveFields(line)
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case strings.HasPrefix(arg, "plugin:"):
			current = strings.ToLower(strings.TrimPrefix(arg, "plugin:"))
		case arg == "-output" && i+1 < len(args):
			i++
			if current == "" {
				cfg.DefaultOutput = args[i]
			} else {
				cfg.PluginOutputs[current] = args[i]
			}
		}
	}

	if cfg.DefaultOutput == "" && len(cfg.PluginOutputs) == 0 {
		return nil
	}
	return cfg
}

// directiveFields 按空白分隔并去掉引号，引号内的空白不分隔
func directiveFields(line string) []string {
	var (
		fields []string
		cur    strings.Builder
		quote  byte
		inArg  bool
	)
	flush := func() {
		if inArg {
			fields = append(fields, cur.String())
			cur.Reset()
			inArg = false
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0 && c == quote:
			quote = 0
		case quote != 0:
			cur.WriteByte(c)
		case c == '`' || c == '"' || c == '\'':
			quote, inArg = c, true
		case c == ' ' || c == '\t':
			flush()
		default:
			cur.WriteByte(c)
			inArg = true
		}
	}
	flush()
	return fields
}
