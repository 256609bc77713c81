package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/donutnomad/gg"

	"github.com/donutnomad/derivegen/internal/utils"
)

// sectionSeparator 多个生成器写同一文件时，每段前面的分隔注释
const sectionSeparator = "// ================ %s ================"

// mergeSections 合并同一文件的定义，包名必须一致
// 只有一段时不加分隔符
func mergeSections(sections []section) (*gg.Generator, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("没有定义需要合并")
	}

	var pkgName string
	for _, s := range sections {
		name := s.def.PackageName()
		switch {
		case name == "":
		case pkgName == "":
			pkgName = name
		case pkgName != name:
			return nil, fmt.Errorf("包名不一致: %s vs %s", pkgName, name)
		}
	}

	merged := gg.New()
	merged.SetHeader(GeneratedHeader)
	if pkgName != "" {
		merged.SetPackage(pkgName)
	}
	for _, s := range sections {
		if len(sections) > 1 {
			merged.Body().AddLine()
			merged.Body().AddString(fmt.Sprintf(sectionSeparator, s.generator))
		}
		merged.Body().AddLine()
		merged.Merge(s.def)
	}
	return merged, nil
}

// writeOutput 格式化后写入，目录不存在时创建
func writeOutput(path string, gen *gg.Generator) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	return utils.WriteFormat(path, gen.Bytes())
}

// GetOutputPath 计算目标的输出文件
//
// 优先级：注解 output 参数 > 包级 go:derivegen 指令（插件配置优先于默认值）
// > 运行级输出（命令行或配置文件）> defaultFileName。
// 路径中的 $FILE 替换为源文件名（不含 .go），$PACKAGE 替换为包名；
// 缺少 .go 后缀时补上，相对路径相对于源文件目录。
func GetOutputPath(target *Target, ann *Annotation, defaultFileName string, pkgConfig *PackageConfig, pluginName string, runOutput string) string {
	var output string
	if ann != nil {
		output = ann.GetParam("output")
	}
	if output == "" {
		output = pkgConfig.GetPluginOutput(strings.ToLower(pluginName))
	}
	if output == "" {
		output = runOutput
	}
	if output == "" {
		output = defaultFileName
	}
	if output == "" {
		output = "generate.go"
	}

	output = expandOutput(output, target)
	if !strings.HasSuffix(output, ".go") {
		output += ".go"
	}
	if filepath.IsAbs(output) {
		return output
	}
	return filepath.Join(filepath.Dir(target.FilePath), output)
}

func expandOutput(output string, target *Target) string {
	file := strings.TrimSuffix(filepath.Base(target.FilePath), ".go")
	return strings.NewReplacer("$FILE", file, "$PACKAGE", target.PackageName).Replace(output)
}
