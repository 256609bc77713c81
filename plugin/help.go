package plugin

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"
)

// outputParam 所有生成器都接受的参数
var outputParam = ParamDef{Name: "output", Description: "输出文件路径（支持 $FILE、$PACKAGE）"}

// FormatHelpText 列出已注册的注解及其参数，按生成器优先级排列
//
//	@Builder (builder)
//	  output          输出文件路径（支持 $FILE、$PACKAGE）
//	  name            ...
//	  示例: @Builder  @Builder(output=$FILE_gen.go)
func FormatHelpText(registry *Registry) string {
	generators := registry.Generators()
	if len(generators) == 0 {
		return "  (暂无已注册的生成器)\n"
	}

	var sb strings.Builder
	for _, gen := range generators {
		ann := "@" + gen.Annotations()[0]
		fmt.Fprintf(&sb, "  %s (%s)\n", ann, gen.Name())

		params := append([]ParamDef{outputParam}, gen.ParamDefs()...)
		labels := lo.Map(params, func(p ParamDef, _ int) string { return paramLabel(p) })
		width := lo.Max(lo.Map(labels, func(l string, _ int) int { return runewidth.StringWidth(l) }))
		for i, p := range params {
			fmt.Fprintf(&sb, "    %s  %s\n", runewidth.FillRight(labels[i], width), p.Description)
		}

		examples := []string{ann, ann + "(output=$FILE_gen.go)"}
		for _, p := range gen.ParamDefs() {
			if p.Default != "" {
				examples = append(examples, fmt.Sprintf("%s(%s=%s)", ann, p.Name, p.Default))
			}
		}
		fmt.Fprintf(&sb, "    示例: %s\n\n", strings.Join(examples, "  "))
	}
	return sb.String()
}

// paramLabel 参数名加必填与默认值标记
func paramLabel(p ParamDef) string {
	label := p.Name
	if p.Required {
		label += " (必填)"
	}
	if p.Default != "" {
		label += " [默认: " + p.Default + "]"
	}
	return label
}
