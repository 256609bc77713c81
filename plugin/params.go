package plugin

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"
)

// paramTag 参数结构体字段上的 tag 名
//
//	type BuilderParams struct {
//		Name string `param:"name=name,required=false,default={{.Name}}Builder,description=构建器类型名模板"`
//	}
//
// tag 值是逗号分隔的 key=value，值中的逗号用 \, 转义
const paramTag = "param"

// commonParams 所有生成器都接受、由 Run 统一处理的参数
var commonParams = []string{"output"}

// ParseParamsFromStruct 从参数结构体的 tag 读取参数定义，v 可以是值或指针
func ParseParamsFromStruct(v any) []ParamDef {
	var defs []ParamDef
	eachParamField(reflect.TypeOf(v), func(_ int, def ParamDef) {
		defs = append(defs, def)
	})
	return defs
}

// ParseAnnotationParams 把注解参数写入 target（参数结构体指针）
//
// 注解中缺省的参数取 paramDefs 中的默认值；必填参数缺失、
// 出现未声明的参数或值无法转换为字段类型时返回错误。
func ParseAnnotationParams(annotation *Annotation, target any, paramDefs []ParamDef) error {
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Pointer || val.IsNil() || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("参数目标必须是结构体指针，得到 %T", target)
	}
	val = val.Elem()

	defaults := lo.SliceToMap(paramDefs, func(d ParamDef) (string, ParamDef) { return d.Name, d })

	known := slices.Clone(commonParams)
	var err error
	eachParamField(val.Type(), func(index int, def ParamDef) {
		known = append(known, def.Name)
		if err != nil {
			return
		}
		value, present := annotation.LookupParam(def.Name)
		if !present || value == "" {
			if d, ok := defaults[def.Name]; ok {
				if d.Required && !present {
					err = fmt.Errorf("@%s 缺少必填参数 %s", annotation.Name, def.Name)
					return
				}
				value = d.Default
			}
		}
		if setErr := setFieldValue(val.Field(index), value); setErr != nil {
			err = fmt.Errorf("@%s 参数 %s: %w", annotation.Name, def.Name, setErr)
		}
	})
	if err != nil {
		return err
	}

	for _, key := range slices.Sorted(maps.Keys(annotation.Params)) {
		if !slices.Contains(known, key) {
			return fmt.Errorf("@%s 不支持参数 %s（可用: %s）", annotation.Name, key, strings.Join(known, ", "))
		}
	}
	return nil
}

// eachParamField 遍历带 param tag 的可导出字段
func eachParamField(typ reflect.Type, fn func(index int, def ParamDef)) {
	if typ == nil {
		return
	}
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return
	}
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag, ok := field.Tag.Lookup(paramTag)
		if !ok || !field.IsExported() {
			continue
		}
		if def := parseParamTag(tag); def.Name != "" {
			fn(i, def)
		}
	}
}

func parseParamTag(tag string) ParamDef {
	var def ParamDef
	for _, item := range splitEscaped(tag, ',') {
		key, value, _ := strings.Cut(item, "=")
		switch key {
		case "name":
			def.Name = value
		case "required":
			def.Required = cast.ToBool(value)
		case "default":
			def.Default = value
		case "description":
			def.Description = value
		}
	}
	return def
}

// splitEscaped 按 sep 分隔，反斜杠转义下一个字符
func splitEscaped(s string, sep byte) []string {
	var (
		parts []string
		cur   strings.Builder
	)
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s):
			i++
			cur.WriteByte(s[i])
		case s[i] == sep:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(s[i])
		}
	}
	return append(parts, cur.String())
}

// setFieldValue 按字段类型转换参数值，空串写入零值
// []string 字段的值用 | 分隔
func setFieldValue(field reflect.Value, value string) error {
	if value == "" {
		field.SetZero()
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		v, err := cast.ToBoolE(value)
		if err != nil {
			return err
		}
		field.SetBool(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := cast.ToInt64E(value)
		if err != nil {
			return err
		}
		field.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := cast.ToUint64E(value)
		if err != nil {
			return err
		}
		field.SetUint(v)
	case reflect.Float32, reflect.Float64:
		v, err := cast.ToFloat64E(value)
		if err != nil {
			return err
		}
		field.SetFloat(v)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("不支持的参数类型 %s", field.Type())
		}
		items := lo.Map(strings.Split(value, "|"), func(s string, _ int) string { return strings.TrimSpace(s) })
		field.Set(reflect.ValueOf(items).Convert(field.Type()))
	default:
		return fmt.Errorf("不支持的参数类型 %s", field.Type())
	}
	return nil
}
