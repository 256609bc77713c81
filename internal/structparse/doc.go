// Package structparse 把带注解的结构体声明解析为 Declaration。
//
// 只接受只含具名字段的结构体。接口、非结构体的命名类型、类型别名以及含嵌入字段的
// 结构体在检查任何字段之前就会以 diag.UnsupportedShape 失败。
//
// # 基本用法
//
//	decl, err := structparse.ParseStruct("path/to/file.go", "Command")
//	if err != nil {
//	    if d, ok := diag.As(err); ok {
//	        // 源码诊断
//	    }
//	    return err
//	}
//	for _, f := range decl.Fields {
//	    fmt.Printf("%s %s\n", f.Name, f.Type)
//	}
//
// # 字段属性
//
// 属性有两种写法，效果相同：
//
//	type Command struct {
//	    // @builder(each = "arg")
//	    args []string
//	    env  []string `builder:"each=env"`
//
//	    bitmask uint8 // @debug = "0b%08b"
//	    mode    uint8 `debug:"%#o"`
//	}
//
// 注释指令的位置精确到字节；标签写在反引号中且不含转义时同样精确，
// 否则诊断覆盖整个标签。
//
// # 并发
//
// ParseContext 缓存已解析的文件，可以被多个生成器并发使用。
package structparse
