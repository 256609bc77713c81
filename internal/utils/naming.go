package utils

import (
	"go/token"
	"strings"
	"unicode"
)

// commonInitialisms 常见首字母缩略词，整段出现时全部大写
var commonInitialisms = map[string]bool{
	"API": true, "ASCII": true, "CPU": true, "CSS": true, "DNS": true, "EOF": true,
	"GUID": true, "HTML": true, "HTTP": true, "HTTPS": true, "ID": true, "IP": true,
	"JSON": true, "QPS": true, "RAM": true, "RPC": true, "SQL": true, "SSH": true,
	"TCP": true, "TLS": true, "TTL": true, "UDP": true, "UI": true, "UID": true,
	"UUID": true, "URI": true, "URL": true, "UTF8": true, "VM": true, "XML": true,
}

// UpperCamelCase 转换为导出形式的驼峰命名
// 输入: "executable" 返回: "Executable"
// 输入: "current_dir" 返回: "CurrentDir"
// 输入: "user_id" 返回: "UserID"
// 输入: "userID" 返回: "UserID"
func UpperCamelCase(name string) string {
	var sb strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		if upper := strings.ToUpper(part); commonInitialisms[upper] {
			sb.WriteString(upper)
			continue
		}
		r := []rune(part)
		r[0] = unicode.ToUpper(r[0])
		sb.WriteString(string(r))
	}
	if sb.Len() == 0 {
		return name
	}
	return sb.String()
}

// LowerFirst 将首字母转换为小写
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// SafeParamName 生成安全的参数名
// 避开 Go 关键词与 reserved 中的名字（接收者、包限定符等）
func SafeParamName(name string, reserved ...string) string {
	param := LowerFirst(name)
	if param == "_" || param == "" {
		param = "v"
	}
	taken := func(s string) bool {
		if token.IsKeyword(s) {
			return true
		}
		for _, r := range reserved {
			if r == s {
				return true
			}
		}
		return false
	}
	for taken(param) {
		param += "Val"
	}
	return param
}
