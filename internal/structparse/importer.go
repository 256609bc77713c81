package structparse

import (
	"go/ast"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// versionSuffix 匹配 /v2、/v3 这类主版本后缀
var versionSuffix = regexp.MustCompile(`^v[0-9]+$`)

// extractImports 提取文件中的导入信息
// key 为源文件中引用该包使用的限定符
func extractImports(file *ast.File, packageName func(string) string) map[string]*ImportInfo {
	imports := make(map[string]*ImportInfo)

	for _, imp := range file.Imports {
		importPath, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}

		info := &ImportInfo{
			PackageName: packageName(importPath),
			ImportPath:  importPath,
		}
		if imp.Name != nil {
			// 点导入与空白导入不会出现在限定符中
			if imp.Name.Name == "_" || imp.Name.Name == "." {
				continue
			}
			info.Alias = imp.Name.Name
		}
		imports[info.Qualifier()] = info
	}

	return imports
}

// GuessPackageName 根据导入路径推断包名（与 goimports 的推断规则一致）
// 输入: "github.com/samber/mo" 返回: "mo"
// 输入: "github.com/Masterminds/sprig/v3" 返回: "sprig"
// 输入: "github.com/mattn/go-runewidth" 返回: "runewidth"
// 输入: "gopkg.in/yaml.v3" 返回: "yaml"
func GuessPackageName(importPath string) string {
	base := path.Base(importPath)
	if versionSuffix.MatchString(base) {
		if dir := path.Dir(importPath); dir != "." {
			base = path.Base(dir)
		}
	}
	base = strings.TrimPrefix(base, "go-")
	if i := strings.IndexFunc(base, notIdentifier); i >= 0 {
		base = base[:i]
	}
	return base
}

func notIdentifier(r rune) bool {
	return !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
}
