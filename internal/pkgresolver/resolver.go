// Package pkgresolver 把导入路径解析为 package 声明中的真实包名
//
// 导入路径的最后一段不一定等于包名（例如目录 gg 中声明 package g2），
// 生成代码时需要真实包名才能判断导入是否要带别名。
package pkgresolver

import (
	"fmt"
	"go/build"
	"go/parser"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
)

// Resolver 包名解析器
// 依次查找标准库、当前模块、模块缓存，结果按导入路径缓存
type Resolver struct {
	goroot   string
	modCache string
	modRoot  string // 包含 go.mod 的目录
	modPath  string // go.mod 中的 module

	mu    sync.RWMutex
	names map[string]string // 空串表示未找到
}

// New 从 dir 向上查找 go.mod 创建解析器，找不到 go.mod 时只解析标准库和模块缓存
func New(dir string) *Resolver {
	r := &Resolver{
		goroot:   build.Default.GOROOT,
		modCache: modCacheDir(),
		names:    make(map[string]string),
	}
	if root, modPath, err := findModule(dir); err == nil {
		r.modRoot, r.modPath = root, modPath
	}
	return r
}

// ModulePath 返回当前模块路径
func (r *Resolver) ModulePath() string {
	return r.modPath
}

// PackageName 返回导入路径对应的包名，磁盘上找不到包时返回 false
func (r *Resolver) PackageName(importPath string) (string, bool) {
	r.mu.RLock()
	name, ok := r.names[importPath]
	r.mu.RUnlock()
	if ok {
		return name, name != ""
	}

	name = ""
	for _, dir := range r.candidates(importPath) {
		if n, err := readPackageName(dir); err == nil {
			name = n
			break
		}
	}

	r.mu.Lock()
	r.names[importPath] = name
	r.mu.Unlock()
	return name, name != ""
}

// candidates 返回导入路径可能对应的目录
func (r *Resolver) candidates(importPath string) []string {
	if isStdLib(importPath) {
		if r.goroot == "" {
			return nil
		}
		return []string{filepath.Join(r.goroot, "src", filepath.FromSlash(importPath))}
	}

	if r.modPath != "" {
		if rel, ok := strings.CutPrefix(importPath, r.modPath); ok && (rel == "" || rel[0] == '/') {
			return []string{filepath.Join(r.modRoot, filepath.FromSlash(strings.TrimPrefix(rel, "/")))}
		}
	}

	if r.modCache == "" {
		return nil
	}
	// 模块路径未知，从最长前缀开始尝试
	var dirs []string
	parts := strings.Split(importPath, "/")
	for i := len(parts); i >= 1; i-- {
		modPath := strings.Join(parts[:i], "/")
		escaped, err := module.EscapePath(modPath)
		if err != nil {
			continue
		}
		matches, _ := filepath.Glob(filepath.Join(r.modCache, filepath.FromSlash(escaped)) + "@*")
		if len(matches) == 0 {
			continue
		}
		latest := slices.MaxFunc(matches, func(a, b string) int {
			return semver.Compare(versionOf(a), versionOf(b))
		})
		dirs = append(dirs, filepath.Join(latest, filepath.FromSlash(strings.Join(parts[i:], "/"))))
	}
	return dirs
}

// isStdLib 标准库路径的第一段不含点
func isStdLib(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}

func versionOf(dir string) string {
	_, v, _ := strings.Cut(filepath.Base(dir), "@")
	return v
}

func modCacheDir() string {
	if dir := os.Getenv("GOMODCACHE"); dir != "" {
		return dir
	}
	gopath := os.Getenv("GOPATH")
	if gopath == "" {
		gopath = build.Default.GOPATH
	}
	if list := filepath.SplitList(gopath); len(list) > 0 && list[0] != "" {
		return filepath.Join(list[0], "pkg", "mod")
	}
	return ""
}

// findModule 从 dir 向上查找 go.mod
func findModule(dir string) (root, modPath string, err error) {
	dir, err = filepath.Abs(dir)
	if err != nil {
		return "", "", err
	}
	for {
		content, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err == nil {
			modPath = modfile.ModulePath(content)
			if modPath == "" {
				return "", "", fmt.Errorf("%s/go.mod 中没有 module 声明", dir)
			}
			return dir, modPath, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", fmt.Errorf("未找到 go.mod")
		}
		dir = parent
	}
}

// readPackageName 读取目录中第一个非测试文件的 package 声明
func readPackageName(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	fset := token.NewFileSet()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".go" || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.PackageClauseOnly)
		if err != nil {
			continue
		}
		return f.Name.Name, nil
	}
	return "", fmt.Errorf("目录 %s 中没有 Go 源文件", dir)
}
