package structparse

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sync"
)

// ParseContext 解析上下文
// 同一文件只解析一次，多个生成器并发调用时共享结果
type ParseContext struct {
	mu    sync.Mutex
	fset  *token.FileSet
	files map[string]*ast.File
	namer PackageNamer
}

// PackageNamer 把导入路径解析为包声明中的真实包名
type PackageNamer interface {
	PackageName(importPath string) (string, bool)
}

// Option 解析上下文选项
type Option func(*ParseContext)

// WithPackageNamer 未带别名的导入按真实包名登记；未设置时按导入路径推断
func WithPackageNamer(namer PackageNamer) Option {
	return func(c *ParseContext) {
		c.namer = namer
	}
}

// NewParseContext 创建解析上下文
func NewParseContext(opts ...Option) *ParseContext {
	c := &ParseContext{
		fset:  token.NewFileSet(),
		files: make(map[string]*ast.File),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ParseContext) packageName(importPath string) string {
	if c.namer != nil {
		if name, ok := c.namer.PackageName(importPath); ok {
			return name
		}
	}
	return GuessPackageName(importPath)
}

// parseFile 解析文件并缓存，src 为 nil 时从磁盘读取
func (c *ParseContext) parseFile(filename string, src any) (*ast.File, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.files[filename]; ok && src == nil {
		return f, nil
	}
	f, err := parser.ParseFile(c.fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("解析文件失败: %w", err)
	}
	c.files[filename] = f
	return f, nil
}
