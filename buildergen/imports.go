package buildergen

import (
	"fmt"

	"github.com/donutnomad/gg"

	"github.com/donutnomad/derivegen/internal/structparse"
)

// importSet 按路径去重登记生成代码需要的导入，沿用源文件中的别名
type importSet struct {
	gen  *gg.Generator
	decl *structparse.Declaration
	refs map[string]*gg.PackageRef // path -> ref
}

func newImportSet(gen *gg.Generator, decl *structparse.Declaration) *importSet {
	return &importSet{gen: gen, decl: decl, refs: make(map[string]*gg.PackageRef)}
}

// byPath 登记路径，alias 为空时按包名导入
func (s *importSet) byPath(path, alias string) *gg.PackageRef {
	if ref, ok := s.refs[path]; ok {
		return ref
	}
	name := structparse.GuessPackageName(path)
	if info, ok := s.decl.ImportByPath(path); ok {
		name = info.PackageName
	}
	var ref *gg.PackageRef
	if alias != "" && alias != name {
		ref = s.gen.PAlias(path, alias)
	} else {
		ref = s.gen.P(path)
	}
	s.refs[path] = ref
	return ref
}

// mo 返回 samber/mo 的引用，源文件已导入时复用其别名
func (s *importSet) mo() *gg.PackageRef {
	if info, ok := s.decl.ImportByPath(moPkgPath); ok {
		return s.byPath(moPkgPath, info.Qualifier())
	}
	return s.byPath(moPkgPath, "")
}

func (s *importSet) derive() *gg.PackageRef {
	return s.byPath(derivePkgPath, "")
}

// requireAll 登记字段类型中出现的包限定符
func (s *importSet) requireAll(qualifiers []string) {
	for _, q := range qualifiers {
		if info, ok := s.decl.Import(q); ok {
			s.byPath(info.ImportPath, q)
		}
	}
}

// some 返回 Some(v) 表达式：限定符为空时调用同包的 Some
func (s *importSet) some(qualifier, param string) string {
	if qualifier == "" {
		return fmt.Sprintf("Some(%s)", param)
	}
	if info, ok := s.decl.Import(qualifier); ok {
		s.byPath(info.ImportPath, qualifier)
	}
	return fmt.Sprintf("%s.Some(%s)", qualifier, param)
}
