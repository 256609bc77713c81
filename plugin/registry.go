package plugin

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Registry 生成器注册表，保证每个注解最多绑定一个生成器
type Registry struct {
	mu           sync.RWMutex
	byName       map[string]Generator
	byAnnotation map[string]Generator
}

func NewRegistry() *Registry {
	return &Registry{
		byName:       make(map[string]Generator),
		byAnnotation: make(map[string]Generator),
	}
}

// Register 注册生成器；名称重复或注解已被其他生成器绑定时整体失败，不做部分注册
func (r *Registry) Register(gen Generator) error {
	name := gen.Name()
	if name == "" {
		return errors.New("生成器名称不能为空")
	}
	if len(gen.Annotations()) == 0 {
		return fmt.Errorf("生成器 %q 没有绑定任何注解", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("生成器 %q 已注册", name)
	}
	for _, ann := range gen.Annotations() {
		if owner, taken := r.byAnnotation[ann]; taken {
			return fmt.Errorf("注解 @%s 已被生成器 %q 绑定，无法被 %q 再次绑定", ann, owner.Name(), name)
		}
	}

	r.byName[name] = gen
	for _, ann := range gen.Annotations() {
		r.byAnnotation[ann] = gen
	}
	return nil
}

func (r *Registry) MustRegister(gen Generator) {
	if err := r.Register(gen); err != nil {
		panic(err)
	}
}

func (r *Registry) GetByAnnotation(annotation string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gen, ok := r.byAnnotation[annotation]
	return gen, ok
}

func (r *Registry) GetByName(name string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gen, ok := r.byName[name]
	return gen, ok
}

func (r *Registry) IsRegistered(annotation string) bool {
	_, ok := r.GetByAnnotation(annotation)
	return ok
}

// Generators 按优先级、名称排序
func (r *Registry) Generators() []Generator {
	r.mu.RLock()
	gens := lo.Values(r.byName)
	r.mu.RUnlock()

	slices.SortFunc(gens, comparePriority)
	return gens
}

// Annotations 所有已绑定的注解名（已排序），扫描器据此过滤
func (r *Registry) Annotations() []string {
	r.mu.RLock()
	anns := lo.Keys(r.byAnnotation)
	r.mu.RUnlock()

	slices.Sort(anns)
	return anns
}

// DispatchTargets 按生成器名分组扫描结果
// 同一声明上重复的注解只分发一次；生成器不接受的声明种类直接跳过
func (r *Registry) DispatchTargets(result *ScanResult) map[string][]*AnnotatedTarget {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dispatch := make(map[string][]*AnnotatedTarget)
	for _, target := range result.All() {
		var dispatched []string
		for _, ann := range target.Annotations {
			gen, ok := r.byAnnotation[ann.Name]
			if !ok || lo.Contains(dispatched, gen.Name()) || !lo.Contains(gen.SupportedTargets(), target.Target.Kind) {
				continue
			}
			dispatched = append(dispatched, gen.Name())
			dispatch[gen.Name()] = append(dispatch[gen.Name()], target)
		}
	}
	return dispatch
}

func comparePriority(a, b Generator) int {
	if d := a.Priority() - b.Priority(); d != 0 {
		return d
	}
	return strings.Compare(a.Name(), b.Name())
}

var globalRegistry = NewRegistry()

// Global 命令行使用的注册表，生成器在 init 中注册
func Global() *Registry {
	return globalRegistry
}

func Register(gen Generator) error {
	return globalRegistry.Register(gen)
}

func MustRegister(gen Generator) {
	globalRegistry.MustRegister(gen)
}
