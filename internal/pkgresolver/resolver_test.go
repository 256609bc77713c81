package pkgresolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// TestResolver_Module 测试当前模块内的包
// 场景：目录名 gg，package 声明为 g2
func TestResolver_Module(t *testing.T) {
	root := t.TempDir()
	t.Setenv("GOMODCACHE", filepath.Join(root, "modcache"))
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/demo\n\ngo 1.25\n")
	writeFile(t, filepath.Join(root, "internal", "gg", "a_test.go"), "package gg_test\n")
	writeFile(t, filepath.Join(root, "internal", "gg", "b.go"), "package g2\n")
	writeFile(t, filepath.Join(root, "model", "m.go"), "package model\n")

	r := New(filepath.Join(root, "model"))
	assert.Equal(t, "example.com/demo", r.ModulePath())

	name, ok := r.PackageName("example.com/demo/internal/gg")
	assert.True(t, ok)
	assert.Equal(t, "g2", name)

	name, ok = r.PackageName("example.com/demo/model")
	assert.True(t, ok)
	assert.Equal(t, "model", name)

	_, ok = r.PackageName("example.com/demo/missing")
	assert.False(t, ok)
	_, ok = r.PackageName("example.com/demonstration")
	assert.False(t, ok, "只匹配完整的路径段")
}

// TestResolver_ModCache 测试模块缓存查找
// 场景：大写路径转义、子包、多版本取最高版本
func TestResolver_ModCache(t *testing.T) {
	cache := t.TempDir()
	t.Setenv("GOMODCACHE", cache)
	writeFile(t, filepath.Join(cache, "github.com", "!acme", "kit@v1.2.0", "sub", "x.go"), "package old\n")
	writeFile(t, filepath.Join(cache, "github.com", "!acme", "kit@v1.10.0", "sub", "x.go"), "package kitsub\n")
	writeFile(t, filepath.Join(cache, "github.com", "!acme", "kit@v1.10.0", "k.go"), "package kit\n")

	r := New(t.TempDir())
	assert.Empty(t, r.ModulePath())

	name, ok := r.PackageName("github.com/Acme/kit/sub")
	assert.True(t, ok)
	assert.Equal(t, "kitsub", name)

	name, ok = r.PackageName("github.com/Acme/kit")
	assert.True(t, ok)
	assert.Equal(t, "kit", name)

	_, ok = r.PackageName("github.com/Acme/other")
	assert.False(t, ok)
}

func TestResolver_StdLib(t *testing.T) {
	r := New(t.TempDir())
	if _, err := os.Stat(filepath.Join(r.goroot, "src", "net", "http")); err != nil {
		t.Skip("GOROOT 源码不可用")
	}
	name, ok := r.PackageName("net/http")
	assert.True(t, ok)
	assert.Equal(t, "http", name)
}

func TestResolver_Cache(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/demo\n")
	writeFile(t, filepath.Join(root, "p", "p.go"), "package p\n")

	r := New(root)
	name, ok := r.PackageName("example.com/demo/p")
	require.True(t, ok)
	assert.Equal(t, "p", name)

	// 磁盘变化后仍返回缓存结果
	require.NoError(t, os.RemoveAll(filepath.Join(root, "p")))
	name, ok = r.PackageName("example.com/demo/p")
	assert.True(t, ok)
	assert.Equal(t, "p", name)
}

func TestIsStdLib(t *testing.T) {
	assert.True(t, isStdLib("fmt"))
	assert.True(t, isStdLib("net/http"))
	assert.False(t, isStdLib("github.com/samber/mo"))
	assert.False(t, isStdLib("example.com/demo"))
}
