package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo_builder.go")
	src := "package demo\nimport (\n\"fmt\"\n\"strings\"\n)\nfunc   Hello( ) string {return fmt.Sprint(\"hi\")}\n"

	require.NoError(t, WriteFormat(path, []byte(src)))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(got), "func Hello() string { return fmt.Sprint(\"hi\") }")
	assert.Contains(t, string(got), "\"fmt\"")
	assert.NotContains(t, string(got), "strings")
}

func TestWriteFormat_SyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.go")
	src := "package demo\nfunc {\n"

	err := WriteFormat(path, []byte(src))
	require.Error(t, err)

	got, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, src, string(got))
}
