package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"
)

var formatOptions = &imports.Options{
	Comments:  true,
	TabIndent: true,
	TabWidth:  8,
}

// Format 格式化生成的源码并整理 imports（移除未使用的导入）
func Format(path string, src []byte) ([]byte, error) {
	out, err := imports.Process(path, src, formatOptions)
	if err != nil {
		return nil, fmt.Errorf("格式化 %s 失败: %w", filepath.Base(path), err)
	}
	return out, nil
}

// WriteFormat 格式化后写入文件
// 格式化失败时仍写入原始内容，方便定位生成代码中的语法错误
func WriteFormat(path string, src []byte) error {
	out, err := Format(path, src)
	if err != nil {
		_ = os.WriteFile(path, src, 0644)
		return err
	}
	return os.WriteFile(path, out, 0644)
}
