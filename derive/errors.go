// Package derive 是生成代码在运行时依赖的支持包。
package derive

import (
	"errors"
	"fmt"
)

// ErrMissingField 可与 errors.Is 配合判断缺失字段错误
var ErrMissingField = errors.New("missing field")

// MissingFieldError 由生成的 Build 方法返回，表示必填字段未设置
type MissingFieldError struct {
	Type  string // 目标结构体名称
	Field string // 第一个未设置的字段
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s is not set", e.Type, e.Field)
}

// Is 使 errors.Is(err, ErrMissingField) 成立
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// MissingField 创建缺失字段错误
func MissingField(typ, field string) error {
	return &MissingFieldError{Type: typ, Field: field}
}
