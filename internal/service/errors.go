package service

import (
	"errors"
	"fmt"
)

// 哨兵错误：对外统一语义，隐藏底层实现细节
var (
	// ErrInvalidInput 请求参数缺失或非法（ValidationError），不会产生任何写入
	ErrInvalidInput = errors.New("invalid input")
	// ErrDirectoryCycle 沿父链遍历时发现环（StructuralIntegrityError）
	ErrDirectoryCycle = errors.New("directory hierarchy contains a cycle")
	// ErrProfileNotFound 人员档案不存在，读接口会把它转换成空结果
	ErrProfileNotFound = errors.New("profile not found")
	// ErrTermNotFound 分类词条不存在
	ErrTermNotFound = errors.New("term not found")
	// ErrTermAlreadyExists 同一分类法下 slug 已存在
	ErrTermAlreadyExists = errors.New("term already exists")
	// ErrInternal 内部错误（对外不暴露细节）
	ErrInternal = errors.New("internal server error")
)

// invalidInput 包装 ErrInvalidInput 并附带可以直接返回给调用方的说明。
func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
