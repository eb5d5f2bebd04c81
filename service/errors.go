package service

import (
	"errors"
	"fmt"
)

// ErrForbidden 非管理员的写操作
var ErrForbidden = errors.New("forbidden: admin role required")

// ValidationError 输入校验失败，Message 直接展示给用户
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
