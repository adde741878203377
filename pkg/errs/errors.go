package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// 错误分类（核心五类 + 内部错误）
// Handler 层通过 GetErrorStatusCode 统一映射到 HTTP 状态码
var (
	ErrInternalServer   = errors.New("internal server error")
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrResidentExists   = errors.New("resident profile already exists for this user")
)

var errorMap = map[error]int{
	ErrInternalServer:   http.StatusInternalServerError,
	ErrNotFound:         http.StatusNotFound,
	ErrForbidden:        http.StatusForbidden,
	ErrUnauthenticated:  http.StatusUnauthorized,
	ErrInvalidOperation: http.StatusBadRequest,
	ErrResidentExists:   http.StatusConflict,
}

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 入参校验错误（携带字段级明细）
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation error"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// Add 追加一个字段错误
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors 是否存在字段错误
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// NewValidation 构造单字段校验错误
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// AsValidation 提取 ValidationError（不存在时返回 nil）
func AsValidation(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// GetErrorStatusCode 错误到HTTP状态码的映射
func GetErrorStatusCode(err error) int {
	if AsValidation(err) != nil {
		return http.StatusBadRequest
	}
	for sentinel, code := range errorMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return http.StatusInternalServerError
}
