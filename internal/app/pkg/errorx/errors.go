package errorx

import (
	"errors"
	"fmt"
)

// 引擎错误分类：哨兵错误用于 errors.Is 判断，BusinessError 携带重试标记
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrRuleNotFound          = errors.New("rule not found")
	ErrGroupNotFound         = errors.New("card group not found")
	ErrGroupDisabled         = errors.New("card group disabled")
	ErrInsufficientInventory = errors.New("insufficient card inventory")
	ErrExternalCallFailed    = errors.New("external call failed")
	ErrDuplicateOrder        = errors.New("duplicate order")
)

// BusinessError 业务错误结构（包含可重试标记）
type BusinessError struct {
	Code      int
	Message   string
	Retryable bool
	Details   []ErrorDetail
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Path string
	Info string
}

// Error 实现 error 接口
func (e *BusinessError) Error() string {
	return e.Message
}

// NewBusinessError 创建业务错误
func NewBusinessError(code int, message string) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
	}
}

// ValidationError 配置写入时的校验错误（同步拒绝，永不落库）
type ValidationError struct {
	Field  string
	Reason string
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidation 创建校验错误
func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRetryable 判断错误是否进入有界重试
// 外部调用失败和库存不足走编排层的退避重试；停用组和校验错误不自动重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrExternalCallFailed) || errors.Is(err, ErrInsufficientInventory) {
		return true
	}
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Retryable
	}
	return false
}

// Retriable 创建可重试错误（网络抖动、下游临时故障）
func Retriable(message string) *BusinessError {
	return &BusinessError{Code: 500, Message: message, Retryable: true}
}

// NonRetriable 创建不可重试错误（参数错误、业务规则拒绝）
func NonRetriable(message string) *BusinessError {
	return &BusinessError{Code: 400, Message: message, Retryable: false}
}
