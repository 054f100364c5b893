package util

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindUnauthorized  ErrorKind = "unauthorized"
	KindForbidden     ErrorKind = "forbidden"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
	KindUnprocessable ErrorKind = "unprocessable"
	KindInternal      ErrorKind = "internal"
)

// 机器可读的错误原因，客户端据此展示具体提示
const (
	ReasonValidation       = "VALIDATION_FAILED"
	ReasonInvalidSelection = "INVALID_SELECTION"
	ReasonAlreadyActive    = "ALREADY_ACTIVE"
	ReasonAlreadySubmitted = "ALREADY_SUBMITTED"
	ReasonSessionNotActive = "SESSION_NOT_ACTIVE"
	ReasonSessionExpired   = "SESSION_EXPIRED"
	ReasonExamNotAvailable = "EXAM_NOT_AVAILABLE"
	ReasonResultNotReady   = "RESULT_NOT_READY"
	ReasonNotFound         = "NOT_FOUND"
	ReasonUnauthorized     = "UNAUTHORIZED"
	ReasonForbidden        = "FORBIDDEN"
	ReasonConflict         = "CONFLICT"
	ReasonInternal         = "INTERNAL"
)

// AppError 业务错误
type AppError struct {
	Kind    ErrorKind
	Reason  string
	Message string
	Fields  map[string]string
	// Data 随错误一起返回给客户端的附加信息
	Data interface{}
	Err  error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithData 返回附带 data 的副本，预定义的错误变量本身不被修改
func (e *AppError) WithData(data interface{}) *AppError {
	cp := *e
	cp.Data = data
	return &cp
}

// Is 按 Reason 比较，便于 errors.Is(err, util.ErrAlreadyActive)
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Reason == e.Reason
}

// Status 对应的 HTTP 状态码
func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

var (
	ErrEmailRegistered  = &AppError{Kind: KindConflict, Reason: ReasonConflict, Message: "email already registered"}
	ErrInvalidLogin     = &AppError{Kind: KindUnauthorized, Reason: ReasonUnauthorized, Message: "invalid credentials"}
	ErrPermissionDenied = &AppError{Kind: KindForbidden, Reason: ReasonForbidden, Message: "permission denied"}

	ErrInvalidSelection = &AppError{Kind: KindUnprocessable, Reason: ReasonInvalidSelection, Message: "no questions match the selection"}
	ErrAlreadyActive    = &AppError{Kind: KindConflict, Reason: ReasonAlreadyActive, Message: "student already has an exam in progress"}
	ErrAlreadySubmitted = &AppError{Kind: KindConflict, Reason: ReasonAlreadySubmitted, Message: "exam session already submitted"}
	ErrSessionNotActive = &AppError{Kind: KindConflict, Reason: ReasonSessionNotActive, Message: "exam session is not in progress"}
	ErrSessionExpired   = &AppError{Kind: KindConflict, Reason: ReasonSessionExpired, Message: "exam session time is over"}
	ErrExamNotAvailable = &AppError{Kind: KindConflict, Reason: ReasonExamNotAvailable, Message: "exam is not available"}
	ErrResultNotReady   = &AppError{Kind: KindConflict, Reason: ReasonResultNotReady, Message: "result is not ready yet"}
)

func NewValidationError(message string, fields map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Reason: ReasonValidation, Message: message, Fields: fields}
}

// FieldError 单字段校验错误
func FieldError(field, message string) *AppError {
	return NewValidationError(message, map[string]string{field: message})
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Reason: ReasonNotFound, Message: resource + " not found"}
}

func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Reason: ReasonConflict, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Reason: ReasonForbidden, Message: message}
}

// AsAppError 取出错误链上的 AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
