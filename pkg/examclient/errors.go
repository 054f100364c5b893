package examclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNetwork       Kind = "network"
	KindValidation    Kind = "validation"
	KindAuth          Kind = "auth"
	KindForbidden     Kind = "forbidden"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindUnprocessable Kind = "unprocessable"
	KindServer        Kind = "server"
)

// Error 服务端错误在传输层解码一次，调用方按 Kind/Reason 分支
type Error struct {
	Kind    Kind
	Status  int
	Reason  string
	Message string
	Fields  map[string]string
	// Data 错误附带的数据，例如超时交卷的 resultId
	Data json.RawMessage
	Err  error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// DecodeData 把错误附带的数据解到 v，没有数据时返回 false
func (e *Error) DecodeData(v any) (bool, error) {
	if len(e.Data) == 0 {
		return false, nil
	}
	return true, json.Unmarshal(e.Data, v)
}

// KindOf 非 *Error 视为网络错误
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNetwork
}

// ReasonOf 返回服务端给出的机器可读原因
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest:
		return KindValidation
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusUnprocessableEntity:
		return KindUnprocessable
	default:
		return KindServer
	}
}

// envelope 服务端统一响应结构
type envelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Reason  string            `json:"reason"`
	Errors  map[string]string `json:"errors"`
	Data    json.RawMessage   `json:"data"`
}

func decodeError(status int, body []byte) *Error {
	e := &Error{Kind: kindForStatus(status), Status: status}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		e.Message = http.StatusText(status)
		return e
	}
	e.Reason = env.Reason
	e.Message = env.Message
	e.Fields = env.Errors
	if len(env.Data) > 0 && string(env.Data) != "null" {
		e.Data = env.Data
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
