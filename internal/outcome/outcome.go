// Package outcome определяет стабильную таксономию результатов ядра бронирования
// и перевод низкоуровневых ошибок хранилища в неё.
package outcome

import "fmt"

// Машиночитаемый код отказа.
type Code string

const (
	CodeNotFound       Code = "not_found"
	CodeInvalidRequest Code = "invalid_request"
	CodeForbidden      Code = "forbidden"
	CodeConflict       Code = "conflict"
	CodeRateLimited    Code = "rate_limited"
	CodeInternal       Code = "internal"
)

// Rejection — типизированный отказ, возвращаемый вызывающей стороне.
// Наружу уходят только код и сообщение, без внутренних идентификаторов.
type Rejection struct {
	Code    Code
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

func New(code Code, message string) *Rejection {
	return &Rejection{Code: code, Message: message}
}

func NotFound(message string) *Rejection       { return New(CodeNotFound, message) }
func InvalidRequest(message string) *Rejection { return New(CodeInvalidRequest, message) }
func Forbidden(message string) *Rejection      { return New(CodeForbidden, message) }
func Conflict(message string) *Rejection       { return New(CodeConflict, message) }
func RateLimited(message string) *Rejection    { return New(CodeRateLimited, message) }
func Internal(message string) *Rejection       { return New(CodeInternal, message) }

// CodeOf возвращает код отказа для произвольной ошибки.
// Всё, что не является *Rejection, считается внутренней ошибкой.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if r, ok := AsRejection(err); ok {
		return r.Code
	}
	return CodeInternal
}
