package response

import "errors"

// AppError 携带业务状态码的错误
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误；err 链中已有 AppError 时沿用其状态码与消息
func WrapError(code int, message string, err error) *AppError {
	var existing *AppError
	if errors.As(err, &existing) && existing != nil {
		return existing
	}
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
