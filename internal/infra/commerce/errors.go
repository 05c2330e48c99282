package commerce

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotConfigured   = errors.New("commerce: client not configured")
	ErrProductNotFound = errors.New("commerce: product not found")
	ErrEmptyLines      = errors.New("commerce: no lines to submit")
)

// FieldError はミューテーションの errors{field,message} 1件。
// field が無い場合は全体エラー。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors はAPIが返したエラー一覧。
type FieldErrors struct {
	Op     string
	Errors []FieldError
}

func (e *FieldErrors) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		if fe.Field != "" {
			msgs = append(msgs, fe.Field+": "+fe.Message)
			continue
		}
		msgs = append(msgs, fe.Message)
	}
	return fmt.Sprintf("commerce: %s: %s", e.Op, strings.Join(msgs, "; "))
}

// First は最初のメッセージ（画面表示用）。
func (e *FieldErrors) First() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Message
}

func fieldErrors(op string, errs []FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	return &FieldErrors{Op: op, Errors: errs}
}

// StatusError はHTTPステータスが2xx以外。
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("commerce: http status=%d", e.Status)
}
