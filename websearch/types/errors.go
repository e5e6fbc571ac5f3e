package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnavailable провайдер заблокирован на уровне платформы (отключен, открыт предохранитель,
// отказ в доступе по политике безопасности) или исчерпал локальный лимит запросов
var ErrUnavailable = errors.New("provider unavailable")

// HTTPStatusError удаленная сторона ответила ошибочным HTTP статусом
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ParseError ответ получен, но не может быть разобран
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError оборачивает ошибку разбора
func NewParseError(err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Err: err}
}
