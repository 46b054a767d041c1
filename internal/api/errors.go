package api

import (
	"fmt"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

// Error описывает неуспешный ответ бэкенда или сбой транспорта.
type Error struct {
	// Op — имя операции клиента, например "list_orders".
	Op string
	// StatusCode — HTTP статус; 0, если ответ не получен.
	StatusCode int
	// Message — текст для пользователя.
	Message string
	// Err — исходная ошибка транспорта, если была.
	Err error
	// FromBackend — Message взят из поля "message" тела ответа.
	FromBackend bool
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// BackendMessage возвращает сообщение бэкенда или пустую строку.
func (e *Error) BackendMessage() string {
	if e.FromBackend {
		return e.Message
	}
	return ""
}

// Unwrap позволяет проверять категорию через errors.Is(err, domain.ErrRemote),
// а исходную ошибку транспорта — через errors.Is/As по цепочке.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{domain.ErrRemote, e.Err}
	}
	return []error{domain.ErrRemote}
}

// CoercionError — поле ответа не удалось привести к нужному типу.
type CoercionError struct {
	Field string
	Value any
	Want  string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("field %q: cannot coerce %v (%T) to %s", e.Field, e.Value, e.Value, e.Want)
}

func (e *CoercionError) Unwrap() error {
	return domain.ErrMalformedPayload
}
