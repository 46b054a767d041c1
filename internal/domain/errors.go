package domain

import "errors"

var (
	// ErrValidation — общая категория ошибок клиентской валидации.
	// Такие ошибки блокируют действие до обращения к сети.
	ErrValidation = errors.New("validation failed")
	// ErrRemote — категория сетевых и HTTP-ошибок бэкенда.
	ErrRemote = errors.New("remote call failed")
	// ErrMalformedPayload — данные бэкенда не удалось привести к доменным типам.
	ErrMalformedPayload = errors.New("malformed payload")

	// Ошибка пустого названия товара.
	ErrProductNameRequired = validationError("product name is required")
	// Ошибка неположительной цены товара.
	ErrProductPriceInvalid = validationError("product price must be greater than zero")
	// Ошибка некорректного количества в позиции (<= 0).
	ErrQuantityInvalid = validationError("quantity must be greater than zero")
	// Ошибка выбора товара, которого нет в каталоге.
	ErrProductUnknown = validationError("product is not in the catalog")
	// Ошибка отправки заказа без позиций.
	ErrLineItemsRequired = validationError("order must contain at least one product")
	// Ошибка статуса вне фиксированного набора.
	ErrStatusInvalid = validationError("order status is invalid")

	// ErrOrderCompleted — завершённый заказ нельзя менять через консоль.
	ErrOrderCompleted = errors.New("order is completed")
	// ErrOrderNotFound — заказа нет в локальном состоянии страницы.
	ErrOrderNotFound = errors.New("order not found")
	// ErrLineItemNotFound — позиции с таким ключом нет в черновике.
	ErrLineItemNotFound = errors.New("line item not found")
	// ErrOrderUpdateUnsupported — сохранение правок существующего заказа не реализовано:
	// в REST-контракте нет соответствующего метода.
	ErrOrderUpdateUnsupported = errors.New("updating existing orders is not supported")
	// ErrActivityNotFound — событие журнала активности не найдено.
	ErrActivityNotFound = errors.New("activity event not found")
)

// validationError создаёт ошибку валидации, совместимую с errors.Is(err, ErrValidation).
func validationError(msg string) error {
	return &categorizedError{msg: msg, category: ErrValidation}
}

type categorizedError struct {
	msg      string
	category error
}

func (e *categorizedError) Error() string { return e.msg }

func (e *categorizedError) Unwrap() error { return e.category }

// IsValidation проверяет, является ли ошибка ошибкой клиентской валидации.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
