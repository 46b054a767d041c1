package console

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

// StatusSelector — выпадающий выбор статуса заказа.
// Хранит только флаг открытия; текущий статус принадлежит контроллеру списка.
type StatusSelector struct {
	mu       sync.Mutex
	value    domain.OrderStatus
	disabled bool
	open     bool
	onChange func(ctx context.Context, status domain.OrderStatus) error
}

// NewStatusSelector создаёт закрытый селектор.
func NewStatusSelector(value domain.OrderStatus, disabled bool, onChange func(context.Context, domain.OrderStatus) error) *StatusSelector {
	return &StatusSelector{value: value, disabled: disabled, onChange: onChange}
}

// Options возвращает фиксированный набор статусов.
func (s *StatusSelector) Options() []domain.OrderStatus {
	return domain.OrderStatuses()
}

// Sync обновляет отображаемое значение после изменения заказа.
func (s *StatusSelector) Sync(value domain.OrderStatus, disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	s.disabled = disabled
	if disabled {
		s.open = false
	}
}

// Toggle открывает или закрывает список; у отключённого селектора ничего не делает.
func (s *StatusSelector) Toggle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		return
	}
	s.open = !s.open
}

// PointerDown закрывает список при взаимодействии вне селектора.
func (s *StatusSelector) PointerDown(inside bool) {
	if inside {
		return
	}
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
}

// Select закрывает список и передаёт выбранный статус родителю.
func (s *StatusSelector) Select(ctx context.Context, status domain.OrderStatus) error {
	s.mu.Lock()
	s.open = false
	disabled, onChange := s.disabled, s.onChange
	s.mu.Unlock()

	if disabled {
		return domain.ErrOrderCompleted
	}
	if onChange == nil {
		return nil
	}
	return onChange(ctx, status)
}

// Value возвращает отображаемый статус.
func (s *StatusSelector) Value() domain.OrderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Disabled сообщает, заблокирован ли селектор.
func (s *StatusSelector) Disabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled
}

// IsOpen сообщает, раскрыт ли список.
func (s *StatusSelector) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}
