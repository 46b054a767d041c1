// Package request хранит состояние загрузки данных страницы:
// последние данные, флаг загрузки и сообщение об ошибке.
package request

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// LoadErrorMessage — сообщение, которое видит пользователь при любой ошибке загрузки.
const LoadErrorMessage = "Could not load data. Please try again."

// FetchFunc загружает данные без аргументов, кроме контекста.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// State — снимок состояния запроса.
type State[T any] struct {
	Data    T
	HasData bool
	Loading bool
	Error   string
}

// Request оборачивает FetchFunc и ведёт состояние загрузки.
// Функция загрузки фиксируется при создании и не меняется.
type Request[T any] struct {
	mu     sync.RWMutex
	fetch  FetchFunc[T]
	state  State[T]
	logger *log.Entry
}

// New создаёт запрос в состоянии "идёт загрузка", как при первом показе страницы.
func New[T any](fetch FetchFunc[T], logger *log.Entry) *Request[T] {
	if logger == nil {
		logger = log.WithField("component", "request")
	}
	return &Request[T]{
		fetch:  fetch,
		state:  State[T]{Loading: true},
		logger: logger,
	}
}

// Load выполняет загрузку и возвращает итоговое состояние.
// При ошибке предыдущие данные сохраняются.
func (r *Request[T]) Load(ctx context.Context) State[T] {
	r.mu.Lock()
	r.state.Loading = true
	r.state.Error = ""
	r.mu.Unlock()

	result, err := r.fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.logger.WithError(err).Warn("request failed")
		r.state.Error = LoadErrorMessage
	} else {
		r.state.Data = result
		r.state.HasData = true
	}
	r.state.Loading = false
	return r.state
}

// Refetch повторяет загрузку той же функцией.
func (r *Request[T]) Refetch(ctx context.Context) State[T] {
	return r.Load(ctx)
}

// SetData локально меняет данные без обращения к сети.
// update получает текущие данные; для ещё не загруженных — нулевое значение T.
func (r *Request[T]) SetData(update func(current T) T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Data = update(r.state.Data)
	r.state.HasData = true
}

// Snapshot возвращает текущее состояние.
func (r *Request[T]) Snapshot() State[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}
