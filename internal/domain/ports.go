package domain

import (
	"context"
	"time"
)

// OrderGateway описывает удалённый доступ к заказам.
type OrderGateway interface {
	ListOrders(ctx context.Context) ([]Order, error)
	GetOrder(ctx context.Context, id int64) (Order, error)
	CreateOrder(ctx context.Context, payload CreateOrderPayload) (Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) (Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// ProductGateway описывает удалённый доступ к каталогу.
type ProductGateway interface {
	ListProducts(ctx context.Context) ([]Product, error)
	CreateProduct(ctx context.Context, payload ProductPayload) (Product, error)
	UpdateProduct(ctx context.Context, id int64, payload ProductPayload) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// ActivityRecorder фиксирует подтверждённые действия оператора.
type ActivityRecorder interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivityPublisher передаёт событие во внешний брокер; должен быть идемпотентным.
type ActivityPublisher interface {
	Publish(event ActivityEvent) error
}

// ActivityRepository хранит события активности до их публикации (transactional outbox).
type ActivityRepository interface {
	Enqueue(event ActivityEvent) (ActivityEvent, error)
	PullPending(limit int) ([]ActivityEvent, error)
	Stats() (ActivityStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
	// ListRecent возвращает последние события, новые первыми.
	ListRecent(limit int) ([]ActivityEvent, error)
	// DeleteRelayedBefore удаляет отправленные и проваленные события старше before.
	DeleteRelayedBefore(before time.Time, limit int) (int, error)
	// DeletePendingBefore удаляет неотправленные события старше before.
	// Используется, только когда публикация в брокер выключена.
	DeletePendingBefore(before time.Time, limit int) (int, error)
}
