package domain

import "time"

// ActivityKind — тип подтверждённого действия оператора консоли.
type ActivityKind string

const (
	ActivityOrderCreated       ActivityKind = "order.created"
	ActivityOrderStatusChanged ActivityKind = "order.status_changed"
	ActivityOrderDeleted       ActivityKind = "order.deleted"
	ActivityProductCreated     ActivityKind = "product.created"
	ActivityProductUpdated     ActivityKind = "product.updated"
	ActivityProductDeleted     ActivityKind = "product.deleted"
)

// ActivityStatus — состояние доставки события во внешний брокер.
type ActivityStatus string

const (
	ActivityStatusPending ActivityStatus = "pending"
	ActivityStatusSent    ActivityStatus = "sent"
	ActivityStatusFailed  ActivityStatus = "failed"
)

// ActivityEvent описывает действие, успешно подтверждённое бэкендом.
type ActivityEvent struct {
	ID         string
	Kind       ActivityKind
	EntityType string
	EntityID   string
	// Payload — JSON с деталями действия.
	Payload  []byte
	Occurred time.Time
	Status   ActivityStatus
}

// ActivityStats описывает backlog неотправленных событий.
type ActivityStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
