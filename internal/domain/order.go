package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа в консоли.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, работа по нему ещё не начата.
	OrderStatusPending OrderStatus = "Pending"
	// OrderStatusInProgress — заказ в работе.
	OrderStatusInProgress OrderStatus = "InProgress"
	// OrderStatusCompleted — заказ завершён и больше не меняется через консоль.
	OrderStatusCompleted OrderStatus = "Completed"
)

// OrderStatuses возвращает фиксированный набор статусов в порядке отображения.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted}
}

// Valid сообщает, входит ли статус в фиксированный набор.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted:
		return true
	default:
		return false
	}
}

// Label возвращает подпись статуса для интерфейса.
func (s OrderStatus) Label() string {
	if s == OrderStatusInProgress {
		return "In Progress"
	}
	return string(s)
}

// ParseOrderStatus проверяет значение, пришедшее из формы.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(raw)
	if !status.Valid() {
		return "", ErrStatusInvalid
	}
	return status, nil
}

// OrderLineItem представляет одну позицию заказа.
// Название и цена товара — снимок на момент добавления позиции,
// последующие правки каталога их не меняют.
type OrderLineItem struct {
	// ID назначается бэкендом; у несохранённых позиций черновика он нулевой.
	ID int64
	// Key — клиентская идентичность позиции, на бэкенд не отправляется.
	Key          string
	ProductID    int64
	ProductName  string
	ProductPrice decimal.Decimal
	Quantity     int
	// TotalPrice фиксируется при создании: ProductPrice * Quantity.
	TotalPrice decimal.Decimal
}

// Order агрегирует заказ и его позиции.
type Order struct {
	ID          int64
	OrderNumber string
	Date        time.Time
	Status      OrderStatus
	Products    []OrderLineItem
	// FinalPrice — значение бэкенда, используется только как подсказка.
	// Итог для отображения всегда считается через Total.
	FinalPrice decimal.Decimal
}

// Locked сообщает, что заказ завершён и изменять его нельзя.
func (o Order) Locked() bool {
	return o.Status == OrderStatusCompleted
}

// Total пересчитывает итоговую сумму заказа по позициям.
func (o Order) Total() decimal.Decimal {
	return SumLineItems(o.Products)
}

// QuantitySum возвращает суммарное количество единиц товара в заказе.
func (o Order) QuantitySum() int {
	var sum int
	for _, item := range o.Products {
		sum += item.Quantity
	}
	return sum
}

// NewLineItem создаёт позицию из товара каталога, фиксируя снимок цены и названия.
func NewLineItem(key string, product Product, quantity int) (OrderLineItem, error) {
	if quantity <= 0 {
		return OrderLineItem{}, ErrQuantityInvalid
	}
	return OrderLineItem{
		Key:          key,
		ProductID:    product.ID,
		ProductName:  product.Name,
		ProductPrice: product.Price,
		Quantity:     quantity,
		TotalPrice:   product.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// CreateOrderPayload — минимальный набор данных для создания заказа.
// Цены и названия не передаются: бэкенд берёт их из текущего каталога.
type CreateOrderPayload struct {
	Products []CreateOrderLine `json:"products"`
}

// CreateOrderLine — пара товар/количество в CreateOrderPayload.
type CreateOrderLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// NewCreateOrderPayload собирает payload из позиций черновика, отбрасывая снимки.
func NewCreateOrderPayload(items []OrderLineItem) CreateOrderPayload {
	lines := make([]CreateOrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, CreateOrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return CreateOrderPayload{Products: lines}
}

// UpdateStatusPayload — тело PATCH /orders/{id}/status.
type UpdateStatusPayload struct {
	Status OrderStatus `json:"status"`
}
