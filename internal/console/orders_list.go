package console

import (
	"context"
	"fmt"
	"slices"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
	"github.com/vladislavdragonenkov/order-console/internal/request"
)

// OrderRow — строка таблицы заказов с производными значениями.
type OrderRow struct {
	ID           int64
	OrderNumber  string
	Date         string
	Status       domain.OrderStatus
	StatusLabel  string
	LineCount    int
	FinalPrice   string
	Locked       bool
	SelectorOpen bool
}

// OrdersView — состояние страницы "My Orders".
type OrdersView struct {
	Loading bool
	Error   string
	Empty   bool
	Rows    []OrderRow
}

// OrdersList — контроллер списка заказов.
// После мутации меняет только затронутый заказ, без повторной загрузки списка.
type OrdersList struct {
	deps Deps
	req  *request.Request[[]domain.Order]

	mu        sync.Mutex
	selectors map[int64]*StatusSelector
}

// NewOrdersList создаёт контроллер в состоянии загрузки.
func NewOrdersList(deps Deps) *OrdersList {
	deps = deps.withDefaults()
	deps.Logger = deps.Logger.WithField("page", "orders")
	return &OrdersList{
		deps:      deps,
		req:       request.New(deps.Orders.ListOrders, deps.Logger),
		selectors: make(map[int64]*StatusSelector),
	}
}

// Load загружает все заказы.
func (l *OrdersList) Load(ctx context.Context) request.State[[]domain.Order] {
	return l.req.Load(ctx)
}

// Retry повторяет загрузку после ошибки.
func (l *OrdersList) Retry(ctx context.Context) request.State[[]domain.Order] {
	return l.req.Refetch(ctx)
}

// Orders возвращает копию текущей коллекции.
func (l *OrdersList) Orders() []domain.Order {
	return slices.Clone(l.req.Snapshot().Data)
}

func (l *OrdersList) find(id int64) (domain.Order, bool) {
	for _, order := range l.req.Snapshot().Data {
		if order.ID == id {
			return order, true
		}
	}
	return domain.Order{}, false
}

// ChangeStatus меняет статус заказа и подменяет в коллекции ровно этот заказ.
func (l *OrdersList) ChangeStatus(ctx context.Context, id int64, status domain.OrderStatus) (err error) {
	defer func() { l.deps.outcome("order_status_change", err) }()

	if !status.Valid() {
		return domain.ErrStatusInvalid
	}
	current, ok := l.find(id)
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Locked() {
		return domain.ErrOrderCompleted
	}

	updated, err := l.deps.Orders.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		l.deps.Logger.WithError(err).WithField("order_id", id).Error("failed to update status")
		l.deps.Notifier.Alert(MsgStatusUpdateFailed)
		return fmt.Errorf("update order %d status: %w", id, err)
	}

	l.req.SetData(func(orders []domain.Order) []domain.Order {
		next := slices.Clone(orders)
		if i := slices.IndexFunc(next, func(o domain.Order) bool { return o.ID == id }); i >= 0 {
			next[i] = updated
		}
		return next
	})

	l.deps.Logger.WithFields(log.Fields{
		"order_id": id,
		"from":     current.Status,
		"to":       updated.Status,
	}).Info("order status changed")
	l.deps.record(ctx, domain.ActivityOrderStatusChanged, "order", id, map[string]any{
		"orderNumber": current.OrderNumber,
		"from":        current.Status,
		"to":          updated.Status,
	})
	return nil
}

// Delete удаляет заказ после подтверждения и убирает его из коллекции.
func (l *OrdersList) Delete(ctx context.Context, id int64) (err error) {
	defer func() { l.deps.outcome("order_delete", err) }()

	current, ok := l.find(id)
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Locked() {
		return domain.ErrOrderCompleted
	}
	if !l.deps.Confirmer.Confirm(MsgConfirmOrderDelete) {
		return ErrNotConfirmed
	}

	if err := l.deps.Orders.DeleteOrder(ctx, id); err != nil {
		l.deps.Logger.WithError(err).WithField("order_id", id).Error("failed to delete order")
		l.deps.Notifier.Alert(MsgOrderDeleteFailed)
		return fmt.Errorf("delete order %d: %w", id, err)
	}

	l.req.SetData(func(orders []domain.Order) []domain.Order {
		return slices.DeleteFunc(slices.Clone(orders), func(o domain.Order) bool { return o.ID == id })
	})

	l.mu.Lock()
	delete(l.selectors, id)
	l.mu.Unlock()

	l.deps.Logger.WithField("order_id", id).Info("order deleted")
	l.deps.record(ctx, domain.ActivityOrderDeleted, "order", id, map[string]any{
		"orderNumber": current.OrderNumber,
	})
	return nil
}

// Selector возвращает селектор статуса заказа, синхронизированный с коллекцией.
func (l *OrdersList) Selector(id int64) (*StatusSelector, bool) {
	order, ok := l.find(id)
	if !ok {
		return nil, false
	}
	return l.selectorFor(order), true
}

func (l *OrdersList) selectorFor(order domain.Order) *StatusSelector {
	l.mu.Lock()
	defer l.mu.Unlock()

	sel, ok := l.selectors[order.ID]
	if !ok {
		id := order.ID
		sel = NewStatusSelector(order.Status, order.Locked(), func(ctx context.Context, status domain.OrderStatus) error {
			return l.ChangeStatus(ctx, id, status)
		})
		l.selectors[order.ID] = sel
		return sel
	}
	sel.Sync(order.Status, order.Locked())
	return sel
}

// ToggleSelector раскрывает селектор заказа id и закрывает остальные.
func (l *OrdersList) ToggleSelector(id int64) {
	l.PointerDown(id)
	if sel, ok := l.Selector(id); ok {
		sel.Toggle()
	}
}

// PointerDown сообщает всем селекторам о взаимодействии; inside — заказ, по которому кликнули (0 — вне всех).
func (l *OrdersList) PointerDown(inside int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, sel := range l.selectors {
		sel.PointerDown(id == inside)
	}
}

// SelectStatus передаёт выбор через селектор заказа.
func (l *OrdersList) SelectStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	sel, ok := l.Selector(id)
	if !ok {
		return domain.ErrOrderNotFound
	}
	return sel.Select(ctx, status)
}

// View собирает состояние страницы.
func (l *OrdersList) View() OrdersView {
	state := l.req.Snapshot()
	view := OrdersView{
		Loading: state.Loading,
		Error:   state.Error,
		Empty:   state.HasData && len(state.Data) == 0,
	}
	for _, order := range state.Data {
		sel := l.selectorFor(order)
		view.Rows = append(view.Rows, OrderRow{
			ID:           order.ID,
			OrderNumber:  order.OrderNumber,
			Date:         domain.FormatDate(order.Date),
			Status:       order.Status,
			StatusLabel:  order.Status.Label(),
			LineCount:    len(order.Products),
			FinalPrice:   domain.FormatFinalPrice(order.Products),
			Locked:       order.Locked(),
			SelectorOpen: sel.IsOpen(),
		})
	}
	return view
}
