package console

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

// LineView — позиция черновика для отображения.
type LineView struct {
	Key         string
	ProductName string
	UnitPrice   string
	Quantity    int
	TotalPrice  string
}

// EditorView — состояние страницы добавления/редактирования заказа.
type EditorView struct {
	EditMode    bool
	ID          int64
	Title       string
	Loading     bool
	OrderNumber string
	Date        string
	Status      domain.OrderStatus
	LineCount   int
	QuantitySum int
	FinalPrice  string
	Lines       []LineView
	Catalog     []domain.Product
	ModalOpen   bool
	Locked      bool
	Submitting  bool
	SubmitLabel string
	Created     bool
}

// OrderEditor — контроллер черновика заказа.
// Режим add (id == 0) собирает заказ в памяти и создаёт его одним вызовом;
// режим edit показывает существующий заказ.
type OrderEditor struct {
	deps Deps
	id   int64

	mu         sync.Mutex
	loading    bool
	catalog    []domain.Product
	draft      domain.Order
	modal      Modal
	submitting bool
	created    bool
}

// NewOrderEditor создаёт редактор; id == 0 — новый заказ.
func NewOrderEditor(deps Deps, id int64) *OrderEditor {
	deps = deps.withDefaults()
	deps.Logger = deps.Logger.WithFields(log.Fields{"page": "order-editor", "order_id": id})
	return &OrderEditor{
		deps:    deps,
		id:      id,
		loading: true,
	}
}

// EditMode сообщает, редактируется ли существующий заказ.
func (e *OrderEditor) EditMode() bool {
	return e.id != 0
}

// ID возвращает идентификатор редактируемого заказа (0 в режиме add).
func (e *OrderEditor) ID() int64 {
	return e.id
}

// Load загружает каталог и, в режиме edit, сам заказ.
func (e *OrderEditor) Load(ctx context.Context) error {
	e.mu.Lock()
	e.loading = true
	e.mu.Unlock()

	catalog, order, err := e.fetch(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false
	if err != nil {
		e.deps.Logger.WithError(err).Error("failed to load editor data")
		e.deps.Notifier.Alert(MsgPageLoadFailed)
		return err
	}
	e.catalog = catalog
	if e.EditMode() {
		order.Products = e.keyLines(order.Products)
		e.draft = order
	}
	return nil
}

// keyLines выдаёт новые ключи позициям без ключа и дублям, чтобы удаление по ключу
// затрагивало ровно одну позицию.
func (e *OrderEditor) keyLines(items []domain.OrderLineItem) []domain.OrderLineItem {
	keyed := slices.Clone(items)
	seen := make(map[string]struct{}, len(keyed))
	for i := range keyed {
		if _, dup := seen[keyed[i].Key]; keyed[i].Key == "" || dup {
			keyed[i].Key = e.deps.NewKey()
		}
		seen[keyed[i].Key] = struct{}{}
	}
	return keyed
}

func (e *OrderEditor) fetch(ctx context.Context) ([]domain.Product, domain.Order, error) {
	catalog, err := e.deps.Products.ListProducts(ctx)
	if err != nil {
		return nil, domain.Order{}, fmt.Errorf("load catalog: %w", err)
	}
	if !e.EditMode() {
		return catalog, domain.Order{}, nil
	}
	order, err := e.deps.Orders.GetOrder(ctx, e.id)
	if err != nil {
		return nil, domain.Order{}, fmt.Errorf("load order %d: %w", e.id, err)
	}
	return catalog, order, nil
}

// OpenAddModal открывает окно выбора товара.
func (e *OrderEditor) OpenAddModal() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft.Locked() {
		return domain.ErrOrderCompleted
	}
	e.modal.Show("Add Product to Order")
	return nil
}

// CloseAddModal закрывает окно выбора товара.
func (e *OrderEditor) CloseAddModal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modal.Close()
}

// AddLineItem добавляет позицию со снимком названия и цены товара из каталога.
func (e *OrderEditor) AddLineItem(productID int64, quantity int) (domain.OrderLineItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.draft.Locked() {
		return domain.OrderLineItem{}, domain.ErrOrderCompleted
	}

	product, ok := domain.FindProduct(e.catalog, productID)
	if !ok {
		e.deps.Notifier.Alert(MsgInvalidLineItem)
		return domain.OrderLineItem{}, domain.ErrProductUnknown
	}
	item, err := domain.NewLineItem(e.deps.NewKey(), product, quantity)
	if err != nil {
		e.deps.Notifier.Alert(MsgInvalidLineItem)
		return domain.OrderLineItem{}, err
	}

	e.draft.Products = append(slices.Clone(e.draft.Products), item)
	e.modal.Close()
	return item, nil
}

// RemoveLineItem удаляет позицию по ключу после подтверждения; порядок остальных сохраняется.
func (e *OrderEditor) RemoveLineItem(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.draft.Locked() {
		return domain.ErrOrderCompleted
	}
	if !slices.ContainsFunc(e.draft.Products, func(item domain.OrderLineItem) bool { return item.Key == key }) {
		return domain.ErrLineItemNotFound
	}
	if !e.deps.Confirmer.Confirm(MsgConfirmLineRemove) {
		return ErrNotConfirmed
	}

	e.draft.Products = slices.DeleteFunc(slices.Clone(e.draft.Products), func(item domain.OrderLineItem) bool {
		return item.Key == key
	})
	return nil
}

// LineItems возвращает копию позиций черновика.
func (e *OrderEditor) LineItems() []domain.OrderLineItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.draft.Products)
}

// LineCount — число позиций.
func (e *OrderEditor) LineCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.draft.Products)
}

// QuantitySum — суммарное количество единиц.
func (e *OrderEditor) QuantitySum() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.QuantitySum()
}

// FinalPrice пересчитывает итог по позициям.
func (e *OrderEditor) FinalPrice() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Total()
}

// FormattedFinalPrice — итог с двумя знаками после запятой.
func (e *OrderEditor) FormattedFinalPrice() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.FormatFinalPrice(e.draft.Products)
}

// Locked сообщает, что заказ завершён и все изменяющие действия отключены.
func (e *OrderEditor) Locked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Locked()
}

// Submit создаёт заказ из черновика.
// В payload уходят только товар и количество, снимки цены и названия отбрасываются.
func (e *OrderEditor) Submit(ctx context.Context) (created domain.Order, err error) {
	defer func() { e.deps.outcome("order_submit", err) }()

	e.mu.Lock()
	switch {
	case e.draft.Locked():
		e.mu.Unlock()
		return domain.Order{}, domain.ErrOrderCompleted
	case e.submitting:
		e.mu.Unlock()
		return domain.Order{}, ErrSubmitInProgress
	case len(e.draft.Products) == 0:
		e.mu.Unlock()
		e.deps.Notifier.Alert(MsgOrderEmpty)
		return domain.Order{}, domain.ErrLineItemsRequired
	case e.EditMode():
		e.mu.Unlock()
		e.deps.Notifier.Toast(ToastError, MsgOrderUpdateMissing)
		return domain.Order{}, domain.ErrOrderUpdateUnsupported
	}
	payload := domain.NewCreateOrderPayload(e.draft.Products)
	e.submitting = true
	e.mu.Unlock()

	order, err := e.deps.Orders.CreateOrder(ctx, payload)
	if err != nil {
		e.mu.Lock()
		e.submitting = false
		e.mu.Unlock()

		e.deps.Logger.WithError(err).Error("failed to create order")
		e.deps.Notifier.Toast(ToastError, saveFailureMessage(err))
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	e.mu.Lock()
	e.created = true
	e.mu.Unlock()

	e.deps.Logger.WithFields(log.Fields{
		"created_id":   order.ID,
		"order_number": order.OrderNumber,
		"lines":        len(payload.Products),
	}).Info("order created")
	e.deps.record(ctx, domain.ActivityOrderCreated, "order", order.ID, map[string]any{
		"orderNumber": order.OrderNumber,
		"products":    payload.Products,
	})
	e.deps.Notifier.Toast(ToastSuccess, MsgOrderCreated)
	e.deps.Navigator.Navigate(OrdersPath, e.deps.RedirectDelay)
	return order, nil
}

// saveFailureMessage предпочитает сообщение бэкенда, если оно пришло в теле ответа.
func saveFailureMessage(err error) string {
	var remote interface{ BackendMessage() string }
	if errors.As(err, &remote) {
		if msg := remote.BackendMessage(); msg != "" {
			return msg
		}
	}
	return MsgOrderSaveFailed
}

// View собирает состояние страницы.
func (e *OrderEditor) View() EditorView {
	e.mu.Lock()
	defer e.mu.Unlock()

	view := EditorView{
		EditMode:    e.EditMode(),
		ID:          e.id,
		Title:       "Add New Order",
		Loading:     e.loading,
		OrderNumber: e.draft.OrderNumber,
		Date:        domain.FormatDate(e.draft.Date),
		Status:      e.draft.Status,
		LineCount:   len(e.draft.Products),
		QuantitySum: e.draft.QuantitySum(),
		FinalPrice:  domain.FormatFinalPrice(e.draft.Products),
		Catalog:     slices.Clone(e.catalog),
		ModalOpen:   e.modal.Open,
		Locked:      e.draft.Locked(),
		Submitting:  e.submitting,
		SubmitLabel: "Create Order",
		Created:     e.created,
	}
	if e.EditMode() {
		view.Title = fmt.Sprintf("Edit Order #%d", e.id)
		view.SubmitLabel = "Save Changes"
	}
	if view.OrderNumber == "" {
		view.OrderNumber = "Will be generated"
	}
	if view.Date == "" {
		view.Date = domain.FormatDate(e.deps.Now())
	}
	for _, item := range e.draft.Products {
		view.Lines = append(view.Lines, LineView{
			Key:         item.Key,
			ProductName: item.ProductName,
			UnitPrice:   domain.FormatMoney(item.ProductPrice),
			Quantity:    item.Quantity,
			TotalPrice:  domain.FormatMoney(item.TotalPrice),
		})
	}
	return view
}
