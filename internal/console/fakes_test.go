package console

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

type fakeOrders struct {
	mu sync.Mutex

	orders    []domain.Order
	listErr   error
	getErr    error
	createErr error
	updateErr error
	deleteErr error

	// createStarted и createRelease задерживают CreateOrder до сигнала теста.
	createStarted chan struct{}
	createRelease chan struct{}

	createCalls []domain.CreateOrderPayload
	updateCalls []int64
	deleteCalls []int64
}

func (f *fakeOrders) ListOrders(context.Context) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Order(nil), f.orders...), nil
}

func (f *fakeOrders) GetOrder(_ context.Context, id int64) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return domain.Order{}, f.getErr
	}
	for _, o := range f.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (f *fakeOrders) CreateOrder(_ context.Context, payload domain.CreateOrderPayload) (domain.Order, error) {
	if f.createRelease != nil {
		f.createStarted <- struct{}{}
		<-f.createRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, payload)
	if f.createErr != nil {
		return domain.Order{}, f.createErr
	}
	return domain.Order{ID: 100, OrderNumber: "ORD-100", Status: domain.OrderStatusPending}, nil
}

func (f *fakeOrders) UpdateOrderStatus(_ context.Context, id int64, status domain.OrderStatus) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls = append(f.updateCalls, id)
	if f.updateErr != nil {
		return domain.Order{}, f.updateErr
	}
	for _, o := range f.orders {
		if o.ID == id {
			o.Status = status
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (f *fakeOrders) DeleteOrder(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, id)
	return f.deleteErr
}

func (f *fakeOrders) networkCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.createCalls) + len(f.updateCalls) + len(f.deleteCalls)
}

type fakeProducts struct {
	mu sync.Mutex

	products  []domain.Product
	listErr   error
	saveErr   error
	deleteErr error

	listCalls   int
	createCalls []domain.ProductPayload
	updateCalls []int64
	deleteCalls []int64
}

func (f *fakeProducts) ListProducts(context.Context) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Product(nil), f.products...), nil
}

func (f *fakeProducts) CreateProduct(_ context.Context, payload domain.ProductPayload) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, payload)
	if f.saveErr != nil {
		return domain.Product{}, f.saveErr
	}
	created := domain.Product{ID: int64(len(f.products) + 1), Name: payload.Name, Price: payload.Price}
	f.products = append(f.products, created)
	return created, nil
}

func (f *fakeProducts) UpdateProduct(_ context.Context, id int64, payload domain.ProductPayload) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls = append(f.updateCalls, id)
	if f.saveErr != nil {
		return domain.Product{}, f.saveErr
	}
	for i := range f.products {
		if f.products[i].ID == id {
			f.products[i].Name = payload.Name
			f.products[i].Price = payload.Price
			return f.products[i], nil
		}
	}
	return domain.Product{}, domain.ErrProductUnknown
}

func (f *fakeProducts) DeleteProduct(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, id)
	return f.deleteErr
}

type toastRecord struct {
	kind    ToastKind
	message string
}

type recordingNotifier struct {
	alerts []string
	toasts []toastRecord
}

func (n *recordingNotifier) Alert(message string) { n.alerts = append(n.alerts, message) }

func (n *recordingNotifier) Toast(kind ToastKind, message string) {
	n.toasts = append(n.toasts, toastRecord{kind: kind, message: message})
}

type scriptedConfirmer struct {
	answer  bool
	prompts []string
}

func (c *scriptedConfirmer) Confirm(prompt string) bool {
	c.prompts = append(c.prompts, prompt)
	return c.answer
}

type navigation struct {
	path  string
	after time.Duration
}

type recordingNavigator struct {
	calls []navigation
}

func (n *recordingNavigator) Navigate(path string, after time.Duration) {
	n.calls = append(n.calls, navigation{path: path, after: after})
}

type recordingActivity struct {
	mu     sync.Mutex
	events []domain.ActivityEvent
}

func (r *recordingActivity) Record(_ context.Context, event domain.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingActivity) kinds() []domain.ActivityKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]domain.ActivityKind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

type harness struct {
	orders    *fakeOrders
	products  *fakeProducts
	notifier  *recordingNotifier
	confirmer *scriptedConfirmer
	navigator *recordingNavigator
	activity  *recordingActivity
}

func newHarness() *harness {
	return &harness{
		orders:    &fakeOrders{},
		products:  &fakeProducts{},
		notifier:  &recordingNotifier{},
		confirmer: &scriptedConfirmer{answer: true},
		navigator: &recordingNavigator{},
		activity:  &recordingActivity{},
	}
}

func (h *harness) deps() Deps {
	keys := 0
	return Deps{
		Orders:        h.orders,
		Products:      h.products,
		Notifier:      h.notifier,
		Confirmer:     h.confirmer,
		Navigator:     h.navigator,
		Activity:      h.activity,
		RedirectDelay: 1500 * time.Millisecond,
		NewKey: func() string {
			keys++
			return "draft-" + string(rune('a'+keys-1))
		},
		Now: func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local) },
	}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(id int64, productID int64, price string, qty int) domain.OrderLineItem {
	p := money(price)
	return domain.OrderLineItem{
		ID:           id,
		Key:          "line-" + strconv.FormatInt(id, 10),
		ProductID:    productID,
		ProductName:  "product",
		ProductPrice: p,
		Quantity:     qty,
		TotalPrice:   p.Mul(decimal.NewFromInt(int64(qty))),
	}
}
