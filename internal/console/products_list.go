package console

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

// ProductRow — строка таблицы каталога.
type ProductRow struct {
	ID    int64
	Name  string
	Price string
}

// ProductsView — состояние страницы "Manage Products".
type ProductsView struct {
	Loading    bool
	Error      string
	Empty      bool
	Rows       []ProductRow
	ModalOpen  bool
	ModalTitle string
	// EditingID — товар в модальной форме; 0 — новый товар.
	EditingID int64
	FormName  string
	FormPrice string
}

// ProductsList — CRUD-контроллер каталога.
// После каждой мутации каталог перечитывается целиком.
type ProductsList struct {
	deps Deps

	mu       sync.Mutex
	products []domain.Product
	loading  bool
	loaded   bool
	err      string
	modal    Modal
	editing  *domain.Product
}

// NewProductsList создаёт контроллер в состоянии загрузки.
func NewProductsList(deps Deps) *ProductsList {
	deps = deps.withDefaults()
	deps.Logger = deps.Logger.WithField("page", "products")
	return &ProductsList{deps: deps, loading: true}
}

// Load перечитывает каталог. При ошибке прежний список остаётся.
func (p *ProductsList) Load(ctx context.Context) error {
	p.mu.Lock()
	p.loading = true
	p.err = ""
	p.mu.Unlock()

	products, err := p.deps.Products.ListProducts(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		p.deps.Logger.WithError(err).Error("failed to fetch products")
		p.err = MsgProductsLoadFailed
		return err
	}
	p.products = products
	p.loaded = true
	return nil
}

// Products возвращает копию каталога.
func (p *ProductsList) Products() []domain.Product {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.products)
}

// OpenModal открывает форму: product == nil — новый товар, иначе редактирование.
func (p *ProductsList) OpenModal(product *domain.Product) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.editing = nil
	title := "Add Product"
	if product != nil {
		copied := *product
		p.editing = &copied
		title = "Edit Product"
	}
	p.modal.Show(title)
}

// OpenModalFor открывает форму редактирования товара из текущего каталога.
func (p *ProductsList) OpenModalFor(id int64) error {
	p.mu.Lock()
	product, ok := domain.FindProduct(p.products, id)
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("product %d: %w", id, domain.ErrProductUnknown)
	}
	p.OpenModal(&product)
	return nil
}

// CloseModal закрывает форму и сбрасывает редактируемый товар.
func (p *ProductsList) CloseModal() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeModalLocked()
}

func (p *ProductsList) closeModalLocked() {
	p.modal.Close()
	p.editing = nil
}

// Save создаёт или обновляет товар. Невалидная форма не доходит до сети и оставляет окно открытым;
// после обращения к бэкенду окно закрывается при любом исходе.
func (p *ProductsList) Save(ctx context.Context, payload domain.ProductPayload) (err error) {
	defer func() { p.deps.outcome("product_save", err) }()

	if err := payload.Validate(); err != nil {
		p.deps.Notifier.Alert(MsgInvalidProduct)
		return err
	}

	p.mu.Lock()
	p.err = ""
	editing := p.editing
	p.mu.Unlock()

	var (
		saved domain.Product
		kind  = domain.ActivityProductCreated
	)
	if editing != nil {
		kind = domain.ActivityProductUpdated
		saved, err = p.deps.Products.UpdateProduct(ctx, editing.ID, payload)
	} else {
		saved, err = p.deps.Products.CreateProduct(ctx, payload)
	}

	p.mu.Lock()
	p.closeModalLocked()
	if err != nil {
		p.err = MsgProductSaveFailed
		p.mu.Unlock()
		p.deps.Logger.WithError(err).Error("failed to save product")
		return fmt.Errorf("save product: %w", err)
	}
	p.mu.Unlock()

	id := saved.ID
	if id == 0 && editing != nil {
		id = editing.ID
	}
	p.deps.record(ctx, kind, "product", id, map[string]any{
		"name":  payload.Name,
		"price": payload.Price.String(),
	})
	_ = p.Load(ctx)
	return nil
}

// Delete удаляет товар после подтверждения и перечитывает каталог.
func (p *ProductsList) Delete(ctx context.Context, id int64) (err error) {
	defer func() { p.deps.outcome("product_delete", err) }()

	if !p.deps.Confirmer.Confirm(MsgConfirmProductDel) {
		return ErrNotConfirmed
	}

	p.mu.Lock()
	p.err = ""
	p.mu.Unlock()

	if err := p.deps.Products.DeleteProduct(ctx, id); err != nil {
		p.mu.Lock()
		p.err = MsgProductDeleteFailed
		p.mu.Unlock()
		p.deps.Logger.WithError(err).WithField("product_id", id).Error("failed to delete product")
		return fmt.Errorf("delete product %d: %w", id, err)
	}

	p.deps.record(ctx, domain.ActivityProductDeleted, "product", id, nil)
	_ = p.Load(ctx)
	return nil
}

// View собирает состояние страницы.
func (p *ProductsList) View() ProductsView {
	p.mu.Lock()
	defer p.mu.Unlock()

	view := ProductsView{
		Loading:    p.loading,
		Error:      p.err,
		Empty:      p.loaded && len(p.products) == 0,
		ModalOpen:  p.modal.Open,
		ModalTitle: p.modal.Title,
	}
	for _, product := range p.products {
		view.Rows = append(view.Rows, ProductRow{
			ID:    product.ID,
			Name:  product.Name,
			Price: domain.FormatMoney(product.Price),
		})
	}
	if p.editing != nil {
		view.EditingID = p.editing.ID
		view.FormName = p.editing.Name
		view.FormPrice = p.editing.Price.StringFixed(2)
	}
	return view
}
