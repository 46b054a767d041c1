package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/order-console/internal/console"
	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

const productsPath = "/products"

type productsData struct {
	console.ProductsView
	ErrorPanel errorPanel
}

func (s *Server) productsPage(w http.ResponseWriter, r *http.Request) {
	if !s.takeFresh(pageProducts) {
		_ = s.products.Load(r.Context())
	}

	view := s.products.View()
	s.render(w, pageProducts, "Manage Products", productsData{
		ProductsView: view,
		ErrorPanel:   errorPanel{Message: view.Error, RetryAction: productsPath + "/retry"},
	})
}

func (s *Server) productsRetry(w http.ResponseWriter, r *http.Request) {
	_ = s.products.Load(r.Context())
	s.markFresh(pageProducts)
	http.Redirect(w, r, productsPath, http.StatusSeeOther)
}

func (s *Server) productsModal(w http.ResponseWriter, r *http.Request) {
	if id, ok := parseOptionalID(r.PostFormValue("id")); ok {
		if err := s.products.OpenModalFor(id); err != nil {
			s.logger.WithError(err).Warn("product is not in the loaded catalog")
		}
	} else {
		s.products.OpenModal(nil)
	}
	s.markFresh(pageProducts)
	http.Redirect(w, r, productsPath, http.StatusSeeOther)
}

func (s *Server) productsModalClose(w http.ResponseWriter, r *http.Request) {
	s.products.CloseModal()
	s.markFresh(pageProducts)
	http.Redirect(w, r, productsPath, http.StatusSeeOther)
}

func (s *Server) productSave(w http.ResponseWriter, r *http.Request) {
	payload := domain.ProductPayload{
		Name:  r.PostFormValue("name"),
		Price: parsePrice(r.PostFormValue("price")),
	}
	if err := s.products.Save(r.Context(), payload); err != nil {
		s.logger.WithError(err).Debug("product save did not succeed")
	}
	s.markFresh(pageProducts)
	http.Redirect(w, r, productsPath, http.StatusSeeOther)
}

func (s *Server) productDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOptionalID(chi.URLParam(r, "id"))
	if !ok {
		http.Redirect(w, r, productsPath, http.StatusSeeOther)
		return
	}

	err := s.products.Delete(r.Context(), id)
	s.markFresh(pageProducts)
	if errors.Is(err, console.ErrNotConfirmed) {
		s.renderConfirm(w, r, productsPath)
		return
	}
	http.Redirect(w, r, productsPath, http.StatusSeeOther)
}

// parsePrice превращает пустое или нечисловое значение в ноль, который не пройдёт валидацию.
func parsePrice(raw string) decimal.Decimal {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return price
}
