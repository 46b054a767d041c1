package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/order-console/internal/console"
	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

type errorPanel struct {
	Message     string
	RetryAction string
}

type ordersData struct {
	console.OrdersView
	ErrorPanel errorPanel
}

// ordersPage показывает список заказов. Параметр open раскрывает селектор статуса;
// любой другой показ закрывает все селекторы.
func (s *Server) ordersPage(w http.ResponseWriter, r *http.Request) {
	open, hasOpen := parseOptionalID(r.URL.Query().Get("open"))
	fresh := s.takeFresh(pageOrders)
	if s.orders.View().Loading || (!fresh && !hasOpen) {
		s.orders.Load(r.Context())
	}

	if hasOpen {
		s.orders.ToggleSelector(open)
	} else {
		s.orders.PointerDown(0)
	}

	view := s.orders.View()
	s.render(w, pageOrders, "My Orders", ordersData{
		OrdersView: view,
		ErrorPanel: errorPanel{Message: view.Error, RetryAction: console.OrdersPath + "/retry"},
	})
}

func (s *Server) ordersRetry(w http.ResponseWriter, r *http.Request) {
	s.orders.Retry(r.Context())
	s.markFresh(pageOrders)
	http.Redirect(w, r, console.OrdersPath, http.StatusSeeOther)
}

func (s *Server) orderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOptionalID(chi.URLParam(r, "id"))
	if !ok {
		http.Redirect(w, r, console.OrdersPath, http.StatusSeeOther)
		return
	}

	status, err := domain.ParseOrderStatus(r.PostFormValue("status"))
	if err != nil {
		s.logger.WithError(err).WithField("order_id", id).Warn("invalid status in form")
		s.orders.PointerDown(0)
		s.markFresh(pageOrders)
		http.Redirect(w, r, console.OrdersPath, http.StatusSeeOther)
		return
	}
	if err := s.orders.SelectStatus(r.Context(), id, status); err != nil {
		s.logger.WithError(err).WithField("order_id", id).Warn("status change rejected")
	}
	s.markFresh(pageOrders)
	http.Redirect(w, r, console.OrdersPath, http.StatusSeeOther)
}

func (s *Server) orderDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOptionalID(chi.URLParam(r, "id"))
	if !ok {
		http.Redirect(w, r, console.OrdersPath, http.StatusSeeOther)
		return
	}

	err := s.orders.Delete(r.Context(), id)
	s.markFresh(pageOrders)
	if errors.Is(err, console.ErrNotConfirmed) {
		s.renderConfirm(w, r, console.OrdersPath)
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("order_id", id).Warn("order delete failed")
	}
	http.Redirect(w, r, console.OrdersPath, http.StatusSeeOther)
}

// parseOptionalID разбирает положительный идентификатор; пустое или кривое значение даёт ok=false.
func parseOptionalID(raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
