// Package web отдаёт консоль заказов как HTML-страницы поверх контроллеров пакета console.
package web

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-console/internal/console"
	"github.com/vladislavdragonenkov/order-console/internal/domain"
	"github.com/vladislavdragonenkov/order-console/internal/metrics"
	"github.com/vladislavdragonenkov/order-console/internal/service/outbox"
)

// RelayStatus отдаёт сводку relay-воркера для страницы активности.
type RelayStatus interface {
	Status() outbox.Status
}

// Config описывает зависимости веб-консоли.
type Config struct {
	Orders   domain.OrderGateway
	Products domain.ProductGateway
	// Activity пишет подтверждённые действия; Journal читает их для страницы активности.
	Activity domain.ActivityRecorder
	Journal  domain.ActivityRepository
	Relay    RelayStatus
	Metrics  *metrics.ConsoleMetrics
	Logger   *log.Entry
	// RedirectDelay — пауза перед возвратом к списку после создания заказа.
	RedirectDelay time.Duration
	Now           func() time.Time
}

// Server — сессия оператора: один набор контроллеров на процесс.
type Server struct {
	cfg    Config
	logger *log.Entry
	pages  *pages

	flash     *flash
	confirmer *formConfirmer
	navigator *delayedNavigator

	// mu сериализует запросы: confirmer и flash принадлежат текущему запросу.
	mu       sync.Mutex
	orders   *console.OrdersList
	products *console.ProductsList
	editor   *console.OrderEditor
	// fresh отмечает страницы, уже обновлённые мутацией; следующий GET не перечитывает данные.
	fresh map[string]bool
}

// NewServer создаёт сессию консоли.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Orders == nil || cfg.Products == nil {
		return nil, errors.New("web: orders and products gateways are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.WithField("component", "web")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	tmpl, err := loadPages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		logger:    cfg.Logger,
		pages:     tmpl,
		flash:     newFlash(cfg.Now),
		confirmer: &formConfirmer{},
		navigator: &delayedNavigator{},
		fresh:     make(map[string]bool),
	}
	s.orders = console.NewOrdersList(s.deps())
	s.products = console.NewProductsList(s.deps())
	return s, nil
}

func (s *Server) deps() console.Deps {
	return console.Deps{
		Orders:        s.cfg.Orders,
		Products:      s.cfg.Products,
		Notifier:      s.flash,
		Confirmer:     s.confirmer,
		Navigator:     s.navigator,
		Activity:      s.cfg.Activity,
		Metrics:       s.cfg.Metrics,
		Logger:        s.logger.WithField("layer", "console"),
		RedirectDelay: s.cfg.RedirectDelay,
		Now:           s.cfg.Now,
	}
}

// Routes собирает маршрутизатор консоли.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(s.session)

	r.Get("/", redirectTo(console.OrdersPath))

	r.Route(console.OrdersPath, func(r chi.Router) {
		r.Get("/", s.ordersPage)
		r.Post("/retry", s.ordersRetry)
		r.Post("/{id}/status", s.orderStatus)
		r.Post("/{id}/delete", s.orderDelete)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.productsPage)
		r.Post("/retry", s.productsRetry)
		r.Post("/modal", s.productsModal)
		r.Post("/modal/close", s.productsModalClose)
		r.Post("/save", s.productSave)
		r.Post("/{id}/delete", s.productDelete)
	})

	r.Route("/add-order", func(r chi.Router) {
		r.Get("/", s.editorPage)
		r.Get("/{id}", s.editorPage)
		for _, prefix := range []string{"", "/{id}"} {
			r.Post(prefix+"/modal", s.editorModal)
			r.Post(prefix+"/modal/close", s.editorModalClose)
			r.Post(prefix+"/lines", s.editorAddLine)
			r.Post(prefix+"/lines/{key}/delete", s.editorRemoveLine)
			r.Post(prefix+"/submit", s.editorSubmit)
		}
	})

	r.Get("/activity", s.activityPage)

	r.NotFound(redirectTo(console.OrdersPath))
	r.MethodNotAllowed(redirectTo(console.OrdersPath))
	return r
}

// session выполняет запросы по одному и взводит confirmer значением поля confirm.
func (s *Server) session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.confirmer.arm(r.PostFormValue("confirm") == "yes")
		defer s.confirmer.arm(false)
		next.ServeHTTP(w, r)
	})
}

func redirectTo(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, http.StatusSeeOther)
	}
}

// markFresh сообщает, что данные страницы уже актуальны после мутации.
func (s *Server) markFresh(page string) {
	s.fresh[page] = true
}

// takeFresh возвращает и сбрасывает отметку актуальности.
func (s *Server) takeFresh(page string) bool {
	fresh := s.fresh[page]
	delete(s.fresh, page)
	return fresh
}
