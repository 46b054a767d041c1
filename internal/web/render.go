package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/vladislavdragonenkov/order-console/internal/console"
	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageOrders   = "orders"
	pageProducts = "products"
	pageEditor   = "editor"
	pageActivity = "activity"
	pageConfirm  = "confirm"
)

var templateFuncs = template.FuncMap{
	"statuses": domain.OrderStatuses,
	"money":    domain.FormatMoney,
	"timestamp": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Local().Format("2006-01-02 15:04:05")
	},
	"seconds": func(v float64) string {
		return fmt.Sprintf("%g", v)
	},
}

type pages struct {
	byName map[string]*template.Template
}

// loadPages собирает каждую страницу из общего layout и собственного шаблона.
func loadPages() (*pages, error) {
	p := &pages{byName: make(map[string]*template.Template)}
	for _, name := range []string{pageOrders, pageProducts, pageEditor, pageActivity, pageConfirm} {
		tmpl, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		p.byName[name] = tmpl
	}
	return p, nil
}

// layoutData — общие данные всех страниц.
type layoutData struct {
	Title   string
	Active  string
	Alerts  []string
	Toasts  []console.Toast
	Refresh *redirect
	Page    any
}

func (s *Server) render(w http.ResponseWriter, name, title string, page any) {
	tmpl, ok := s.pages.byName[name]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}

	alerts, toasts := s.flash.drain()
	data := layoutData{
		Title:   title,
		Active:  name,
		Alerts:  alerts,
		Toasts:  toasts,
		Refresh: s.navigator.take(),
		Page:    page,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.WithError(err).WithField("page", name).Error("failed to render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// confirmPage переспрашивает оператора и повторяет исходный POST с confirm=yes.
type confirmPage struct {
	Prompt string
	Action string
	Back   string
	Fields map[string]string
}

func (s *Server) renderConfirm(w http.ResponseWriter, r *http.Request, back string) {
	fields := make(map[string]string)
	for key, values := range r.PostForm {
		if key == "confirm" || len(values) == 0 {
			continue
		}
		fields[key] = values[0]
	}
	s.render(w, pageConfirm, "Confirm", confirmPage{
		Prompt: s.confirmer.lastPrompt(),
		Action: r.URL.Path,
		Back:   back,
		Fields: fields,
	})
}
