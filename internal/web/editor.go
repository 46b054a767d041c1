package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/order-console/internal/console"
)

const editorPath = "/add-order"

type editorData struct {
	console.EditorView
	// Base — префикс форм редактора: /add-order или /add-order/{id}.
	Base string
}

func editorBase(id int64) string {
	if id == 0 {
		return editorPath
	}
	return editorPath + "/" + strconv.FormatInt(id, 10)
}

// editorID читает id из пути; отсутствие id означает новый заказ.
func editorID(r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		return 0, true
	}
	return parseOptionalID(raw)
}

// openEditor заменяет редактор сессии новым и загружает его данные.
func (s *Server) openEditor(ctx context.Context, id int64) *console.OrderEditor {
	s.editor = console.NewOrderEditor(s.deps(), id)
	_ = s.editor.Load(ctx)
	return s.editor
}

// activeEditor возвращает редактор для POST-запроса, создавая его при смене заказа.
func (s *Server) activeEditor(ctx context.Context, id int64) *console.OrderEditor {
	if s.editor == nil || s.editor.ID() != id {
		return s.openEditor(ctx, id)
	}
	return s.editor
}

// editorPage показывает черновик. Новый черновик начинается по ?new=1, при смене заказа
// и после успешного создания; режим edit перечитывает заказ при каждом заходе.
func (s *Server) editorPage(w http.ResponseWriter, r *http.Request) {
	id, ok := editorID(r)
	if !ok {
		http.Redirect(w, r, console.OrdersPath, http.StatusSeeOther)
		return
	}

	fresh := s.takeFresh(pageEditor)
	editor := s.editor
	switch {
	case editor == nil, editor.ID() != id, r.URL.Query().Get("new") == "1":
		editor = s.openEditor(r.Context(), id)
	case !fresh && (editor.EditMode() || editor.View().Created):
		editor = s.openEditor(r.Context(), id)
	}

	view := editor.View()
	s.render(w, pageEditor, view.Title, editorData{EditorView: view, Base: editorBase(id)})
}

func (s *Server) editorModal(w http.ResponseWriter, r *http.Request) {
	s.editorAction(w, r, func(editor *console.OrderEditor) error {
		return editor.OpenAddModal()
	})
}

func (s *Server) editorModalClose(w http.ResponseWriter, r *http.Request) {
	s.editorAction(w, r, func(editor *console.OrderEditor) error {
		editor.CloseAddModal()
		return nil
	})
}

func (s *Server) editorAddLine(w http.ResponseWriter, r *http.Request) {
	productID, _ := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("product_id")), 10, 64)
	quantity, _ := strconv.Atoi(strings.TrimSpace(r.PostFormValue("quantity")))
	s.editorAction(w, r, func(editor *console.OrderEditor) error {
		_, err := editor.AddLineItem(productID, quantity)
		return err
	})
}

func (s *Server) editorRemoveLine(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	s.editorAction(w, r, func(editor *console.OrderEditor) error {
		return editor.RemoveLineItem(key)
	})
}

func (s *Server) editorSubmit(w http.ResponseWriter, r *http.Request) {
	s.editorAction(w, r, func(editor *console.OrderEditor) error {
		_, err := editor.Submit(r.Context())
		return err
	})
}

// editorAction выполняет действие над черновиком и возвращает оператора на страницу редактора.
func (s *Server) editorAction(w http.ResponseWriter, r *http.Request, action func(*console.OrderEditor) error) {
	id, ok := editorID(r)
	if !ok {
		http.Redirect(w, r, console.OrdersPath, http.StatusSeeOther)
		return
	}

	base := editorBase(id)
	err := action(s.activeEditor(r.Context(), id))
	s.markFresh(pageEditor)
	if errors.Is(err, console.ErrNotConfirmed) {
		s.renderConfirm(w, r, base)
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("order_id", id).Debug("editor action did not succeed")
	}
	http.Redirect(w, r, base, http.StatusSeeOther)
}
