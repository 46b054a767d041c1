package web

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/order-console/internal/console"
)

// flash копит алерты и тосты до следующей отрисованной страницы.
type flash struct {
	mu     sync.Mutex
	now    func() time.Time
	alerts []string
	toasts []console.Toast
}

func newFlash(now func() time.Time) *flash {
	return &flash{now: now}
}

func (f *flash) Alert(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, message)
}

func (f *flash) Toast(kind console.ToastKind, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toasts = append(f.toasts, console.NewToast(kind, message, f.now()))
}

// drain отдаёт накопленные сообщения; просроченные тосты отбрасываются.
func (f *flash) drain() ([]string, []console.Toast) {
	f.mu.Lock()
	defer f.mu.Unlock()

	alerts := f.alerts
	now := f.now()
	var toasts []console.Toast
	for _, t := range f.toasts {
		if t.Visible(now) {
			toasts = append(toasts, t)
		}
	}
	f.alerts, f.toasts = nil, nil
	return alerts, toasts
}

// formConfirmer отвечает "да", только если запрос пришёл с confirm=yes.
// Иначе запоминает вопрос, чтобы показать страницу подтверждения.
type formConfirmer struct {
	mu     sync.Mutex
	armed  bool
	prompt string
}

func (c *formConfirmer) arm(confirmed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = confirmed
	c.prompt = ""
}

func (c *formConfirmer) Confirm(prompt string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = prompt
	return c.armed
}

func (c *formConfirmer) lastPrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt
}

type redirect struct {
	Path    string
	Seconds float64
}

// delayedNavigator запоминает отложенный переход; страница выводит его как meta refresh.
type delayedNavigator struct {
	mu      sync.Mutex
	pending *redirect
}

func (n *delayedNavigator) Navigate(path string, after time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = &redirect{Path: path, Seconds: after.Seconds()}
}

func (n *delayedNavigator) take() *redirect {
	n.mu.Lock()
	defer n.mu.Unlock()
	pending := n.pending
	n.pending = nil
	return pending
}
