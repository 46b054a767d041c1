package console

import "time"

// ToastDuration — время жизни уведомления.
const ToastDuration = 3 * time.Second

// ToastKind — вид уведомления.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast — временное уведомление, исчезает через ToastDuration.
type Toast struct {
	Kind      ToastKind
	Message   string
	ExpiresAt time.Time
}

// NewToast создаёт уведомление, живущее ToastDuration от now.
func NewToast(kind ToastKind, message string, now time.Time) Toast {
	return Toast{Kind: kind, Message: message, ExpiresAt: now.Add(ToastDuration)}
}

// Visible сообщает, нужно ли ещё показывать уведомление.
func (t Toast) Visible(now time.Time) bool {
	return t.Message != "" && now.Before(t.ExpiresAt)
}

// Notifier доставляет оператору блокирующие сообщения и уведомления.
type Notifier interface {
	Alert(message string)
	Toast(kind ToastKind, message string)
}

// Confirmer запрашивает подтверждение деструктивного действия.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Navigator переводит оператора на другую страницу через after.
type Navigator interface {
	Navigate(path string, after time.Duration)
}

// Modal — состояние модального окна.
type Modal struct {
	Open  bool
	Title string
}

// Show открывает окно с заголовком.
func (m *Modal) Show(title string) {
	m.Open = true
	m.Title = title
}

// Close закрывает окно.
func (m *Modal) Close() {
	m.Open = false
}

type nopNotifier struct{}

func (nopNotifier) Alert(string)            {}
func (nopNotifier) Toast(ToastKind, string) {}

// declineConfirmer отклоняет всё: без явного Confirmer деструктивные действия не выполняются.
type declineConfirmer struct{}

func (declineConfirmer) Confirm(string) bool { return false }

type nopNavigator struct{}

func (nopNavigator) Navigate(string, time.Duration) {}
