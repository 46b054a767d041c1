// Package console содержит контроллеры страниц консоли заказов: список заказов,
// редактор заказа и каталог товаров. Контроллеры владеют состоянием страницы,
// вызывают REST-шлюзы и после успешной мутации обновляют локальное состояние.
package console

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
	"github.com/vladislavdragonenkov/order-console/internal/metrics"
	"github.com/vladislavdragonenkov/order-console/internal/service/activity"
)

// Сообщения, которые видит оператор.
const (
	MsgStatusUpdateFailed  = "An error occurred while updating the order status."
	MsgConfirmOrderDelete  = "Are you sure you want to delete the order?"
	MsgOrderDeleteFailed   = "An error occurred while deleting the order."
	MsgPageLoadFailed      = "Could not load page data."
	MsgInvalidLineItem     = "Please select a valid product and quantity."
	MsgConfirmLineRemove   = "Are you sure you want to remove this product?"
	MsgOrderEmpty          = "Please add at least one product to the order."
	MsgOrderCreated        = "Order created successfully!"
	MsgOrderSaveFailed     = "An error occurred while saving the order."
	MsgOrderUpdateMissing  = "Saving changes to an existing order is not supported yet."
	MsgInvalidProduct      = "Please provide a valid name and a price greater than zero."
	MsgProductSaveFailed   = "The product could not be saved. Please try again."
	MsgConfirmProductDel   = "Are you sure you want to delete this product? This action cannot be undone."
	MsgProductDeleteFailed = "The product could not be deleted. It might be associated with existing orders."
	MsgProductsLoadFailed  = "Could not load products. Please check the API connection and try again."
)

// OrdersPath — путь списка заказов, куда редактор возвращает оператора.
const OrdersPath = "/my-orders"

const defaultRedirectDelay = 1500 * time.Millisecond

var (
	// ErrNotConfirmed — оператор не подтвердил деструктивное действие.
	ErrNotConfirmed = errors.New("action was not confirmed")
	// ErrSubmitInProgress — заказ уже отправляется.
	ErrSubmitInProgress = errors.New("order submission is already in progress")
)

// Deps — зависимости контроллеров. Незаданные поля заменяются безопасными заглушками.
type Deps struct {
	Orders    domain.OrderGateway
	Products  domain.ProductGateway
	Notifier  Notifier
	Confirmer Confirmer
	Navigator Navigator
	Activity  domain.ActivityRecorder
	Metrics   *metrics.ConsoleMetrics
	Logger    *log.Entry
	// RedirectDelay — пауза перед возвратом к списку после создания заказа.
	RedirectDelay time.Duration
	// NewKey выдаёт ключи позиций черновика.
	NewKey func() string
	Now    func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Confirmer == nil {
		d.Confirmer = declineConfirmer{}
	}
	if d.Navigator == nil {
		d.Navigator = nopNavigator{}
	}
	if d.Activity == nil {
		d.Activity = activity.Nop{}
	}
	if d.Logger == nil {
		d.Logger = log.WithField("component", "console")
	}
	if d.RedirectDelay <= 0 {
		d.RedirectDelay = defaultRedirectDelay
	}
	if d.NewKey == nil {
		d.NewKey = uuid.NewString
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// record пишет событие активности; сбой журнала не отменяет уже выполненное действие.
func (d Deps) record(ctx context.Context, kind domain.ActivityKind, entityType string, id int64, details any) {
	event, err := activity.NewEvent(kind, entityType, strconv.FormatInt(id, 10), details)
	if err == nil {
		err = d.Activity.Record(ctx, event)
	}
	if err != nil {
		d.Logger.WithError(err).WithField("kind", kind).Warn("failed to record activity")
	}
}

// outcome: invalid для ошибок валидации, rejected для отказов без обращения к сети.
func (d Deps) outcome(action string, err error) {
	switch {
	case err == nil:
		d.Metrics.RecordAction(action, metrics.OutcomeSuccess)
	case errors.Is(err, domain.ErrRemote):
		d.Metrics.RecordAction(action, metrics.OutcomeFailure)
	case domain.IsValidation(err):
		d.Metrics.RecordAction(action, metrics.OutcomeInvalid)
	default:
		d.Metrics.RecordAction(action, metrics.OutcomeRejected)
	}
}
