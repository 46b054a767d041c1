package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
	"github.com/vladislavdragonenkov/order-console/internal/metrics"
)

// Recorder пишет подтверждённые действия оператора в outbox активности.
type Recorder struct {
	repo    domain.ActivityRepository
	metrics *metrics.ConsoleMetrics
	logger  *log.Entry
	now     func() time.Time
}

// NewRecorder создаёт Recorder поверх репозитория активности.
func NewRecorder(repo domain.ActivityRepository, m *metrics.ConsoleMetrics, logger *log.Entry) *Recorder {
	if logger == nil {
		logger = log.WithField("component", "activity-recorder")
	}
	return &Recorder{
		repo:    repo,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Record дополняет событие служебными полями и ставит его в очередь на публикацию.
func (r *Recorder) Record(_ context.Context, event domain.ActivityEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Occurred.IsZero() {
		event.Occurred = r.now()
	}
	event.Status = domain.ActivityStatusPending

	stored, err := r.repo.Enqueue(event)
	if err != nil {
		return fmt.Errorf("enqueue activity event: %w", err)
	}
	r.metrics.RecordActivity()
	r.logger.WithFields(log.Fields{
		"activity_id": stored.ID,
		"kind":        stored.Kind,
		"entity_id":   stored.EntityID,
	}).Debug("activity recorded")
	return nil
}

// NewEvent собирает событие с JSON-деталями.
func NewEvent(kind domain.ActivityKind, entityType, entityID string, details any) (domain.ActivityEvent, error) {
	var payload []byte
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return domain.ActivityEvent{}, fmt.Errorf("marshal activity details: %w", err)
		}
		payload = data
	}
	return domain.ActivityEvent{
		Kind:       kind,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    payload,
	}, nil
}

// Nop — ActivityRecorder, который ничего не записывает.
type Nop struct{}

// Record ничего не делает.
func (Nop) Record(context.Context, domain.ActivityEvent) error { return nil }

var (
	_ domain.ActivityRecorder = (*Recorder)(nil)
	_ domain.ActivityRecorder = Nop{}
)
