package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

const (
	defaultPollInterval   = 1 * time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
)

var (
	relayPublishAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_console_activity_publish_attempts_total",
		Help: "Total number of activity publish attempts grouped by result.",
	}, []string{"result"})
	relayPendingEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "order_console_activity_pending_events",
		Help: "Current number of activity events waiting for publication.",
	})
	relayOldestPendingAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "order_console_activity_oldest_pending_age_seconds",
		Help: "Age in seconds of the oldest pending activity event.",
	})
)

// WorkerOptions задаёт параметры relay-воркера активности.
type WorkerOptions struct {
	Logger         *log.Entry
	DLQPublisher   domain.ActivityPublisher
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// Option настраивает Worker.
type Option func(*WorkerOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *WorkerOptions) {
		opts.Logger = logger
	}
}

// WithDLQPublisher задаёт publisher для событий, исчерпавших попытки.
func WithDLQPublisher(publisher domain.ActivityPublisher) Option {
	return func(opts *WorkerOptions) {
		opts.DLQPublisher = publisher
	}
}

// WithPollInterval задаёт частоту опроса журнала.
func WithPollInterval(interval time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.PollInterval = interval
	}
}

// WithBatchSize задаёт размер батча событий.
func WithBatchSize(batchSize int) Option {
	return func(opts *WorkerOptions) {
		opts.BatchSize = batchSize
	}
}

// WithMaxAttempts задаёт число попыток публикации перед failed/DLQ.
func WithMaxAttempts(maxAttempts int) Option {
	return func(opts *WorkerOptions) {
		opts.MaxAttempts = maxAttempts
	}
}

// WithRetryBaseDelay задаёт базовый delay для exponential backoff.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.RetryBaseDelay = delay
	}
}

// Status — сводка по последнему циклу relay, показывается на странице активности.
type Status struct {
	LastRunAt time.Time
	Sent      int
	Failed    int
	Pending   int
	LastError string
}

// Worker переносит pending-события активности из журнала в брокер.
type Worker struct {
	repo           domain.ActivityRepository
	publisher      domain.ActivityPublisher
	dlqPublisher   domain.ActivityPublisher
	logger         *log.Entry
	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	retryBaseDelay time.Duration

	mu     sync.RWMutex
	status Status
}

// NewWorker создаёт relay-воркер.
func NewWorker(repo domain.ActivityRepository, publisher domain.ActivityPublisher, options ...Option) *Worker {
	opts := WorkerOptions{
		PollInterval:   defaultPollInterval,
		BatchSize:      defaultBatchSize,
		MaxAttempts:    defaultMaxAttempts,
		RetryBaseDelay: defaultRetryBaseDelay,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "outbox-worker")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryBaseDelay < 0 {
		opts.RetryBaseDelay = 0
	}

	return &Worker{
		repo:           repo,
		publisher:      publisher,
		dlqPublisher:   opts.DLQPublisher,
		logger:         logger,
		pollInterval:   opts.PollInterval,
		batchSize:      opts.BatchSize,
		maxAttempts:    opts.MaxAttempts,
		retryBaseDelay: opts.RetryBaseDelay,
	}
}

// Run опрашивает журнал до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("activity relay is disabled: repo or publisher is nil")
		return
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessOnce(ctx)
		}
	}
}

// Status возвращает копию сводки последнего цикла.
func (w *Worker) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// ProcessOnce выполняет один цикл: забирает батч, публикует, помечает результат.
func (w *Worker) ProcessOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	run := Status{LastRunAt: time.Now().UTC()}
	defer func() {
		run.Pending = w.refreshBacklog()
		w.mu.Lock()
		w.status = run
		w.mu.Unlock()
	}()

	events, err := w.repo.PullPending(w.batchSize)
	if err != nil {
		run.LastError = err.Error()
		w.logger.WithError(err).Warn("failed to pull pending activity events")
		return
	}

	for _, event := range events {
		if ctx.Err() != nil {
			return
		}

		entry := w.logger.WithFields(log.Fields{
			"activity_id": event.ID,
			"kind":        event.Kind,
		})

		if err := w.publishWithRetry(ctx, event); err != nil {
			run.Failed++
			run.LastError = err.Error()
			entry.WithError(err).Error("activity publish failed after retries")
			relayPublishAttempts.WithLabelValues("failed").Inc()

			if dlqErr := w.publishToDLQ(event, err); dlqErr != nil {
				entry.WithError(dlqErr).Warn("failed to publish to DLQ")
				relayPublishAttempts.WithLabelValues("dlq_failed").Inc()
			}
			if markErr := w.repo.MarkFailed(event.ID); markErr != nil {
				entry.WithError(markErr).Warn("failed to mark activity as failed")
			}
			continue
		}

		run.Sent++
		if err := w.repo.MarkSent(event.ID); err != nil {
			entry.WithError(err).Warn("failed to mark activity as sent")
		}
	}
}

func (w *Worker) publishWithRetry(ctx context.Context, event domain.ActivityEvent) error {
	var lastErr error

	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.publisher.Publish(event)
		if err == nil {
			relayPublishAttempts.WithLabelValues("sent").Inc()
			return nil
		}
		lastErr = err
		relayPublishAttempts.WithLabelValues("retry_error").Inc()

		if attempt == w.maxAttempts {
			break
		}

		delay := w.retryBackoff(attempt)
		if delay <= 0 {
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("publish failed after %d attempts: %w", w.maxAttempts, lastErr)
}

// refreshBacklog обновляет gauges backlog и возвращает число pending-событий.
func (w *Worker) refreshBacklog() int {
	stats, err := w.repo.Stats()
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect activity backlog stats")
		return 0
	}

	relayPendingEvents.Set(float64(stats.PendingCount))
	if stats.PendingCount == 0 || stats.OldestPendingAt.IsZero() {
		relayOldestPendingAge.Set(0)
		return stats.PendingCount
	}

	relayOldestPendingAge.Set(max(time.Since(stats.OldestPendingAt).Seconds(), 0))
	return stats.PendingCount
}

// retryBackoff удваивает базовую задержку на каждую попытку, с насыщением.
func (w *Worker) retryBackoff(attempt int) time.Duration {
	if w.retryBaseDelay <= 0 {
		return 0
	}

	const maxDuration = time.Duration(1<<63 - 1)
	delay := w.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > maxDuration/2 {
			return maxDuration
		}
		delay *= 2
	}
	return delay
}

func (w *Worker) publishToDLQ(event domain.ActivityEvent, publishErr error) error {
	if w.dlqPublisher == nil {
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"activity_id":      event.ID,
		"kind":             event.Kind,
		"entity_type":      event.EntityType,
		"entity_id":        event.EntityID,
		"payload":          rawPayload(event.Payload),
		"occurred":         event.Occurred.UTC().Format(time.RFC3339Nano),
		"publish_error":    publishErr.Error(),
		"dlq_published_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal dlq payload: %w", err)
	}

	dead := event
	dead.Payload = payload
	if err := w.dlqPublisher.Publish(dead); err != nil {
		return fmt.Errorf("publish to dlq: %w", err)
	}
	return nil
}

func rawPayload(payload []byte) json.RawMessage {
	if len(payload) == 0 || !json.Valid(payload) {
		return json.RawMessage("null")
	}
	return json.RawMessage(payload)
}
