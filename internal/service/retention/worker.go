package retention

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

const (
	defaultInterval  = 10 * time.Minute
	defaultMaxAge    = 7 * 24 * time.Hour
	defaultBatchSize = 500
)

var (
	retentionRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_console_activity_retention_runs_total",
		Help: "Total number of activity retention runs grouped by result.",
	}, []string{"result"})
	retentionDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_console_activity_retention_deleted_total",
		Help: "Total number of pruned activity events.",
	})
	retentionLastDeleted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "order_console_activity_retention_last_deleted",
		Help: "Number of pruned activity events during the last retention run.",
	})
)

// Options задает параметры воркера очистки журнала активности.
type Options struct {
	Logger    *log.Entry
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
	// PrunePending включает удаление старых pending-событий, когда их некому отправить.
	PrunePending bool
}

// Option настраивает Worker.
type Option func(*Options)

// WithLogger задает logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithInterval задает интервал между циклами очистки.
func WithInterval(interval time.Duration) Option {
	return func(opts *Options) {
		opts.Interval = interval
	}
}

// WithMaxAge задает возраст, после которого отправленные события удаляются.
func WithMaxAge(maxAge time.Duration) Option {
	return func(opts *Options) {
		opts.MaxAge = maxAge
	}
}

// WithBatchSize задает размер batch для одного удаления.
func WithBatchSize(batchSize int) Option {
	return func(opts *Options) {
		opts.BatchSize = batchSize
	}
}

// WithPendingPruning включает удаление pending-событий старше MaxAge.
func WithPendingPruning(enabled bool) Option {
	return func(opts *Options) {
		opts.PrunePending = enabled
	}
}

// Worker периодически удаляет старые sent/failed события активности.
// Pending-события удаляются, только если включён WithPendingPruning.
type Worker struct {
	repo         domain.ActivityRepository
	logger       *log.Entry
	interval     time.Duration
	maxAge       time.Duration
	batchSize    int
	prunePending bool
	now          func() time.Time
}

// NewWorker создает воркер очистки журнала.
func NewWorker(repo domain.ActivityRepository, options ...Option) *Worker {
	opts := Options{
		Interval:  defaultInterval,
		MaxAge:    defaultMaxAge,
		BatchSize: defaultBatchSize,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "retention-worker")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = defaultMaxAge
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}

	return &Worker{
		repo:         repo,
		logger:       logger,
		interval:     opts.Interval,
		maxAge:       opts.MaxAge,
		batchSize:    opts.BatchSize,
		prunePending: opts.PrunePending,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Run запускает периодическую очистку до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil {
		w.logger.Warn("activity retention worker is disabled: repo is nil")
		return
	}

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	deleted, err := w.Prune(ctx, w.now().Add(-w.maxAge))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		retentionRunsTotal.WithLabelValues("error").Inc()
		w.logger.WithError(err).Warn("activity retention run failed")
		return
	}

	retentionRunsTotal.WithLabelValues("ok").Inc()
	retentionLastDeleted.Set(float64(deleted))
	if deleted > 0 {
		w.logger.WithField("deleted", deleted).Info("activity retention completed")
	}
}

// Prune удаляет relayed-события старше before порциями batchSize,
// а при включённом WithPendingPruning и pending-события.
func (w *Worker) Prune(ctx context.Context, before time.Time) (int, error) {
	if before.IsZero() {
		before = w.now().Add(-w.maxAge)
	}

	total, err := w.pruneBatches(ctx, before, w.repo.DeleteRelayedBefore)
	if err != nil || !w.prunePending {
		return total, err
	}
	pending, err := w.pruneBatches(ctx, before, w.repo.DeletePendingBefore)
	return total + pending, err
}

func (w *Worker) pruneBatches(ctx context.Context, before time.Time, deleteBatch func(time.Time, int) (int, error)) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		deleted, err := deleteBatch(before, w.batchSize)
		if err != nil {
			return total, err
		}

		total += deleted
		if deleted > 0 {
			retentionDeletedTotal.Add(float64(deleted))
		}
		if deleted < w.batchSize {
			return total, nil
		}
	}
}
