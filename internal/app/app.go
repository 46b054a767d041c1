package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/order-console/internal/health"
	"github.com/vladislavdragonenkov/order-console/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/order-console/internal/service/outbox"
	"github.com/vladislavdragonenkov/order-console/internal/service/retention"
	"github.com/vladislavdragonenkov/order-console/internal/version"
	"github.com/vladislavdragonenkov/order-console/internal/web"
)

const shutdownTimeout = 5 * time.Second

// Run поднимает веб-консоль, сервер метрик и фоновые воркеры журнала активности
// и блокируется до отмены ctx или ошибки HTTP-сервера.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := log.WithField("component", "app")

	runtimeDeps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := runtimeDeps.closeFn(); closeErr != nil {
			logger.WithError(closeErr).Warn("failed to close storage")
		}
	}()

	deps, err := NewDependencies(cfg, runtimeDeps.journal, prometheus.DefaultRegisterer, logger)
	if err != nil {
		return err
	}

	// Kafka опциональна: без неё события остаются pending, пока их не удалит retention по RetentionMaxAge.
	var (
		kafkaProducer *kafka.Producer
		relay         *outbox.Worker
	)
	if producer, err := initKafkaProducer(cfg.KafkaBrokers, logger); err == nil && producer != nil {
		kafkaProducer = producer
		relay = newActivityRelay(cfg, runtimeDeps.journal, producer, logger)
	}

	workersCtx, cancelWorkers := context.WithCancel(ctx)
	var relayDone <-chan struct{}
	if relay != nil {
		relayDone = startWorker(workersCtx, relay)
	}
	retentionWorker := retention.NewWorker(
		runtimeDeps.journal,
		retention.WithLogger(logger.WithField("component", "retention-worker")),
		retention.WithInterval(cfg.RetentionInterval),
		retention.WithMaxAge(cfg.RetentionMaxAge),
		retention.WithBatchSize(cfg.RetentionBatchSize),
		retention.WithPendingPruning(relay == nil),
	)
	retentionDone := startWorker(workersCtx, retentionWorker)

	webCfg := web.Config{
		Orders:        deps.API,
		Products:      deps.API,
		Activity:      deps.Recorder,
		Journal:       runtimeDeps.journal,
		Metrics:       deps.Metrics,
		Logger:        logger.WithField("component", "web"),
		RedirectDelay: cfg.RedirectDelay,
	}
	if relay != nil {
		webCfg.Relay = relay
	}
	consoleServer, err := web.NewServer(webCfg)
	if err != nil {
		cancelWorkers()
		return err
	}

	healthHandler := newHealthHandler(deps.API.Ping, runtimeDeps.storageChecker)
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	lis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		cancelWorkers()
		shutdownHTTP(metricsSrv, logger)
		return err
	}
	httpSrv := &http.Server{
		Handler:           consoleServer.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("консоль доступна по адресу %s", lis.Addr())
		errCh <- httpSrv.Serve(lis)
	}()

	stop := func() {
		shutdownHTTP(httpSrv, logger)
		shutdownWorker(cancelWorkers, relayDone, logger)
		shutdownWorker(cancelWorkers, retentionDone, logger)
		closeKafkaProducer(kafkaProducer, logger)
		shutdownHTTP(metricsSrv, logger)
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем консоль")
		stop()
		return ctx.Err()
	case err := <-errCh:
		stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type runner interface {
	Run(ctx context.Context)
}

// startWorker запускает воркер в горутине и возвращает канал его завершения.
func startWorker(ctx context.Context, worker runner) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()
	return done
}

// shutdownWorker отменяет контекст воркеров и ждёт завершения с таймаутом.
func shutdownWorker(cancel context.CancelFunc, done <-chan struct{}, logger *log.Entry) {
	if cancel != nil {
		cancel()
	}
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		logger.Warn("worker did not stop within timeout")
	}
}

// newHealthHandler регистрирует проверки консоли. Недоступный бэкенд понижает статус
// до degraded, сбой хранилища журнала делает консоль неготовой.
func newHealthHandler(pingBackend func(context.Context) error, storage healthcheck.Checker) *healthcheck.Handler {
	handler := healthcheck.NewHandler(version.GetVersion())
	handler.RegisterChecker("backend", healthcheck.NewSoftChecker("backend", pingBackend))
	if storage != nil {
		handler.RegisterChecker("storage", storage)
	}
	return handler
}

// metricsRoutes собирает служебные endpoints: метрики и health-проверки.
func metricsRoutes(healthHandler *healthcheck.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	return mux
}

// startMetricsServer запускает HTTP-обработчик /metrics и health-проверки.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	srv := &http.Server{Addr: addr, Handler: metricsRoutes(healthHandler), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
