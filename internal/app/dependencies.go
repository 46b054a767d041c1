package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-console/internal/api"
	"github.com/vladislavdragonenkov/order-console/internal/domain"
	"github.com/vladislavdragonenkov/order-console/internal/metrics"
	"github.com/vladislavdragonenkov/order-console/internal/service/activity"
)

// Dependencies содержит клиентов и сервисы, общие для веб-консоли и воркеров.
type Dependencies struct {
	API      *api.Client
	Metrics  *metrics.ConsoleMetrics
	Recorder *activity.Recorder
	Journal  domain.ActivityRepository
	Logger   *log.Entry
}

// NewDependencies создаёт клиента бэкенда и регистратор активности поверх журнала.
func NewDependencies(cfg Config, journal domain.ActivityRepository, registerer prometheus.Registerer, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	consoleMetrics := metrics.NewConsoleMetricsWithRegisterer(registerer)
	client, err := api.NewClient(api.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Logger:  logger.WithField("component", "api-client"),
		Metrics: consoleMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	return &Dependencies{
		API:      client,
		Metrics:  consoleMetrics,
		Recorder: activity.NewRecorder(journal, consoleMetrics, logger.WithField("component", "activity-recorder")),
		Journal:  journal,
		Logger:   logger,
	}, nil
}
