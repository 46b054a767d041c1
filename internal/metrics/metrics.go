package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы операций для label "outcome".
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
	OutcomeInvalid  = "invalid"
)

// ConsoleMetrics содержит метрики клиента API и действий оператора.
type ConsoleMetrics struct {
	// Вызовы REST-бэкенда
	apiRequests *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec

	// Действия на страницах консоли
	actions *prometheus.CounterVec

	// Журнал активности
	activityRecorded prometheus.Counter
	inFlightRequests prometheus.Gauge
}

// NewConsoleMetrics создаёт метрики в глобальном реестре Prometheus.
func NewConsoleMetrics() *ConsoleMetrics {
	return NewConsoleMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewConsoleMetricsWithRegisterer создаёт метрики в переданном реестре (удобно для тестов).
func NewConsoleMetricsWithRegisterer(registerer prometheus.Registerer) *ConsoleMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ConsoleMetrics{
		apiRequests: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "order_console_api_requests_total",
			Help: "Total number of backend API requests grouped by operation and outcome",
		}, []string{"operation", "outcome"}),
		apiDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "order_console_api_request_duration_seconds",
			Help:    "Duration of backend API requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"operation"}),
		actions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "order_console_actions_total",
			Help: "Total number of operator actions grouped by action and outcome",
		}, []string{"action", "outcome"}),
		activityRecorded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "order_console_activity_recorded_total",
			Help: "Total number of activity events written to the outbox",
		}),
		inFlightRequests: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "order_console_api_in_flight_requests",
			Help: "Number of backend API requests currently in flight",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// ObserveAPIRequest фиксирует исход и длительность вызова бэкенда.
// Безопасен для nil-получателя, чтобы клиент API работал без метрик.
func (m *ConsoleMetrics) ObserveAPIRequest(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.apiRequests.WithLabelValues(operation, outcome).Inc()
	m.apiDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// APIRequestStarted увеличивает число активных запросов.
func (m *ConsoleMetrics) APIRequestStarted() {
	if m == nil {
		return
	}
	m.inFlightRequests.Inc()
}

// APIRequestFinished уменьшает число активных запросов.
func (m *ConsoleMetrics) APIRequestFinished() {
	if m == nil {
		return
	}
	m.inFlightRequests.Dec()
}

// RecordAction увеличивает счётчик действий оператора.
func (m *ConsoleMetrics) RecordAction(action, outcome string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, outcome).Inc()
}

// RecordActivity увеличивает счётчик событий журнала.
func (m *ConsoleMetrics) RecordActivity() {
	if m == nil {
		return
	}
	m.activityRecorded.Inc()
}
