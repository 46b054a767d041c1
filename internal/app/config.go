package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/order-console/internal/messaging/kafka"
)

// EnvPrefix — префикс переменных окружения консоли.
const EnvPrefix = "ORDER_CONSOLE_"

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска консоли.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	APIBaseURL    string
	APITimeout    time.Duration
	RedirectDelay time.Duration

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	KafkaBrokers  []string
	KafkaTopic    string
	KafkaDLQTopic string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration

	RetentionInterval  time.Duration
	RetentionMaxAge    time.Duration
	RetentionBatchSize int
}

// DefaultConfig возвращает настройки по умолчанию. APIBaseURL не имеет значения по умолчанию.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		MetricsAddr:         ":9090",
		APITimeout:          10 * time.Second,
		RedirectDelay:       1500 * time.Millisecond,
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		KafkaTopic:          kafka.TopicActivity,
		KafkaDLQTopic:       kafka.TopicActivityDLQ,
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    200 * time.Millisecond,
		RetentionInterval:   time.Hour,
		RetentionMaxAge:     7 * 24 * time.Hour,
		RetentionBatchSize:  500,
	}
}

// LoadConfigFromEnv читает DefaultConfig и переопределяет его переменными ORDER_CONSOLE_*.
// Результат проверяется Validate.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	env := envReader{lookup: os.LookupEnv}

	env.str("HTTP_ADDR", &cfg.HTTPAddr)
	env.str("METRICS_ADDR", &cfg.MetricsAddr)
	env.str("API_BASE_URL", &cfg.APIBaseURL)
	env.duration("API_TIMEOUT", &cfg.APITimeout)
	env.duration("REDIRECT_DELAY", &cfg.RedirectDelay)

	env.str("STORAGE_DRIVER", &cfg.StorageDriver)
	env.str("POSTGRES_DSN", &cfg.PostgresDSN)
	env.boolean("POSTGRES_AUTO_MIGRATE", &cfg.PostgresAutoMigrate)

	env.list("KAFKA_BROKERS", &cfg.KafkaBrokers)
	env.str("KAFKA_TOPIC", &cfg.KafkaTopic)
	env.str("KAFKA_DLQ_TOPIC", &cfg.KafkaDLQTopic)

	env.duration("OUTBOX_POLL_INTERVAL", &cfg.OutboxPollInterval)
	env.integer("OUTBOX_BATCH_SIZE", &cfg.OutboxBatchSize)
	env.integer("OUTBOX_MAX_ATTEMPTS", &cfg.OutboxMaxAttempts)
	env.duration("OUTBOX_RETRY_DELAY", &cfg.OutboxRetryDelay)

	env.duration("RETENTION_INTERVAL", &cfg.RetentionInterval)
	env.duration("RETENTION_MAX_AGE", &cfg.RetentionMaxAge)
	env.integer("RETENTION_BATCH_SIZE", &cfg.RetentionBatchSize)

	if len(env.errs) > 0 {
		return Config{}, errors.Join(env.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет конфигурацию до запуска чего-либо.
func (c Config) Validate() error {
	var errs []error

	raw := strings.TrimSpace(c.APIBaseURL)
	if raw == "" {
		errs = append(errs, fmt.Errorf("%sAPI_BASE_URL is required", EnvPrefix))
	} else if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("%sAPI_BASE_URL must be an absolute http(s) url, got %q", EnvPrefix, raw))
	}

	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, fmt.Errorf("%sPOSTGRES_DSN is required for postgres storage", EnvPrefix))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}

	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http addr is required"))
	}
	if c.APITimeout <= 0 {
		errs = append(errs, errors.New("api timeout must be positive"))
	}
	if c.OutboxPollInterval <= 0 {
		errs = append(errs, errors.New("outbox poll interval must be positive"))
	}
	if c.OutboxBatchSize <= 0 {
		errs = append(errs, errors.New("outbox batch size must be positive"))
	}
	if c.OutboxMaxAttempts <= 0 {
		errs = append(errs, errors.New("outbox max attempts must be positive"))
	}
	if c.OutboxRetryDelay < 0 {
		errs = append(errs, errors.New("outbox retry delay must not be negative"))
	}
	if c.RetentionInterval <= 0 || c.RetentionMaxAge <= 0 {
		errs = append(errs, errors.New("retention interval and max age must be positive"))
	}
	if c.RetentionBatchSize <= 0 {
		errs = append(errs, errors.New("retention batch size must be positive"))
	}
	if len(c.KafkaBrokers) > 0 && (c.KafkaTopic == "" || c.KafkaDLQTopic == "") {
		errs = append(errs, errors.New("kafka topics must be set when brokers are configured"))
	}

	return errors.Join(errs...)
}

// KafkaEnabled сообщает, настроен ли брокер для relay активности.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) value(name string) (string, bool) {
	v, ok := e.lookup(EnvPrefix + name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.value(name); ok {
		*dst = v
	}
}

func (e *envReader) list(name string, dst *[]string) {
	v, ok := e.value(name)
	if !ok {
		return
	}
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}

func (e *envReader) duration(name string, dst *time.Duration) {
	v, ok := e.value(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return
	}
	*dst = d
}

func (e *envReader) integer(name string, dst *int) {
	v, ok := e.value(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return
	}
	*dst = n
}

func (e *envReader) boolean(name string, dst *bool) {
	v, ok := e.value(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return
	}
	*dst = b
}
