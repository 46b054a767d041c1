package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-console/internal/app"
	"github.com/vladislavdragonenkov/order-console/internal/version"
)

const envLogLevel = app.EnvPrefix + "LOG_LEVEL"

// setupLogger настраивает формат и уровень логирования консоли.
func setupLogger(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(parseLogLevel(level))
}

// parseLogLevel возвращает info для пустого или неизвестного уровня.
func parseLogLevel(raw string) log.Level {
	level, err := log.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

func main() {
	setupLogger(os.Getenv(envLogLevel))

	cfg, err := app.LoadConfigFromEnv()
	if err != nil {
		log.WithError(err).Fatal("некорректная конфигурация")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":    cfg.HTTPAddr,
		"metrics_addr": cfg.MetricsAddr,
		"api_base_url": cfg.APIBaseURL,
		"storage":      cfg.StorageDriver,
		"kafka":        cfg.KafkaEnabled(),
		"version":      version.String(),
	}).Info("запускаем консоль заказов")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("консоль заказов остановлена")
}
