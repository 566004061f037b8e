package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Поддерживаемые драйверы хранилища заказов.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска приложения. Все значения можно
// переопределить переменными окружения с префиксом ORDERFLOW_.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	// KafkaBrokers — список брокеров через запятую. Пустое значение
	// включает внутрипроцессную шину (demo-режим и тесты).
	KafkaBrokers string

	// Адреса внешних авторитетов. Пустые значения включают статический
	// справочник с demo-данными.
	UserServiceURL    string
	ProductServiceURL string
	ValidationTimeout time.Duration

	ReconcilerEnabled bool
	// DuplicateGuard включает подавление повторных доставок по orderId.
	// По умолчанию выключен: повторная доставка списывает запас ещё раз.
	DuplicateGuard bool

	RepublishPollInterval time.Duration
	RepublishBatchSize    int
	RepublishMaxAttempts  int

	CleanupInterval  time.Duration
	CleanupRetention time.Duration

	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает конфигурацию demo-режима: хранилище в памяти,
// внутрипроцессная шина, статические справочники.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",

		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,

		ValidationTimeout: 5 * time.Second,

		ReconcilerEnabled: true,
		DuplicateGuard:    false,

		RepublishPollInterval: time.Second,
		RepublishBatchSize:    100,
		RepublishMaxAttempts:  3,

		CleanupInterval:  10 * time.Minute,
		CleanupRetention: 24 * time.Hour,

		ShutdownTimeout: 5 * time.Second,
	}
}

// ReadConfig читает конфигурацию из окружения поверх значений по умолчанию.
func ReadConfig() Config {
	cfg := DefaultConfig()

	cfg.HTTPAddr = envString("ORDERFLOW_HTTP_ADDR", cfg.HTTPAddr)
	cfg.MetricsAddr = envString("ORDERFLOW_METRICS_ADDR", cfg.MetricsAddr)

	cfg.StorageDriver = envString("ORDERFLOW_STORAGE_DRIVER", cfg.StorageDriver)
	cfg.PostgresDSN = envString("ORDERFLOW_POSTGRES_DSN", cfg.PostgresDSN)
	cfg.PostgresAutoMigrate = envBool("ORDERFLOW_POSTGRES_AUTO_MIGRATE", cfg.PostgresAutoMigrate)

	cfg.KafkaBrokers = envString("ORDERFLOW_KAFKA_BROKERS", cfg.KafkaBrokers)

	cfg.UserServiceURL = envString("ORDERFLOW_USER_SERVICE_URL", cfg.UserServiceURL)
	cfg.ProductServiceURL = envString("ORDERFLOW_PRODUCT_SERVICE_URL", cfg.ProductServiceURL)
	cfg.ValidationTimeout = envDuration("ORDERFLOW_VALIDATION_TIMEOUT", cfg.ValidationTimeout)

	cfg.ReconcilerEnabled = envBool("ORDERFLOW_RECONCILER_ENABLED", cfg.ReconcilerEnabled)
	cfg.DuplicateGuard = envBool("ORDERFLOW_DUPLICATE_GUARD", cfg.DuplicateGuard)

	cfg.RepublishPollInterval = envDuration("ORDERFLOW_REPUBLISH_POLL_INTERVAL", cfg.RepublishPollInterval)
	cfg.RepublishBatchSize = envInt("ORDERFLOW_REPUBLISH_BATCH_SIZE", cfg.RepublishBatchSize)
	cfg.RepublishMaxAttempts = envInt("ORDERFLOW_REPUBLISH_MAX_ATTEMPTS", cfg.RepublishMaxAttempts)

	cfg.CleanupInterval = envDuration("ORDERFLOW_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.CleanupRetention = envDuration("ORDERFLOW_CLEANUP_RETENTION", cfg.CleanupRetention)

	cfg.ShutdownTimeout = envDuration("ORDERFLOW_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	return cfg
}

// Validate проверяет согласованность конфигурации до запуска.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("storage driver %q requires ORDERFLOW_POSTGRES_DSN", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}

	if c.HTTPAddr == "" {
		return fmt.Errorf("http listen address is empty")
	}
	return nil
}

// Brokers возвращает список Kafka-брокеров из значения через запятую.
func (c Config) Brokers() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		log.WithField("key", key).WithError(err).Warn("invalid boolean in environment, using default")
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		log.WithField("key", key).WithError(err).Warn("invalid integer in environment, using default")
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		log.WithField("key", key).WithError(err).Warn("invalid duration in environment, using default")
		return fallback
	}
	return parsed
}
