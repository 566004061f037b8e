package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orderflow/internal/service/republish"
	"github.com/vladislavdragonenkov/orderflow/internal/storage/postgres"
)

const defaultRunTimeout = 60 * time.Second

// config описывает параметры одноразового прогона журнала
// неопубликованных событий.
type config struct {
	dsn         string
	brokers     []string
	batchSize   int
	maxAttempts int
	dryRun      bool
	timeout     time.Duration
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	cfg, err := readConfig(os.Args[1:])
	if err != nil {
		fail("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		fail("republish failed: %v", err)
	}
}

func readConfig(args []string) (config, error) {
	var (
		cfg        config
		brokersRaw string
	)

	flags := flag.NewFlagSet("republish", flag.ContinueOnError)
	flags.StringVar(&cfg.dsn, "dsn", "", "PostgreSQL DSN (fallback: ORDERFLOW_POSTGRES_DSN)")
	flags.StringVar(&brokersRaw, "brokers", "", "Kafka brokers as comma-separated list (fallback: ORDERFLOW_KAFKA_BROKERS)")
	flags.IntVar(&cfg.batchSize, "batch-size", 100, "max number of journal records per pull")
	flags.IntVar(&cfg.maxAttempts, "max-attempts", 3, "publish attempts per record")
	flags.BoolVar(&cfg.dryRun, "dry-run", false, "print journal backlog without publishing")
	flags.DurationVar(&cfg.timeout, "timeout", defaultRunTimeout, "overall run timeout")
	if err := flags.Parse(args); err != nil {
		return config{}, err
	}

	if strings.TrimSpace(cfg.dsn) == "" {
		cfg.dsn = strings.TrimSpace(os.Getenv("ORDERFLOW_POSTGRES_DSN"))
	}
	if cfg.dsn == "" {
		return config{}, fmt.Errorf("ORDERFLOW_POSTGRES_DSN (or -dsn) is required")
	}

	if strings.TrimSpace(brokersRaw) == "" {
		brokersRaw = os.Getenv("ORDERFLOW_KAFKA_BROKERS")
	}
	cfg.brokers = parseBrokers(brokersRaw)
	if !cfg.dryRun && len(cfg.brokers) == 0 {
		return config{}, fmt.Errorf("kafka brokers are required (-brokers or ORDERFLOW_KAFKA_BROKERS)")
	}

	if cfg.batchSize <= 0 {
		return config{}, fmt.Errorf("batch-size must be > 0")
	}
	if cfg.maxAttempts <= 0 {
		return config{}, fmt.Errorf("max-attempts must be > 0")
	}
	if cfg.timeout <= 0 {
		return config{}, fmt.Errorf("timeout must be > 0")
	}

	return cfg, nil
}

func parseBrokers(raw string) []string {
	chunks := strings.Split(raw, ",")
	brokers := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if broker := strings.TrimSpace(chunk); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func run(ctx context.Context, cfg config) error {
	store, err := postgres.Open(ctx, cfg.dsn)
	if err != nil {
		return fmt.Errorf("open postgres store: %w", err)
	}
	defer func() { _ = store.Close() }()

	journal := postgres.NewFailedEventRepository(store)

	stats, err := journal.Stats()
	if err != nil {
		return fmt.Errorf("read journal stats: %w", err)
	}
	log.WithFields(log.Fields{
		"pending":        stats.PendingCount,
		"oldest_pending": stats.OldestPendingAt,
	}).Info("journal backlog")

	if cfg.dryRun || stats.PendingCount == 0 {
		return nil
	}

	producer, err := kafka.NewProducer(cfg.brokers)
	if err != nil {
		return fmt.Errorf("create kafka producer: %w", err)
	}
	defer func() { _ = producer.Close() }()

	worker := republish.NewWorker(
		journal,
		producer,
		republish.WithLogger(log.WithField("component", "republish")),
		republish.WithBatchSize(cfg.batchSize),
		republish.WithMaxAttempts(cfg.maxAttempts),
	)
	worker.ProcessOnce(ctx)

	after, err := journal.Stats()
	if err != nil {
		return fmt.Errorf("read journal stats: %w", err)
	}
	log.WithField("pending", after.PendingCount).Info("republish finished")
	return nil
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
