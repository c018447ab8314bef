// Command scanworker runs the overlap scanner as a long-lived service: it
// builds the benchmark reverse index at startup, consumes training documents
// from Kafka, and periodically flushes overlap summaries to PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/consumer"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/index"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/report"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/scanner"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/stats"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/scenario"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	runID := flag.String("run-id", "", "run identifier for stored summaries (default: random)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitConfig)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := serve(cfg, *runID); err != nil {
		slog.Error("scan worker failed", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func serve(cfg *config.Config, runID string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Scenario.Path == "" {
		return apperrors.New(apperrors.ErrInvalidConfig, "scenario path is required")
	}
	if !cfg.Postgres.Enabled {
		return apperrors.New(apperrors.ErrInvalidConfig, "scan worker requires the postgres results store")
	}
	if runID == "" {
		runID = uuid.NewString()
	}

	tok, err := tokenizer.New(cfg.Scan.Normalization)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.WithComponent("scanworker").With("run_id", runID)

	m := metrics.New()

	log.Info("loading benchmark scenarios", "path", cfg.Scenario.Path)
	scenarios, err := scenario.LoadJSONL(cfg.Scenario.Path)
	if err != nil {
		return err
	}

	buildStart := time.Now()
	reg := stats.NewRegistry()
	ix, err := index.Build(scenarios, cfg.Scan.NValues, tok, reg)
	if err != nil {
		return err
	}
	m.IndexBuildDuration.Observe(time.Since(buildStart).Seconds())
	for _, n := range ix.NValues() {
		m.IndexNgramCount.WithLabelValues(fmt.Sprint(n)).Set(float64(ix.NgramCount(n)))
		log.Info("index built", "n", n, "distinct_ngrams", ix.NgramCount(n))
	}

	var counter *stats.Counter
	if cfg.Scan.MaxOutputNgrams != 0 {
		counter, err = stats.NewCounter(cfg.Scan.MaxOutputNgrams)
		if err != nil {
			return err
		}
	}

	sc, err := scanner.New(ix, reg, tok, counter, m)
	if err != nil {
		return err
	}

	pg, err := postgres.New(cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connecting results store: %w", err)
	}
	defer pg.Close()
	store := report.NewStore(pg)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	scanConsumer := consumer.New(sc, reg)

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := store.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	if cfg.Metrics.Enabled {
		shutdown := startServing(cfg.Metrics.Port, checker)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	flusher := startFlusher(ctx, cfg.Kafka.FlushInterval, func(flushCtx context.Context) {
		if err := flushSummaries(flushCtx, store, scanConsumer, runID, cfg.Scan.Tags, m); err != nil {
			log.Error("periodic summary flush failed", "error", err)
		}
	})

	kafkaConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.Documents, scanConsumer.Handler(m))
	log.Info("scan worker ready, consuming documents",
		"topic", cfg.Kafka.Topics.Documents,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := kafkaConsumer.Start(ctx); err != nil {
		log.Error("consumer error", "error", err)
	}

	<-flusher

	log.Info("flushing summaries before shutdown")
	flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := flushSummaries(flushCtx, store, scanConsumer, runID, cfg.Scan.Tags, m); err != nil {
		return err
	}

	log.Info("scan worker stopped")
	return nil
}

// startFlusher runs flush on every tick until ctx is cancelled, then closes
// the returned channel.
func startFlusher(ctx context.Context, interval time.Duration, flush func(context.Context)) <-chan struct{} {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				flush(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return done
}

func flushSummaries(ctx context.Context, store *report.Store, sc *consumer.ScanConsumer,
	runID string, tags []string, m *metrics.Metrics) error {
	summaries := sc.Summaries(tags) // consistent snapshot under the scan lock
	if err := store.SaveSummaries(ctx, runID, summaries); err != nil {
		m.SummaryFlushesTotal.WithLabelValues("error").Inc()
		return err
	}
	m.SummaryFlushesTotal.WithLabelValues("ok").Inc()
	return nil
}

// startServing exposes metrics and health endpoints on one port.
func startServing(port int, checker *health.Checker) func(context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", checker.LiveHandler())
	mux.HandleFunc("/readyz", checker.ReadyHandler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("worker http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker http server error", "error", err)
		}
	}()
	return server.Shutdown
}
