// Command overlap computes n-gram overlap between a benchmark scenario file
// and a training corpus, writing per-scenario summary, instance detail, and
// optional matched n-gram artifacts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/index"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/report"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/scanner"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/stats"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/scenario"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/checkpoint"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	inputData := flag.String("input-data", "", "path to the training data file or directory")
	scenarioData := flag.String("scenario-data", "", "path to the benchmark scenario data (jsonl)")
	outputStats := flag.String("output-stats", "", "path of the overlap stats output file")
	outputInstances := flag.String("output-instances", "", "path of the instance detail output file (default: <output-stats>_instance)")
	inputFormat := flag.String("input-format", "", "format of the training data: raw, custom, the_pile")
	tags := flag.String("tags", "", "comma-separated provenance tags attached to every summary")
	normalization := flag.String("normalization", "", "tokenizer normalization mode: none, default, stemming")
	outputNgrams := flag.String("output-ngrams", "", "path of the matched n-gram sample file")
	maxOutputNgrams := flag.Int("max-output-ngrams", 0, "max distinct matched n-grams kept per entry (-1 for unbounded, 0 disables capture)")
	workers := flag.Int("workers", 0, "number of scan workers per file")
	runID := flag.String("run-id", "", "run identifier, used for checkpoint resume (default: random)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitConfig)
	}
	applyFlags(cfg, *inputData, *scenarioData, *outputStats, *outputInstances,
		*inputFormat, *tags, *normalization, *outputNgrams, *maxOutputNgrams, *workers)

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg, *runID); err != nil {
		slog.Error("overlap run failed", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

// applyFlags overlays non-empty command-line values onto the loaded config.
// Flags win over the config file, matching the original script's surface.
func applyFlags(cfg *config.Config, inputData, scenarioData, outputStats, outputInstances,
	inputFormat, tags, normalization, outputNgrams string, maxOutputNgrams, workers int) {
	if inputData != "" {
		cfg.Corpus.Path = inputData
	}
	if scenarioData != "" {
		cfg.Scenario.Path = scenarioData
	}
	if outputStats != "" {
		cfg.Output.StatsPath = outputStats
	}
	if outputInstances != "" {
		cfg.Output.InstancePath = outputInstances
	}
	if inputFormat != "" {
		cfg.Corpus.Format = inputFormat
	}
	if tags != "" {
		cfg.Scan.Tags = strings.Split(tags, ",")
	}
	if normalization != "" {
		cfg.Scan.Normalization = normalization
	}
	if outputNgrams != "" {
		cfg.Output.NgramsPath = outputNgrams
	}
	if maxOutputNgrams != 0 {
		cfg.Scan.MaxOutputNgrams = maxOutputNgrams
	}
	if workers != 0 {
		cfg.Scan.Workers = workers
	}
}

func run(cfg *config.Config, runID string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := corpus.CheckFormat(cfg.Corpus.Format); err != nil {
		return err
	}
	if cfg.Corpus.Path == "" {
		return apperrors.New(apperrors.ErrInvalidConfig, "corpus path is required")
	}
	if cfg.Scenario.Path == "" {
		return apperrors.New(apperrors.ErrInvalidConfig, "scenario path is required")
	}
	if cfg.Output.StatsPath == "" {
		return apperrors.New(apperrors.ErrInvalidConfig, "output stats path is required")
	}
	if cfg.Output.InstancePath == "" {
		cfg.Output.InstancePath = cfg.Output.StatsPath + "_instance"
	}

	tok, err := tokenizer.New(cfg.Scan.Normalization)
	if err != nil {
		return err
	}

	if runID == "" {
		runID = uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithRunID(ctx, runID)
	ctx, trace := tracing.NewRun(ctx, runID)
	log := logger.FromContext(ctx)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	log.Info("starting overlap run",
		"corpus", cfg.Corpus.Path,
		"format", cfg.Corpus.Format,
		"scenario", cfg.Scenario.Path,
		"n_values", cfg.Scan.NValues,
		"normalization", cfg.Scan.Normalization,
		"workers", cfg.Scan.Workers,
	)

	phase, end := trace.StartPhase("load-scenarios")
	scenarios, err := scenario.LoadJSONL(cfg.Scenario.Path)
	if err != nil {
		return err
	}
	phase.SetAttr("scenarios", len(scenarios))
	end()

	phase, end = trace.StartPhase("build-index")
	buildStart := time.Now()
	reg := stats.NewRegistry()
	ix, err := index.Build(scenarios, cfg.Scan.NValues, tok, reg)
	if err != nil {
		return err
	}
	if m != nil {
		m.IndexBuildDuration.Observe(time.Since(buildStart).Seconds())
		for _, n := range ix.NValues() {
			m.IndexNgramCount.WithLabelValues(fmt.Sprint(n)).Set(float64(ix.NgramCount(n)))
		}
	}
	for _, n := range ix.NValues() {
		phase.SetAttr(fmt.Sprintf("ngrams_n%d", n), ix.NgramCount(n))
	}
	end()

	var counter *stats.Counter
	if cfg.Scan.MaxOutputNgrams != 0 {
		counter, err = stats.NewCounter(cfg.Scan.MaxOutputNgrams)
		if err != nil {
			return err
		}
		if cfg.Scan.MaxOutputNgrams == stats.Unbounded {
			log.Warn("unbounded ngram capture enabled; memory use grows with every distinct matched ngram")
		}
	}

	sc, err := scanner.New(ix, reg, tok, counter, m)
	if err != nil {
		return err
	}

	var ckpt *checkpoint.Store
	if cfg.Redis.Enabled {
		ckpt, err = checkpoint.New(cfg.Redis)
		if err != nil {
			return fmt.Errorf("connecting checkpoint store: %w", err)
		}
		defer ckpt.Close()
	}

	phase, end = trace.StartPhase("scan-corpus")
	files, err := corpus.Expand(cfg.Corpus.Path)
	if err != nil {
		return err
	}
	scanned, skipped, err := scanFiles(ctx, cfg, sc, ckpt, runID, files, m)
	phase.SetAttr("files_scanned", scanned)
	phase.SetAttr("files_skipped", skipped)
	end()
	if err != nil {
		return err
	}

	phase, end = trace.StartPhase("write-reports")
	if err := writeReports(ctx, cfg, runID, reg, ix, counter); err != nil {
		return err
	}
	end()

	trace.Summary()
	return nil
}

func scanFiles(ctx context.Context, cfg *config.Config, sc *scanner.Scanner,
	ckpt *checkpoint.Store, runID string, files []string, m *metrics.Metrics) (scanned, skipped int, err error) {
	log := logger.FromContext(ctx)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return scanned, skipped, apperrors.Newf(apperrors.ErrScanAborted, "%v", err)
		}
		if ckpt != nil {
			done, err := ckpt.IsDone(ctx, runID, file)
			if err != nil {
				return scanned, skipped, err
			}
			if done {
				skipped++
				if m != nil {
					m.FilesScannedTotal.WithLabelValues("skipped").Inc()
				}
				log.Info("skipping checkpointed file", "file", file)
				continue
			}
		}

		src, err := corpus.Open(file, cfg.Corpus.Format, cfg.Corpus.TextKey)
		if err != nil {
			return scanned, skipped, err
		}
		start := time.Now()
		scanErr := sc.ScanParallel(ctx, src, cfg.Scan.Workers)
		closeErr := src.Close()
		if scanErr != nil {
			if m != nil {
				m.FilesScannedTotal.WithLabelValues("error").Inc()
			}
			return scanned, skipped, scanErr
		}
		if closeErr != nil {
			log.Warn("closing corpus file", "file", file, "error", closeErr)
		}
		if m != nil {
			m.FilesScannedTotal.WithLabelValues("ok").Inc()
			m.ScanDuration.Observe(time.Since(start).Seconds())
		}
		scanned++
		log.Info("file scanned", "file", file, "duration", time.Since(start).Round(time.Millisecond))

		if ckpt != nil {
			if err := ckpt.MarkDone(ctx, runID, file); err != nil {
				return scanned, skipped, err
			}
		}
	}
	return scanned, skipped, nil
}

func writeReports(ctx context.Context, cfg *config.Config, runID string,
	reg *stats.Registry, ix *index.Index, counter *stats.Counter) error {
	log := logger.FromContext(ctx)
	tags := cfg.Scan.Tags

	if err := writeFile(cfg.Output.StatsPath, func(f *os.File) error {
		return report.WriteSummaries(f, reg, tags)
	}); err != nil {
		return err
	}
	log.Info("summaries written", "path", cfg.Output.StatsPath, "records", len(reg.Records()))

	if err := writeFile(cfg.Output.InstancePath, func(f *os.File) error {
		return report.WriteInstanceDetail(f, ix, reg)
	}); err != nil {
		return err
	}
	log.Info("instance detail written", "path", cfg.Output.InstancePath)

	if counter != nil {
		if err := writeFile(cfg.Output.NgramsPath, func(f *os.File) error {
			return report.WriteNgramSamples(f, counter, reg)
		}); err != nil {
			return err
		}
		log.Info("ngram samples written", "path", cfg.Output.NgramsPath)
	} else {
		log.Info("ngram capture disabled; no sample artifact written")
	}

	if cfg.Postgres.Enabled {
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting results store: %w", err)
		}
		defer client.Close()
		store := report.NewStore(client)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := store.SaveSummaries(ctx, runID, reg.Summaries(tags)); err != nil {
			return err
		}
		log.Info("summaries saved to results store", "run_id", runID)
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file %s: %w", path, err)
	}
	return nil
}
