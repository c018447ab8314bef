// Command corpusfeed reads a training corpus from disk and publishes each
// document to the scan worker's Kafka topic. It lets one corpus be fanned
// out to scan workers instead of being scanned in-process.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	inputData := flag.String("input-data", "", "path to the training data file or directory")
	inputFormat := flag.String("input-format", "", "format of the training data: raw, custom, the_pile")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitConfig)
	}
	if *inputData != "" {
		cfg.Corpus.Path = *inputData
	}
	if *inputFormat != "" {
		cfg.Corpus.Format = *inputFormat
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := feed(cfg); err != nil {
		slog.Error("corpus feed failed", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func feed(cfg *config.Config) error {
	if cfg.Corpus.Path == "" {
		return apperrors.New(apperrors.ErrInvalidConfig, "corpus path is required")
	}
	if err := corpus.CheckFormat(cfg.Corpus.Format); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.WithComponent("corpusfeed")

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Documents)
	defer producer.Close()

	files, err := corpus.Expand(cfg.Corpus.Path)
	if err != nil {
		return err
	}
	log.Info("feeding corpus", "files", len(files), "topic", cfg.Kafka.Topics.Documents)

	published := 0
	for _, file := range files {
		src, err := corpus.Open(file, cfg.Corpus.Format, cfg.Corpus.TextKey)
		if err != nil {
			return err
		}
		count, err := publishFile(ctx, producer, src, file)
		src.Close()
		published += count
		if err != nil {
			return err
		}
		log.Info("file published", "file", file, "documents", count)
	}

	log.Info("corpus feed complete", "documents", published)
	return nil
}

func publishFile(ctx context.Context, producer *kafka.Producer, src corpus.Source, file string) (int, error) {
	count := 0
	for {
		text, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		doc := corpus.Document{
			ID:       uuid.NewString(),
			Text:     text,
			Source:   file,
			QueuedAt: time.Now().UTC(),
		}
		if err := producer.Publish(ctx, doc.ID, doc); err != nil {
			return count, err
		}
		count++
	}
}
