// Package consumer feeds Kafka document events into the overlap scanner.
// It is the streaming counterpart of the batch CLI: the scan worker consumes
// training documents from a topic and accumulates overlap stats until
// shutdown.
package consumer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/scanner"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/stats"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/metrics"
)

// ScanConsumer serializes scanner access between the Kafka consume loop and
// the periodic summary flusher. The scanner itself is single-writer.
type ScanConsumer struct {
	mu      sync.Mutex
	scanner *scanner.Scanner
	reg     *stats.Registry
	logger  *slog.Logger
}

// New creates a ScanConsumer around the scanner and its registry.
func New(sc *scanner.Scanner, reg *stats.Registry) *ScanConsumer {
	return &ScanConsumer{
		scanner: sc,
		reg:     reg,
		logger:  slog.Default().With("component", "scan-consumer"),
	}
}

// Handler returns a Kafka MessageHandler that decodes document events and
// scans them. Undecodable messages are logged and dropped; a bad document
// must not stall the topic.
func (c *ScanConsumer) Handler(m *metrics.Metrics) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		doc, err := kafka.DecodeJSON[corpus.Document](value)
		if err != nil {
			c.logger.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			if m != nil {
				m.KafkaMessagesTotal.WithLabelValues("decode_error").Inc()
			}
			return nil
		}
		c.mu.Lock()
		c.scanner.ScanDocument(doc.Text)
		c.mu.Unlock()
		if m != nil {
			m.KafkaMessagesTotal.WithLabelValues("ok").Inc()
		}
		c.logger.Debug("document scanned",
			"doc_id", doc.ID,
			"source", doc.Source,
			"text_size", len(doc.Text),
		)
		return nil
	}
}

// Summaries snapshots the current overlap summaries under the scan lock.
func (c *ScanConsumer) Summaries(tags []string) []stats.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg.Summaries(tags)
}
