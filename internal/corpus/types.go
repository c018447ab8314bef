package corpus

import "time"

// Document is the Kafka message payload carrying one training document to
// the scan worker. Produced by the corpusfeed tool.
type Document struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Source   string    `json:"source,omitempty"`
	QueuedAt time.Time `json:"queued_at"`
}
