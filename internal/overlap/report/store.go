package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/stats"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/resilience"
)

const saveTimeout = 30 * time.Second

// Store persists overlap summaries to PostgreSQL so long-running scan
// workers survive restarts and results are queryable across runs.
type Store struct {
	client *postgres.Client
	logger *slog.Logger
}

// NewStore wraps a Postgres client.
func NewStore(client *postgres.Client) *Store {
	return &Store{
		client: client,
		logger: slog.Default().With("component", "summary-store"),
	}
}

// EnsureSchema creates the summaries table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.client.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS overlap_summaries (
			run_id                     TEXT        NOT NULL,
			scenario_key               TEXT        NOT NULL,
			n                          INT         NOT NULL,
			scenario                   JSONB       NOT NULL,
			num_instances              INT         NOT NULL,
			num_overlapping_inputs     BIGINT      NOT NULL,
			num_overlapping_references BIGINT      NOT NULL,
			tags                       TEXT[]      NOT NULL DEFAULT '{}',
			updated_at                 TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (run_id, scenario_key, n)
		)`)
	if err != nil {
		return fmt.Errorf("creating overlap_summaries table: %w", err)
	}
	return nil
}

// SaveSummaries upserts a summary snapshot for the run. Counts only grow
// within a run (bits are monotonic), so overwriting is always safe.
// Transient failures are retried with backoff.
func (s *Store) SaveSummaries(ctx context.Context, runID string, summaries []stats.Summary) error {
	return resilience.Retry(ctx, "save-summaries", resilience.RetryConfig{}, func() error {
		return resilience.WithTimeout(ctx, saveTimeout, func(ctx context.Context) error {
			return s.client.InTx(ctx, func(tx *sql.Tx) error {
				for _, summary := range summaries {
					scenarioJSON, err := json.Marshal(summary.Scenario)
					if err != nil {
						return fmt.Errorf("encoding scenario metadata: %w", err)
					}
					_, err = tx.ExecContext(ctx, `
						INSERT INTO overlap_summaries (
							run_id, scenario_key, n, scenario, num_instances,
							num_overlapping_inputs, num_overlapping_references, tags, updated_at
						) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
						ON CONFLICT (run_id, scenario_key, n) DO UPDATE SET
							num_overlapping_inputs = EXCLUDED.num_overlapping_inputs,
							num_overlapping_references = EXCLUDED.num_overlapping_references,
							tags = EXCLUDED.tags,
							updated_at = NOW()`,
						runID,
						summary.ScenarioFingerprint,
						summary.N,
						scenarioJSON,
						summary.NumInstances,
						summary.NumOverlappingInputs,
						summary.NumOverlappingReferences,
						pq.Array(summary.Tags),
					)
					if err != nil {
						return fmt.Errorf("upserting summary for n=%d: %w", summary.N, err)
					}
				}
				return nil
			})
		})
	})
}

// Ping verifies the store connection for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.DB.PingContext(ctx)
}
