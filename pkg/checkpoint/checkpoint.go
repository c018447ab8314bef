// Package checkpoint records which corpus files a scan run has fully
// processed, backed by a Redis set per run. Overlap bits are monotonic, so a
// restarted run can safely skip completed files and keep the stats it has.
package checkpoint

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/config"
)

// Store tracks completed corpus files for scan runs.
type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a Store and verifies the Redis connection with a PING.
func New(cfg config.RedisConfig) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Store{
		rdb:    rdb,
		ttl:    cfg.CheckpointTTL,
		logger: slog.Default().With("component", "checkpoint"),
	}, nil
}

func runSetKey(runID string) string {
	return "overlap:checkpoint:" + runID
}

// IsDone reports whether the given corpus file was already completed by this
// run.
func (s *Store) IsDone(ctx context.Context, runID, file string) (bool, error) {
	done, err := s.rdb.SIsMember(ctx, runSetKey(runID), file).Result()
	if err != nil {
		return false, fmt.Errorf("checking checkpoint for %s: %w", file, err)
	}
	return done, nil
}

// MarkDone records the given corpus file as completed and refreshes the
// run's TTL.
func (s *Store) MarkDone(ctx context.Context, runID, file string) error {
	key := runSetKey(runID)
	if err := s.rdb.SAdd(ctx, key, file).Err(); err != nil {
		return fmt.Errorf("recording checkpoint for %s: %w", file, err)
	}
	if s.ttl > 0 {
		if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
			return fmt.Errorf("refreshing checkpoint ttl: %w", err)
		}
	}
	s.logger.Debug("file checkpointed", "run_id", runID, "file", file)
	return nil
}

// DoneCount returns the number of files the run has completed so far.
func (s *Store) DoneCount(ctx context.Context, runID string) (int64, error) {
	count, err := s.rdb.SCard(ctx, runSetKey(runID)).Result()
	if err != nil {
		return 0, fmt.Errorf("counting checkpoints: %w", err)
	}
	return count, nil
}

// Clear removes all checkpoints for the run.
func (s *Store) Clear(ctx context.Context, runID string) error {
	if err := s.rdb.Del(ctx, runSetKey(runID)).Err(); err != nil {
		return fmt.Errorf("clearing checkpoints: %w", err)
	}
	return nil
}

// Ping sends a PING to Redis and returns any error.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}
