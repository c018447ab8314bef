// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Scan, Corpus, Scenario, Output, Postgres, Kafka, Redis,
// etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	Scan     ScanConfig     `yaml:"scan"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Scenario ScenarioConfig `yaml:"scenario"`
	Output   OutputConfig   `yaml:"output"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ScanConfig controls the overlap computation itself: which n-gram lengths
// are indexed, how documents are normalized, and how many distinct matched
// n-grams are retained per entry for diagnostics.
type ScanConfig struct {
	NValues         []int    `yaml:"nValues"`
	Normalization   string   `yaml:"normalization"`
	MaxOutputNgrams int      `yaml:"maxOutputNgrams"`
	Workers         int      `yaml:"workers"`
	Tags            []string `yaml:"tags"`
}

// CorpusConfig locates the training corpus and names its on-disk format.
type CorpusConfig struct {
	Path    string `yaml:"path"`
	Format  string `yaml:"format"`
	TextKey string `yaml:"textKey"`
}

// ScenarioConfig locates the benchmark scenario data (JSON-Lines).
type ScenarioConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig holds the paths of the report artifacts. NgramsPath must be
// set exactly when Scan.MaxOutputNgrams is non-zero.
type OutputConfig struct {
	StatsPath    string `yaml:"statsPath"`
	InstancePath string `yaml:"instancePath"`
	NgramsPath   string `yaml:"ngramsPath"`
}

// PostgresConfig holds connection parameters for the optional results store.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds broker and topic settings for the scan worker, which
// consumes training documents from a topic instead of reading files.
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	ConsumerGroup string        `yaml:"consumerGroup"`
	Topics        KafkaTopics   `yaml:"topics"`
	FlushInterval time.Duration `yaml:"flushInterval"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	Documents string `yaml:"documents"`
}

// RedisConfig holds connection parameters for the optional scan checkpoint
// store, which lets a multi-file scan resume after a restart.
type RedisConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Addr          string        `yaml:"addr"`
	Password      string        `yaml:"password"`
	DB            int           `yaml:"db"`
	PoolSize      int           `yaml:"poolSize"`
	CheckpointTTL time.Duration `yaml:"checkpointTTL"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// defaultConfig returns a Config with the defaults of the overlap pipeline.
// The n-gram lengths default to 5, 9 and 13.
func defaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			NValues:         []int{5, 9, 13},
			Normalization:   "default",
			MaxOutputNgrams: 0,
			Workers:         1,
		},
		Corpus: CorpusConfig{
			Format:  "raw",
			TextKey: "text",
		},
		Postgres: PostgresConfig{
			Enabled:         false,
			Host:            "localhost",
			Port:            5432,
			Database:        "overlapplatform",
			User:            "overlapplatform",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "overlap-scanners",
			Topics: KafkaTopics{
				Documents: "training-documents",
			},
			FlushInterval: 30 * time.Second,
		},
		Redis: RedisConfig{
			Enabled:       false,
			Addr:          "localhost:6379",
			Password:      "",
			DB:            0,
			PoolSize:      10,
			CheckpointTTL: 7 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate enforces the startup rules of the scan configuration. Violations
// are fatal before any scenario or corpus data is read.
func (c *Config) Validate() error {
	switch c.Scan.Normalization {
	case "none", "default", "stemming":
	default:
		return apperrors.Newf(apperrors.ErrUnknownNormalization, "%q", c.Scan.Normalization)
	}
	if len(c.Scan.NValues) == 0 {
		return apperrors.New(apperrors.ErrInvalidNgramSize, "at least one n value is required")
	}
	for _, n := range c.Scan.NValues {
		if n <= 0 {
			return apperrors.Newf(apperrors.ErrInvalidNgramSize, "n must be positive, got %d", n)
		}
	}
	if c.Scan.MaxOutputNgrams < -1 {
		return apperrors.Newf(apperrors.ErrInvalidConfig,
			"maxOutputNgrams must be -1, 0, or positive, got %d", c.Scan.MaxOutputNgrams)
	}
	if c.Scan.MaxOutputNgrams != 0 && c.Output.NgramsPath == "" {
		return apperrors.New(apperrors.ErrInvalidConfig,
			"output.ngramsPath must be set when scan.maxOutputNgrams is non-zero")
	}
	if c.Scan.MaxOutputNgrams == 0 && c.Output.NgramsPath != "" {
		return apperrors.New(apperrors.ErrInvalidConfig,
			"scan.maxOutputNgrams must be non-zero when output.ngramsPath is set")
	}
	if c.Scan.Workers < 1 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "scan.workers must be at least 1, got %d", c.Scan.Workers)
	}
	return nil
}

// applyEnvOverrides reads ODP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ODP_SCAN_NORMALIZATION"); v != "" {
		cfg.Scan.Normalization = v
	}
	if v := os.Getenv("ODP_SCAN_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			cfg.Scan.Workers = workers
		}
	}
	if v := os.Getenv("ODP_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("ODP_CORPUS_FORMAT"); v != "" {
		cfg.Corpus.Format = v
	}
	if v := os.Getenv("ODP_SCENARIO_PATH"); v != "" {
		cfg.Scenario.Path = v
	}
	if v := os.Getenv("ODP_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("ODP_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("ODP_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("ODP_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("ODP_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("ODP_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("ODP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("ODP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("ODP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("ODP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ODP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("ODP_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
