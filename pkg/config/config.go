// Package config loads application configuration from a YAML file with
// environment-variable overrides. Every binary starts from defaultConfig,
// so a missing file section keeps its defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Source  SourceConfig  `yaml:"source"`
	Search  SearchConfig  `yaml:"search"`
	Server  ServerConfig  `yaml:"server"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// IndexConfig locates the index files and tunes the term dictionaries.
type IndexConfig struct {
	DataDir          string `yaml:"dataDir"`
	IndexFile        string `yaml:"indexFile"`
	BooleanIndexFile string `yaml:"booleanIndexFile"`
	URLFile          string `yaml:"urlFile"`
	StatsFile        string `yaml:"statsFile"`
	InitialBuckets   int    `yaml:"initialBuckets"`
	// StrictOrder makes ingestion fail on a document id lower than the
	// previous one instead of silently fragmenting postings.
	StrictOrder   bool `yaml:"strictOrder"`
	ProgressEvery int  `yaml:"progressEvery"`
}

// Path joins name onto the data directory unless it is already absolute.
func (c IndexConfig) Path(name string) string {
	if filepath.IsAbs(name) || c.DataDir == "" {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func (c IndexConfig) IndexPath() string        { return c.Path(c.IndexFile) }
func (c IndexConfig) BooleanIndexPath() string { return c.Path(c.BooleanIndexFile) }
func (c IndexConfig) URLPath() string          { return c.Path(c.URLFile) }
func (c IndexConfig) StatsPath() string        { return c.Path(c.StatsFile) }

// SourceConfig selects where documents are read from when the index has to
// be built.
type SourceConfig struct {
	Type     string         `yaml:"type"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Postgres PostgresConfig `yaml:"postgres"`
	File     FileConfig     `yaml:"file"`
	Retry    RetryConfig    `yaml:"retry"`
}

// MongoConfig holds the MongoDB collection the documents live in.
type MongoConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	Collection     string        `yaml:"collection"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	BatchSize      int32         `yaml:"batchSize"`
}

// PostgresConfig holds PostgreSQL connection parameters and the document
// query. The query must return url and html columns in a stable order;
// document ids are assigned from row position.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	Query           string        `yaml:"query"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// FileConfig points at a JSON Lines dump of documents.
type FileConfig struct {
	Path string `yaml:"path"`
}

// RetryConfig controls reconnect attempts to a document source.
type RetryConfig struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseDelay   time.Duration `yaml:"baseDelay"`
	MaxDelay    time.Duration `yaml:"maxDelay"`
}

// SearchConfig controls result limits.
type SearchConfig struct {
	TopK       int `yaml:"topK"`
	MaxResults int `yaml:"maxResults"`
}

// ServerConfig holds HTTP server settings for serve mode.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds broker settings for search analytics events.
type KafkaConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Brokers        []string `yaml:"brokers"`
	AnalyticsTopic string   `yaml:"analyticsTopic"`
	BufferSize     int      `yaml:"bufferSize"`
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

// TracingConfig toggles span logging.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	switch c.Source.Type {
	case "mongo", "postgres", "file":
	default:
		return fmt.Errorf("unknown source type %q", c.Source.Type)
	}
	if c.Index.IndexFile == "" || c.Index.BooleanIndexFile == "" || c.Index.URLFile == "" {
		return fmt.Errorf("index file names must not be empty")
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("search.topK must be positive, got %d", c.Search.TopK)
	}
	if c.Search.MaxResults < c.Search.TopK {
		return fmt.Errorf("search.maxResults (%d) must be at least search.topK (%d)", c.Search.MaxResults, c.Search.TopK)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			DataDir:          ".",
			IndexFile:        "index.bin",
			BooleanIndexFile: "boolean_index.bin",
			URLFile:          "urls.bin",
			StatsFile:        "zipf_data.csv",
			ProgressEvery:    200,
		},
		Source: SourceConfig{
			Type: "mongo",
			Mongo: MongoConfig{
				URI:            "mongodb://localhost:27017",
				Database:       "search_engine",
				Collection:     "pages",
				ConnectTimeout: 10 * time.Second,
				BatchSize:      500,
			},
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				Database:        "textsearch",
				User:            "textsearch",
				Password:        "localdev",
				SSLMode:         "disable",
				MaxOpenConns:    5,
				MaxIdleConns:    2,
				ConnMaxLifetime: 5 * time.Minute,
				Query:           "SELECT url, html FROM documents ORDER BY id",
			},
			Retry: RetryConfig{
				MaxAttempts: 5,
				BaseDelay:   500 * time.Millisecond,
				MaxDelay:    10 * time.Second,
			},
		},
		Search: SearchConfig{
			TopK:       10,
			MaxResults: 100,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:        []string{"localhost:9092"},
			AnalyticsTopic: "search-analytics",
			BufferSize:     1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// applyEnvOverrides reads TS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TS_INDEX_DATA_DIR"); v != "" {
		cfg.Index.DataDir = v
	}
	if v := os.Getenv("TS_SOURCE_TYPE"); v != "" {
		cfg.Source.Type = v
	}
	if v := os.Getenv("TS_MONGO_URI"); v != "" {
		cfg.Source.Mongo.URI = v
	}
	if v := os.Getenv("TS_MONGO_DATABASE"); v != "" {
		cfg.Source.Mongo.Database = v
	}
	if v := os.Getenv("TS_MONGO_COLLECTION"); v != "" {
		cfg.Source.Mongo.Collection = v
	}
	if v := os.Getenv("TS_POSTGRES_HOST"); v != "" {
		cfg.Source.Postgres.Host = v
	}
	if v := os.Getenv("TS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Source.Postgres.Port = port
		}
	}
	if v := os.Getenv("TS_POSTGRES_DATABASE"); v != "" {
		cfg.Source.Postgres.Database = v
	}
	if v := os.Getenv("TS_POSTGRES_USER"); v != "" {
		cfg.Source.Postgres.User = v
	}
	if v := os.Getenv("TS_POSTGRES_PASSWORD"); v != "" {
		cfg.Source.Postgres.Password = v
	}
	if v := os.Getenv("TS_SOURCE_FILE"); v != "" {
		cfg.Source.File.Path = v
	}
	if v := os.Getenv("TS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("TS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("TS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TS_METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = enabled
		}
	}
}
