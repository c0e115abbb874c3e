// Package config loads scraper settings from an optional .env file, an
// optional YAML file and the environment, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"snpedia/pkg/mediawiki"
)

// Sink names accepted in Sinks.
const (
	SinkFile     = "file"
	SinkS3       = "s3"
	SinkPostgres = "postgres"
	SinkLevelDB  = "leveldb"
	SinkSQLite   = "sqlite"
)

type Config struct {
	API     APIConfig     `yaml:"api"`
	Scrape  ScrapeConfig  `yaml:"scrape"`
	Storage StorageConfig `yaml:"storage"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type APIConfig struct {
	URL       string        `yaml:"url" env:"SNPEDIA_API_URL" env-default:"http://bots.snpedia.com/api.php"`
	UserAgent string        `yaml:"user_agent" env:"SNPEDIA_USER_AGENT" env-default:"snpedia-scraper/1.0"`
	Timeout   time.Duration `yaml:"timeout" env:"SNPEDIA_HTTP_TIMEOUT" env-default:"30s"`
}

type ScrapeConfig struct {
	Category      string `yaml:"category" env:"SNPEDIA_CATEGORY" env-default:"Category:Is_a_snp"`
	CategoryLimit int    `yaml:"category_limit" env:"SNPEDIA_CATEGORY_LIMIT" env-default:"500"`
	BatchSize     int    `yaml:"batch_size" env:"SNPEDIA_BATCH_SIZE" env-default:"50"`
	MaxPages      int    `yaml:"max_pages" env:"SNPEDIA_MAX_PAGES" env-default:"0"`
	Policy        string `yaml:"extract_policy" env:"SNPEDIA_EXTRACT_POLICY" env-default:"skip"`
}

type StorageConfig struct {
	Sinks     []string       `yaml:"sinks" env:"SNPEDIA_SINKS" env-separator:"," env-default:"file"`
	OutputDir string         `yaml:"output_dir" env:"SNPEDIA_OUTPUT_DIR" env-default:"./snps"`
	S3        S3Config       `yaml:"s3"`
	Postgres  PostgresConfig `yaml:"postgres"`
	LevelDB   string         `yaml:"leveldb_path" env:"SNPEDIA_LEVELDB_PATH" env-default:"./snpedia.ldb"`
	SQLite    string         `yaml:"sqlite_path" env:"SNPEDIA_SQLITE_PATH" env-default:"./snpedia.db"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	Bucket    string `yaml:"bucket" env:"SNPEDIA_BUCKET_NAME" env-default:"snpedia"`
	Region    string `yaml:"region" env:"MINIO_REGION"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn" env:"SNPEDIA_POSTGRES_DSN"`
}

type KafkaConfig struct {
	Broker  string `yaml:"broker" env:"KAFKA_BROKER"`
	Topic   string `yaml:"topic" env:"KAFKA_TOPIC" env-default:"snpedia-records"`
	GroupID string `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"snpedia-watcher"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"SNPEDIA_LOG_LEVEL" env-default:"info"`
	Pretty bool   `yaml:"pretty" env:"SNPEDIA_LOG_PRETTY" env-default:"false"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr" env:"SNPEDIA_METRICS_ADDR"`
}

// LoadEnv loads a .env file from the working directory if one exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, assuming environment variables are set directly.")
	}
}

// Load reads the configuration. An empty path falls back to SNPEDIA_CONFIG;
// when neither is set only the environment is used.
func Load(path string) (*Config, error) {
	LoadEnv()

	if path == "" {
		path = os.Getenv("SNPEDIA_CONFIG")
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	cfg.Storage.Sinks = normalizeSinks(cfg.Storage.Sinks)
	return &cfg, nil
}

// ExtractPolicy returns the parsed extraction policy.
func (c *Config) ExtractPolicy() (mediawiki.ExtractPolicy, error) {
	return mediawiki.ParsePolicy(c.Scrape.Policy)
}

// HasSink reports whether the named sink is enabled.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Storage.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// Validate checks the settings the scraper needs.
func (c *Config) Validate() error {
	var errs []error
	if c.API.URL == "" {
		errs = append(errs, errors.New("api url is required"))
	}
	if c.Scrape.Category == "" {
		errs = append(errs, errors.New("category is required"))
	}
	if c.Scrape.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch size must be positive (got %d)", c.Scrape.BatchSize))
	}
	if c.Scrape.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("max pages must not be negative (got %d)", c.Scrape.MaxPages))
	}
	if _, err := c.ExtractPolicy(); err != nil {
		errs = append(errs, err)
	}
	if len(c.Storage.Sinks) == 0 {
		errs = append(errs, errors.New("at least one sink is required"))
	}
	for _, s := range c.Storage.Sinks {
		switch s {
		case SinkFile:
			if c.Storage.OutputDir == "" {
				errs = append(errs, errors.New("file sink needs an output dir"))
			}
		case SinkS3:
			s3 := c.Storage.S3
			if s3.Endpoint == "" || s3.AccessKey == "" || s3.SecretKey == "" {
				errs = append(errs, errors.New("s3 sink needs MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY"))
			}
		case SinkPostgres:
			if c.Storage.Postgres.DSN == "" {
				errs = append(errs, errors.New("postgres sink needs SNPEDIA_POSTGRES_DSN"))
			}
		case SinkLevelDB:
			if c.Storage.LevelDB == "" {
				errs = append(errs, errors.New("leveldb sink needs a path"))
			}
		case SinkSQLite:
			if c.Storage.SQLite == "" {
				errs = append(errs, errors.New("sqlite sink needs a path"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown sink %q", s))
		}
	}
	return errors.Join(errs...)
}

// ValidateWatcher checks the settings the storage watcher needs.
func (c *Config) ValidateWatcher() error {
	var errs []error
	if c.Kafka.Broker == "" {
		errs = append(errs, errors.New("KAFKA_BROKER is required"))
	}
	if c.Kafka.Topic == "" || c.Kafka.GroupID == "" {
		errs = append(errs, errors.New("kafka topic and group id are required"))
	}
	s3 := c.Storage.S3
	if s3.Endpoint == "" || s3.AccessKey == "" || s3.SecretKey == "" {
		errs = append(errs, errors.New("watcher needs MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY"))
	}
	return errors.Join(errs...)
}

func normalizeSinks(in []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
