package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "healthrisk/pkg/platform/strings"
)

// Extraction backends.
const (
	ExtractionNone      = "none"
	ExtractionHTTP      = "http"
	ExtractionAnthropic = "anthropic"
)

// Assessment store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config is the full service configuration.
type Config struct {
	Server     Server
	Log        LogConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	Extraction ExtractionConfig
	Store      StoreConfig
	Redis      RedisConfig
	Postgres   PostgresConfig
	Kafka      KafkaConfig
	Audit      AuditConfig
	Tracing    TracingConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig bounds POST /analyze per client IP. A non-positive rate disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type ExtractionConfig struct {
	Backend string
	// Fallback names a secondary backend used once the primary's circuit opens.
	Fallback         string
	FailureThreshold int
	OCRURL           string
	OCRTimeout       time.Duration
	AnthropicAPIKey  string
	AnthropicModel   string
}

type StoreConfig struct {
	Backend string
	TTL     time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// KafkaConfig enables the audit stream when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type AuditConfig struct {
	BufferSize int
}

// TracingConfig enables OTLP export when Endpoint is set.
type TracingConfig struct {
	Endpoint    string
	ServiceName string
}

// Load reads .env files into the environment and then builds the config.
// Without arguments a missing ./.env is not an error; named files must exist.
// Variables already set in the environment win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(files...); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var p parser
	cfg := Config{
		Server: Server{
			Addr:            getenv("HEALTHRISK_ADDR", ":8080"),
			MaxUploadBytes:  p.int64("MAX_UPLOAD_BYTES", 10<<20),
			ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getenv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getenv("LOG_FORMAT", "json")),
		},
		CORS: CORSConfig{
			AllowedOrigins: pstrings.SplitList(getenv("CORS_ALLOWED_ORIGINS", "*"), ","),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: p.float("RATE_LIMIT_RPS", 5),
			Burst:             p.int("RATE_LIMIT_BURST", 10),
		},
		Extraction: ExtractionConfig{
			Backend:          strings.ToLower(getenv("EXTRACTION_BACKEND", ExtractionNone)),
			Fallback:         strings.ToLower(os.Getenv("EXTRACTION_FALLBACK")),
			FailureThreshold: p.int("EXTRACTION_FAILURE_THRESHOLD", 3),
			OCRURL:           os.Getenv("OCR_URL"),
			OCRTimeout:       p.duration("OCR_TIMEOUT", 15*time.Second),
			AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
			AnthropicModel:   os.Getenv("ANTHROPIC_MODEL"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getenv("ASSESSMENT_STORE", StoreMemory)),
			TTL:     p.duration("ASSESSMENT_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     p.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    p.int("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    p.int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: pstrings.SplitList(os.Getenv("KAFKA_BROKERS"), ","),
			Topic:   getenv("KAFKA_AUDIT_TOPIC", "healthrisk.audit"),
		},
		Audit: AuditConfig{
			BufferSize: p.int("AUDIT_BUFFER_SIZE", 256),
		},
		Tracing: TracingConfig{
			Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: getenv("OTEL_SERVICE_NAME", "healthrisk"),
		},
	}
	if err := p.err(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks backend selections and the settings they depend on.
func (c Config) Validate() error {
	var errs []error

	for _, backend := range []string{c.Extraction.Backend, c.Extraction.Fallback} {
		switch backend {
		case "", ExtractionNone:
		case ExtractionHTTP:
			if c.Extraction.OCRURL == "" {
				errs = append(errs, errors.New("OCR_URL is required for the http extraction backend"))
			}
		case ExtractionAnthropic:
			if c.Extraction.AnthropicAPIKey == "" {
				errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for the anthropic extraction backend"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown extraction backend %q", backend))
		}
	}
	if c.Extraction.Fallback != "" && c.Extraction.Fallback == c.Extraction.Backend {
		errs = append(errs, errors.New("EXTRACTION_FALLBACK must differ from EXTRACTION_BACKEND"))
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis assessment store"))
		}
	case StorePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres assessment store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown assessment store %q", c.Store.Backend))
	}

	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// parser collects conversion errors so every bad variable is reported at once.
type parser struct {
	errs []error
}

func (p *parser) int(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) int64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) float(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) err() error {
	return errors.Join(p.errs...)
}
