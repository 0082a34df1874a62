package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Storage  StorageConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Redis    RedisConfig
	Queue    QueueConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // "postgres" | "sqlite"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
	AutoMigrate      bool
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string
}

// StorageConfig selects the object store that issues signed download URLs.
type StorageConfig struct {
	Backend          string // "s3" | "gcs" | "local"
	Bucket           string
	Region           string
	LocalRoot        string
	PublicBaseURL    string
	SigningKey       string
	URLTTL           time.Duration
	MaxDocumentBytes int64
	FetchTimeout     time.Duration
	// Watch registers files dropped under LocalRoot as pending documents (local backend only).
	Watch bool
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string
	TesseractLang string
	TessdataDir   string
	MaxImageWidth int
	Contrast      float64
}

// LLMConfig holds model provider configuration
type LLMConfig struct {
	BaseURL        string
	APIKey         string
	TextModel      string
	VisionModel    string
	VisionProvider string // "openai" | "gemini"
	GeminiAPIKey   string
	GeminiModel    string
	MaxTokens      int
	Temperature    float32
	Timeout        time.Duration
}

// PipelineConfig holds extraction thresholds
type PipelineConfig struct {
	MinTextChars   int
	Tolerance      float64
	MaxPromptChars int
}

// RedisConfig enables the distributed per-document lock when URL is set
type RedisConfig struct {
	URL     string
	LockTTL time.Duration
}

// QueueConfig sizes the batch worker pool
type QueueConfig struct {
	Workers        int
	Size           int
	ProcessTimeout time.Duration
}

// LogConfig controls the slog handler built by binaries
type LogConfig struct {
	Level  string
	Format string // "text" | "json"
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
			AutoMigrate:      getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr: getEnv("GRPC_ADDR", ":9090"),
		},
		Storage: StorageConfig{
			Backend:          strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
			Bucket:           getEnv("STORAGE_BUCKET", ""),
			Region:           getEnv("AWS_REGION", ""),
			LocalRoot:        getEnv("STORAGE_LOCAL_ROOT", "./uploads"),
			PublicBaseURL:    getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080"),
			SigningKey:       getEnv("STORAGE_SIGNING_KEY", ""),
			URLTTL:           getEnvAsDuration("STORAGE_URL_TTL", 5*time.Minute),
			MaxDocumentBytes: getEnvAsInt64("STORAGE_MAX_DOCUMENT_BYTES", 20<<20),
			FetchTimeout:     getEnvAsDuration("STORAGE_FETCH_TIMEOUT", 30*time.Second),
			Watch:            getEnvAsBool("STORAGE_WATCH", false),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			MaxImageWidth: getEnvAsInt("OCR_MAX_IMAGE_WIDTH", 2000),
			Contrast:      getEnvAsFloat64("OCR_CONTRAST", 20),
		},
		LLM: LLMConfig{
			BaseURL:        getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:         getEnv("LLM_API_KEY", ""),
			TextModel:      getEnv("LLM_TEXT_MODEL", "gpt-4o-mini"),
			VisionModel:    getEnv("LLM_VISION_MODEL", "gpt-4o"),
			VisionProvider: strings.ToLower(getEnv("VISION_PROVIDER", "openai")),
			GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
			GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			MaxTokens:      getEnvAsInt("LLM_MAX_TOKENS", 1000),
			Temperature:    getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:        getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Pipeline: PipelineConfig{
			MinTextChars:   getEnvAsInt("PIPELINE_MIN_TEXT_CHARS", 100),
			Tolerance:      getEnvAsFloat64("PIPELINE_NET_TOLERANCE", 0.02),
			MaxPromptChars: getEnvAsInt("PIPELINE_MAX_PROMPT_CHARS", 12000),
		},
		Redis: RedisConfig{
			URL:     getEnv("REDIS_URL", ""),
			LockTTL: getEnvAsDuration("REDIS_LOCK_TTL", 10*time.Minute),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("QUEUE_WORKERS", 4),
			Size:           getEnvAsInt("QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("QUEUE_PROCESS_TIMEOUT", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "LLM_API_KEY is required", ErrInvalidInput)
	}
	if c.LLM.VisionProvider == "gemini" && c.LLM.GeminiAPIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required when VISION_PROVIDER=gemini", ErrInvalidInput)
	}
	switch c.Storage.Backend {
	case "s3", "gcs":
		if c.Storage.Bucket == "" {
			return NewAppError("CONFIG_ERROR", "STORAGE_BUCKET is required for "+c.Storage.Backend, ErrInvalidInput)
		}
	case "local":
		if c.Storage.SigningKey == "" {
			return NewAppError("CONFIG_ERROR", "STORAGE_SIGNING_KEY is required for local storage", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "STORAGE_BACKEND must be s3, gcs or local", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
