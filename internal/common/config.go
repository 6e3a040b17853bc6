package common

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Decoder  DecoderConfig
	LLM      LLMConfig
	Auth     AuthConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string `validate:"oneof=postgres sqlite"`
	DSN              string `validate:"required"`
	MaxConns         int32  `validate:"gte=1"`
	MinConns         int32  `validate:"gte=0,ltefield=MaxConns"`
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
	AutoMigrate      bool
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string `validate:"required"`
	GRPCAddr       string `validate:"required"`
	AllowedOrigins string
	BodyLimitMB    int `validate:"gte=1"`
	CookieSecure   bool
}

// DecoderConfig holds document rasterization configuration
type DecoderConfig struct {
	Pdftoppm string
	DPI      int `validate:"gte=50,lte=600"`
	TempDir  string
}

// LLMConfig holds extraction model configuration
type LLMConfig struct {
	Model       string `validate:"required"`
	APIKey      string `validate:"required"`
	Temperature float32
	Timeout     time.Duration `validate:"gt=0"`
}

// AuthConfig holds identity provider configuration
type AuthConfig struct {
	ProviderURL string `validate:"required,url"`
	APIKey      string `validate:"required"`
	JWTSecret   string `validate:"required"`
	Audience    string
	Timeout     time.Duration
}

// LoadConfig loads configuration from environment variables, after merging
// any .env files (missing files are ignored, real env always wins).
func LoadConfig(envFiles ...string) *Config {
	loadDotEnv(envFiles...)
	return &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
			AutoMigrate:      getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8000"),
			GRPCAddr:       getEnv("GRPC_ADDR", ":8081"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			BodyLimitMB:    getEnvAsInt("BODY_LIMIT_MB", 32),
			CookieSecure:   getEnvAsBool("COOKIE_SECURE", false),
		},
		Decoder: DecoderConfig{
			Pdftoppm: getEnv("PDFTOPPM", "pdftoppm"),
			DPI:      getEnvAsInt("PDF_DPI", 200),
			TempDir:  getEnv("DECODER_TMP_DIR", ""),
		},
		LLM: LLMConfig{
			Model:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			Temperature: getEnvAsFloat32("GEMINI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 90*time.Second),
		},
		Auth: AuthConfig{
			ProviderURL: getEnv("SUPABASE_URL", getEnv("URL", "")),
			APIKey:      getEnv("SUPABASE_API_KEY", ""),
			JWTSecret:   getEnv("SUPABASE_JWT_KEY", ""),
			Audience:    getEnv("JWT_AUDIENCE", "authenticated"),
			Timeout:     getEnvAsDuration("AUTH_TIMEOUT", 15*time.Second),
		},
	}
}

func loadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			// a malformed .env is worth surfacing but not fatal
			_, _ = os.Stderr.WriteString("warning: could not load " + f + ": " + err.Error() + "\n")
		}
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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
	if err := ValidateStruct(c); err != nil {
		return NewAppError(CodeConfig, "invalid configuration", err)
	}
	return nil
}
