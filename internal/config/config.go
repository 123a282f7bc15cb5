package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Auth      AuthConfig
	Google    GoogleConfig
	Mail      MailConfig
	Upload    UploadConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	FrontendURL  string
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LLMConfig holds per-provider credentials. A missing key is not an error at
// startup; it surfaces when that provider is first called.
type LLMConfig struct {
	GeminiAPIKey     string
	GeminiModel      string
	HFToken          string
	CerebrasAPIKey   string
	OpenRouterAPIKey string
	OllamaURL        string
	Timeout          time.Duration
	TranscriptLang   string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

type UploadConfig struct {
	Dir      string
	MaxBytes int64
	// Files older than MaxAge are swept every SweepInterval.
	MaxAge        time.Duration
	SweepInterval time.Duration
}

type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "5001"),
			ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 180*time.Second),
			IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", postgresURLFromParts()),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		LLM: LLMConfig{
			GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
			GeminiModel:      getEnv("GEMINI_MODEL", "gemini-pro"),
			HFToken:          getEnv("HF_TOKEN", ""),
			CerebrasAPIKey:   getEnv("CEREBRAS_API_KEY", ""),
			OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
			OllamaURL:        getEnv("OLLAMA_URL", "http://localhost:11434"),
			Timeout:          getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
			TranscriptLang:   getEnv("TRANSCRIPT_LANG", "en"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("JWT_TTL", time.Hour),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:5001/api/auth/google/callback"),
		},
		Mail: MailConfig{
			Host:     getEnv("MAIL_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("MAIL_PORT", 587),
			User:     getEnv("MAIL_USER", ""),
			Password: getEnv("MAIL_PASS", ""),
		},
		Upload: UploadConfig{
			Dir:           getEnv("UPLOAD_DIR", filepath.Join(os.TempDir(), "ai-hub-uploads")),
			MaxBytes:      getEnvAsInt64("MAX_UPLOAD_BYTES", 10<<20),
			MaxAge:        getEnvAsDuration("UPLOAD_MAX_AGE", time.Hour),
			SweepInterval: getEnvAsDuration("UPLOAD_SWEEP_INTERVAL", 10*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
			BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// postgresURLFromParts builds a connection string from the discrete PG_* variables.
func postgresURLFromParts() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getEnv("PG_USER", "postgres"), getEnv("PG_PASSWORD", "postgres")),
		Host:     getEnv("PG_HOST", "localhost") + ":" + getEnv("PG_PORT", "5432"),
		Path:     "/" + getEnv("PG_DATABASE", "ai_hub"),
		RawQuery: "sslmode=" + getEnv("PG_SSLMODE", "disable"),
	}
	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
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
