package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port           string
	AllowedOrigins []string
	Debug          bool
	LogDir         string

	// Entry store. Driver is "sqlite" or "postgres".
	DatabaseDriver string
	SQLitePath     string
	PostgresDSN    string

	RedisAddr     string
	RedisPassword string

	// Optional; empty URI / endpoint disables the component.
	MongoURI       string
	MongoDB        string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	OpenRouterAPIKey  string
	OpenAIAPIKey      string
	OpenRouterModel   string
	OpenAIModel       string
	OpenRouterBaseURL string
	OpenAIBaseURL     string
	Referer           string
	AppTitle          string
	Temperature       float64
	GenerateTimeout   time.Duration

	CredentialsPath      string
	RequirePreauthorized bool
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	return &Config{
		Port:           getenv("PORT", "8080"),
		AllowedOrigins: splitList(getenv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		Debug:          getenv("DEBUG", "false") == "true",
		LogDir:         getenv("LOG_DIR", "."),

		DatabaseDriver: getenv("DATABASE_DRIVER", DriverSQLite),
		SQLitePath:     getenv("SQLITE_PATH", "entries.db"),
		PostgresDSN:    getenv("POSTGRES_DSN", ""),

		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		MongoURI:       getenv("MONGO_URI", ""),
		MongoDB:        getenv("MONGO_DB", "consciousday"),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "journal-exports"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",

		OpenRouterAPIKey:  getenv("OPENROUTER_API_KEY", ""),
		OpenAIAPIKey:      getenv("OPENAI_API_KEY", ""),
		OpenRouterModel:   getenv("OPENROUTER_MODEL", "openai/gpt-3.5-turbo"),
		OpenAIModel:       getenv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenRouterBaseURL: getenv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenAIBaseURL:     getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		Referer:           getenv("HTTP_REFERER", "http://localhost:8080"),
		AppTitle:          getenv("APP_TITLE", "ConsciousDay Agent"),
		Temperature:       getenvFloat("TEMPERATURE", 0.7),
		GenerateTimeout:   getenvDuration("GENERATE_TIMEOUT", 30*time.Second),

		CredentialsPath:      getenv("CREDENTIALS_PATH", "config.yaml"),
		RequirePreauthorized: getenv("REQUIRE_PREAUTHORIZED", "false") == "true",
	}
}

// Validate reports configuration the service cannot start without.
func (c *Config) Validate() error {
	if c.OpenRouterAPIKey == "" && c.OpenAIAPIKey == "" {
		return errors.New("neither OPENROUTER_API_KEY nor OPENAI_API_KEY is set")
	}
	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is empty")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when DATABASE_DRIVER=postgres")
		}
	default:
		return errors.New("DATABASE_DRIVER must be sqlite or postgres")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
