package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	Credits   CreditsConfig
	RateLimit RateLimitConfig
	Providers ProvidersConfig
	Payments  PaymentsConfig
	Artifacts ArtifactsConfig
}

// CreditsConfig carries the pricing knobs for the generation pipeline.
type CreditsConfig struct {
	PerGeneration float64
	SignupBonus   float64
}

// RateLimitConfig selects the rate limiter backend. When RedisAddr is
// empty the in-process limiter is used, which is only correct for a
// single instance.
type RateLimitConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GenerateMax    int
	GenerateWindow time.Duration
}

type ProvidersConfig struct {
	GeminiAPIKey  string
	GeminiBaseURL string
	GrokAPIKey    string
	GrokBaseURL   string
	GrokModel     string
	CallTimeout   time.Duration
}

type PaymentsConfig struct {
	StripeAPIKey        string
	StripeWebhookSecret string
	DodoAPIKey          string
	DodoWebhookKey      string
}

type ArtifactsConfig struct {
	Dir           string
	PublicBaseURL string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "depict"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "depict"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		Credits: CreditsConfig{
			PerGeneration: getenvFloat("CREDITS_PER_GENERATION", 5),
			SignupBonus:   getenvFloat("SIGNUP_BONUS_CREDITS", 25),
		},
		RateLimit: RateLimitConfig{
			RedisAddr:      strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword:  strings.TrimSpace(getenv("RATE_LIMIT_REDIS_PASSWORD", "")),
			RedisDB:        getenvInt("RATE_LIMIT_REDIS_DB", 0),
			GenerateMax:    getenvInt("RATE_LIMIT_GENERATE_MAX", 5),
			GenerateWindow: time.Duration(getenvInt("RATE_LIMIT_GENERATE_WINDOW_SECONDS", 60)) * time.Second,
		},
		Providers: ProvidersConfig{
			GeminiAPIKey:  strings.TrimSpace(getenv("GEMINI_API_KEY", "")),
			GeminiBaseURL: getenv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			GrokAPIKey:    strings.TrimSpace(getenv("GROK_API_KEY", "")),
			GrokBaseURL:   getenv("GROK_BASE_URL", "https://api.x.ai"),
			GrokModel:     getenv("GROK_MODEL", "grok-2-vision-1212"),
			CallTimeout:   time.Duration(getenvInt("PROVIDER_CALL_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Payments: PaymentsConfig{
			StripeAPIKey:        strings.TrimSpace(getenv("STRIPE_API_KEY", "")),
			StripeWebhookSecret: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
			DodoAPIKey:          strings.TrimSpace(getenv("DODO_API_KEY", "")),
			DodoWebhookKey:      strings.TrimSpace(getenv("DODO_WEBHOOK_KEY", "")),
		},
		Artifacts: ArtifactsConfig{
			Dir:           getenv("ARTIFACTS_DIR", "./data/generated-images"),
			PublicBaseURL: getenv("ARTIFACTS_PUBLIC_BASE_URL", "/generated-images"),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
