package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string
	// CORSOrigins lists the sites allowed to embed the chat widget.
	CORSOrigins []string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience. The 1s initial backoff with 2 retries gives the chat
	// provider its 1s/2s retry ladder.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache & sessions
	CacheTTL       time.Duration
	SessionIdleTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Supabase
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string

	// Chat provider
	ProviderBaseURL string
	ProviderAPIKey  string
	ProviderModel   string

	// Email
	ResendAPIKey string
	EmailFrom    string
	EmailName    string

	// Conversation policy
	LeadPromptProbability float64

	// Admin auth
	JWTSecret         string
	AdminTokenTTL     time.Duration
	AdminPasswordHash string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:        getEnvInt("PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 12*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 2),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", time.Second),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL:       getEnvDuration("CACHE_TTL", 5*time.Minute),
		SessionIdleTTL: getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		ProviderBaseURL: getEnv("PROVIDER_BASE_URL", "https://api.openai.com"),
		ProviderAPIKey:  getEnv("PROVIDER_API_KEY", ""),
		ProviderModel:   getEnv("PROVIDER_MODEL", "gpt-4o-mini"),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "coach@fitcoachhq.com"),
		EmailName:    getEnv("EMAIL_FROM_NAME", "FitCoach"),

		LeadPromptProbability: getEnvFloat("LEAD_PROMPT_PROBABILITY", 0.30),

		JWTSecret:         getEnv("JWT_SECRET", "funnel-default-dev-secret-change-me"),
		AdminTokenTTL:     getEnvDuration("ADMIN_TOKEN_TTL", 12*time.Hour),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
