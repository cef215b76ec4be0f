package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	HTTPTimeout     time.Duration `json:"http_timeout"`

	// Site identity
	SiteBaseURL string `json:"site_base_url"`
	Lang        string `json:"lang"`
	Country     string `json:"country"`

	// Feed sources
	FeedURLs    []string      `json:"feed_urls"`
	FeedTimeout time.Duration `json:"feed_timeout"`
	UserAgent   string        `json:"user_agent"`

	// Ingestion tuning
	DefaultLimit     int           `json:"default_limit"`
	MaxLimit         int           `json:"max_limit"`
	PerSourceCap     int           `json:"per_source_cap"`
	ChunkSize        int           `json:"chunk_size"`
	MinContentLength int           `json:"min_content_length"`
	RecentWindow     time.Duration `json:"recent_window"`
	TitleProbeLength int           `json:"title_probe_length"`

	// Quiet hours (local time, no ingestion inside the window)
	QuietStartHour int    `json:"quiet_start_hour"`
	QuietEndHour   int    `json:"quiet_end_hour"`
	Timezone       string `json:"timezone"`

	// Database configuration
	DatabaseURL string `json:"database_url"`

	// Redis configuration
	RedisURL string        `json:"redis_url"`
	SeenTTL  time.Duration `json:"seen_ttl"`

	// AI Configuration
	AIApiKey  string        `json:"ai_api_key"`
	AIModel   string        `json:"ai_model"`
	AITimeout time.Duration `json:"ai_timeout"`

	// Cover resolution
	ScrapeTimeout  time.Duration `json:"scrape_timeout"`
	PlaceholderDir string        `json:"placeholder_dir"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// Security
	IngestToken string `json:"ingest_token"`
	AdminAPIKey string `json:"admin_api_key"`
}

// Load loads configuration from environment variables and validates it
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{
		// Server configuration
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),

		// Site identity
		SiteBaseURL: getEnv("SITE_BASE_URL", "https://vestnik.example"),
		Lang:        getEnv("SITE_LANG", "sr"),
		Country:     getEnv("SITE_COUNTRY", "AT"),

		// Feed sources
		FeedURLs:    getEnvAsList("FEED_URLS", nil),
		FeedTimeout: getEnvAsDuration("FEED_TIMEOUT", 12*time.Second),
		UserAgent:   getEnv("FEED_USER_AGENT", "vestnik-ingest/1.0 (+https://vestnik.example)"),

		// Ingestion tuning
		DefaultLimit:     getEnvAsInt("INGEST_DEFAULT_LIMIT", 12),
		MaxLimit:         getEnvAsInt("INGEST_MAX_LIMIT", 25),
		PerSourceCap:     getEnvAsInt("INGEST_PER_SOURCE_CAP", 2),
		ChunkSize:        getEnvAsInt("INGEST_CHUNK_SIZE", 3),
		MinContentLength: getEnvAsInt("INGEST_MIN_CONTENT_LENGTH", 500),
		RecentWindow:     getEnvAsDuration("INGEST_RECENT_WINDOW", 72*time.Hour),
		TitleProbeLength: getEnvAsInt("INGEST_TITLE_PROBE_LENGTH", 48),

		// Quiet hours
		QuietStartHour: getEnvAsInt("QUIET_START_HOUR", 1),
		QuietEndHour:   getEnvAsInt("QUIET_END_HOUR", 5),
		Timezone:       getEnv("TIMEZONE", "Europe/Belgrade"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// Redis configuration
		RedisURL: getEnv("REDIS_URL", ""),
		SeenTTL:  getEnvAsDuration("SEEN_TTL", 720*time.Hour), // 30 days

		// AI Configuration
		AIApiKey:  getEnv("AI_API_KEY", ""),
		AIModel:   getEnv("AI_MODEL", "gemini-pro"),
		AITimeout: getEnvAsDuration("AI_TIMEOUT", 15*time.Second),

		// Cover resolution
		ScrapeTimeout:  getEnvAsDuration("SCRAPE_TIMEOUT", 8*time.Second),
		PlaceholderDir: getEnv("PLACEHOLDER_DIR", "/images/placeholders"),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		// Security
		IngestToken: getEnv("INGEST_TOKEN", ""),
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
	}

	return cfg
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsList(name string, defaultVal []string) []string {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
