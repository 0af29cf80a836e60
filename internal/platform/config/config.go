package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files (e.g. ".env"); with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvDuration returns the duration value of the environment variable named
// by key (e.g. "5s", "200ms"), or fallback if unset, empty, or invalid.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return fallback
}

// Config is the process-wide configuration, read once at startup and passed
// explicitly to the components that need it. Immutable thereafter.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	// Filler ad served when a channel has no house inventory.
	FillerAdURL      string
	FillerAdDuration int // seconds

	StitcherURL     string
	StitcherTimeout time.Duration

	// StoreBackend selects the channel store: "memory" or "redis".
	StoreBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ChannelsFile optionally seeds the store with channel documents.
	ChannelsFile string
}

// FromEnv builds a Config from the environment with defaults for everything
// except the filler URL, which has no sensible default and should be set in
// any real deployment.
func FromEnv() Config {
	return Config{
		Port:             GetEnv("PORT", "8080"),
		LogLevel:         GetEnv("LOG_LEVEL", "info"),
		LogFormat:        GetEnv("LOG_FORMAT", "json"),
		FillerAdURL:      GetEnv("FILLER_AD_URL", ""),
		FillerAdDuration: GetEnvInt("FILLER_AD_DURATION", 30),
		StitcherURL:      GetEnv("STITCHER_URL", "http://localhost:9090/stitch"),
		StitcherTimeout:  GetEnvDuration("STITCHER_TIMEOUT", 5*time.Second),
		StoreBackend:     GetEnv("STORE_BACKEND", "memory"),
		RedisAddr:        GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    GetEnv("REDIS_PASSWORD", ""),
		RedisDB:          GetEnvInt("REDIS_DB", 0),
		ChannelsFile:     GetEnv("CHANNELS_FILE", ""),
	}
}
