package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file named by SKYBOT_ENV (or .env by default),
// then its .secret sidecar if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("SKYBOT_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the environment may already be set.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DatabaseURL is optional. Without it turns are kept in memory and provider
// responses are cached per process.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// FieldsPath names a field definitions file. Empty selects the built-in set.
func FieldsPath() string {
	return os.Getenv("FIELDS_PATH")
}

// FlightsProvider returns where flights come from.
// Valid values: dataset, qpx. Defaults to "dataset".
func FlightsProvider() string {
	p := os.Getenv("FLIGHTS_PROVIDER")
	if p == "" {
		return "dataset"
	}
	return p
}

func FlightsDatasetPath() string {
	p := os.Getenv("FLIGHTS_DATASET_PATH")
	if p == "" {
		return "data/flights.json"
	}
	return p
}

func QPXAPIKey() string {
	return os.Getenv("QPX_API_KEY")
}

// QPXBaseURL returns the search endpoint override, empty for the default.
func QPXBaseURL() string {
	return os.Getenv("QPX_BASE_URL")
}

func AirportsPath() string {
	p := os.Getenv("AIRPORTS_PATH")
	if p == "" {
		return "data/airports.json"
	}
	return p
}

// SessionIdleTimeout returns how long an untouched session stays open.
// Defaults to 30m if not set.
func SessionIdleTimeout() time.Duration {
	d, err := time.ParseDuration(os.Getenv("SESSION_IDLE_TIMEOUT"))
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// MaxData caps the candidate records collected per update.
// Defaults to 2500 if not set.
func MaxData() int {
	n, err := strconv.Atoi(os.Getenv("MAX_DATA"))
	if err != nil || n <= 0 {
		return 2500
	}
	return n
}

// PruneRatio returns the share of the top confidence an ambiguous answer
// value must reach to be kept. Defaults to 0.5 if not set.
func PruneRatio() float64 {
	r, err := strconv.ParseFloat(os.Getenv("PRUNE_RATIO"), 64)
	if err != nil || r <= 0 || r > 1 {
		return 0.5
	}
	return r
}

// PruneMax returns how many values an ambiguous answer may keep.
// Defaults to 3 if not set.
func PruneMax() int {
	n, err := strconv.Atoi(os.Getenv("PRUNE_MAX"))
	if err != nil || n <= 0 {
		return 3
	}
	return n
}

// UserName is greeted by name when set.
func UserName() string {
	return os.Getenv("SKYBOT_USER_NAME")
}

// LogEnv selects the log encoding: prod (JSON) or dev (console).
// Defaults to "prod" if not set.
func LogEnv() string {
	env := os.Getenv("LOG_ENV")
	if env == "" {
		return "prod"
	}
	return env
}
