// Package sim implements the test-bench backend HTTP API against a local
// SQLite store, so the dashboard can run without bench infrastructure.
package sim

import (
	"os"
	"strconv"
)

// Config holds rigsimd configuration.
type Config struct {
	Port string
	// DBPath locates the SQLite database file.
	DBPath string
	// ReplayRate throttles /live_series to this many rows per second since
	// the first poll of a session, so stored runs play back as if live.
	// Zero disables pacing and serves whatever is stored.
	ReplayRate float64
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Port:       getEnv("PORT", "8077"),
		DBPath:     getEnv("RIGSIM_DB", "rigsim.sqlite"),
		ReplayRate: getEnvFloat("RIGSIM_REPLAY_RATE", 0),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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
