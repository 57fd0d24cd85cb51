// Package config loads runtime settings for the commands from environment
// variables. Flags override these per invocation.
package config

import (
	"os"
	"strconv"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	BackendURL  string // producer backend base URL; empty disables generation
	SampleRate  int
	Tempo       float64
	Genre       string
	Key         string
	ProjectPath string // default project file for the TUI
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		BackendURL:  envStr("GROOVEBOX_BACKEND_URL", ""),
		SampleRate:  envInt("GROOVEBOX_SAMPLE_RATE", 48000),
		Tempo:       envFloat("GROOVEBOX_TEMPO", 120),
		Genre:       envStr("GROOVEBOX_GENRE", "hip-hop"),
		Key:         envStr("GROOVEBOX_KEY", "C"),
		ProjectPath: envStr("GROOVEBOX_PROJECT", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
