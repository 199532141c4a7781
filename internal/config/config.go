// Package config loads port4k-server's environment-variable configuration,
// in the style of 1kaius1-MUD-Engine/internal/config/config.go: a typed
// struct, one loader function, fatal on malformed input (spec.md §7
// "Fatal vs recoverable").
package config

import (
	"fmt"
	"os"
)

// Config is the full set of environment-derived settings for
// port4k-server (spec.md §6).
type Config struct {
	DatabaseURL    string
	TCPAddr        string
	WebSocketAddr  string
	ImportDir      string
	LogFilter      string
}

const (
	defaultTCPAddr       = ":4000"
	defaultWebSocketAddr = ":4001"
)

// Load reads Config from the process environment. DATABASE_URL is
// required; every other field has a default.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		TCPAddr:       getenvDefault("TCP_ADDR", defaultTCPAddr),
		WebSocketAddr: getenvDefault("WEBSOCKET_ADDR", defaultWebSocketAddr),
		ImportDir:     os.Getenv("IMPORT_DIR"),
		LogFilter:     os.Getenv("RUST_LOG"),
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("config: DATABASE_URL is required")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
