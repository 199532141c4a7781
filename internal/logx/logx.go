// Package logx builds the process-wide zap logger and the small set of
// field helpers used across the session, script, and import subsystems.
// There is no package-level logger: one *zap.Logger is constructed in
// cmd/ and threaded through the registry explicitly (spec.md §9 "Global
// mutable state").
package logx

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style zap logger, with its minimum level set
// from a RUST_LOG-style filter string (spec.md §6): a bare level name such
// as "debug", "info", "warn", or "error". An empty or unrecognised filter
// defaults to info.
func New(filter string) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if f := strings.ToLower(strings.TrimSpace(filter)); f != "" {
		_ = level.Set(f) // leaves level at InfoLevel on parse failure
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// ConnField tags a log line with the connection's identifier.
func ConnField(id string) zap.Field { return zap.String("conn_id", id) }

// AccountField tags a log line with the acting account's username.
func AccountField(username string) zap.Field { return zap.String("account", username) }

// VerbField tags a log line with the dispatched verb.
func VerbField(verb string) zap.Field { return zap.String("verb", verb) }

// RealmField tags a log line with the active realm's key.
func RealmField(key string) zap.Field { return zap.String("realm", key) }

// RoomField tags a log line with the active room's key.
func RoomField(key string) zap.Field { return zap.String("room", key) }
