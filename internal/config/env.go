package config

import (
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable the app reads.
const EnvPrefix = "CHATBAR"

// Env holds the CHATBAR_* environment. Fields carry no envconfig name tag:
// a tagged field also falls back to the unprefixed variable, which would
// let the POSIX LANG act as a language override.
type Env struct {
	// Lang is CHATBAR_LANG, the language override.
	Lang string
	// LogLevel is CHATBAR_LOG_LEVEL: debug, info, warn or error.
	LogLevel string `split_words:"true" default:"info"`
	// Config is CHATBAR_CONFIG, an explicit config file path.
	Config string
}

// LoadEnv reads the CHATBAR_* environment.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Env{LogLevel: "info"}, err
	}
	env.Lang = strings.TrimSpace(env.Lang)
	return env, nil
}

// EnvLanguage returns the current CHATBAR_LANG value. It is re-read on every
// call so a locale reload sees changes.
func EnvLanguage() string {
	env, err := LoadEnv()
	if err != nil {
		return ""
	}
	return env.Lang
}

// SlogLevel maps LogLevel to a slog level, defaulting to Info.
func (e Env) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(e.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
