// Package config reads typed settings from an environment snapshot.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Env is a snapshot of environment variables. The CLI takes one explicitly
// instead of reading os.Getenv so that a run can be driven entirely by tests.
type Env map[string]string

// OSEnv captures the current process environment.
func OSEnv() Env {
	env := Env{}
	for _, kv := range os.Environ() {
		if key, value, ok := strings.Cut(kv, "="); ok {
			env[key] = value
		}
	}
	return env
}

// String returns the value of key or defaultValue if unset or blank.
//
// Example:
//
//	baseURL := env.String("OPENAI_BASE_URL", "https://api.openai.com/v1")
func (e Env) String(key, defaultValue string) string {
	if value := strings.TrimSpace(e[key]); value != "" {
		return value
	}
	return defaultValue
}

// Int returns key parsed with strconv.Atoi.
func (e Env) Int(key string, defaultValue int) int {
	return parsed(e, key, defaultValue, "integer", strconv.Atoi)
}

// Bool returns key parsed with strconv.ParseBool ("1", "true", "f", ...).
func (e Env) Bool(key string, defaultValue bool) bool {
	return parsed(e, key, defaultValue, "boolean", strconv.ParseBool)
}

// Duration returns key parsed with time.ParseDuration.
func (e Env) Duration(key string, defaultValue time.Duration) time.Duration {
	return parsed(e, key, defaultValue, "duration", time.ParseDuration)
}

// parsed returns defaultValue when key is blank, and also when it cannot be
// parsed, in which case a warning names the variable.
func parsed[T any](e Env, key string, defaultValue T, kind string, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(e[key])
	if raw == "" {
		return defaultValue
	}
	value, err := parse(raw)
	if err != nil {
		slog.Warn("invalid "+kind+" value for environment variable, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Any("default", defaultValue),
			slog.String("error", err.Error()))
		return defaultValue
	}
	return value
}

// StringList returns a comma-separated list from key. Blank entries are dropped.
//
// Example:
//
//	// SUMMARIZE_NITTER_HOSTS="nitter.net, nitter.poast.org"
//	hosts := env.StringList("SUMMARIZE_NITTER_HOSTS", nil)
//	// ["nitter.net", "nitter.poast.org"]
func (e Env) StringList(key string, defaultValue []string) []string {
	var result []string
	for _, part := range strings.Split(e[key], ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
