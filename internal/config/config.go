// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
)

// ServiceName is reported by the health endpoint and used as the telemetry resource name.
const ServiceName = "Simple Chat API"

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; every variable has a default so the service
// starts with no environment at all.
type Config struct {
	Env      string // application environment (e.g. "dev", "prod")
	Host     string // interface to bind the HTTP server on
	Port     string // HTTP port to listen on
	LogFile  string // path of the rotating log file; empty disables file logging
	LogLevel string // debug, info, warn or error
}

// Addr returns host:port for the HTTP listener.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// LoadDotEnv loads the given .env files (default ".env") if present.  A
// missing file is not an error; a file that exists but cannot be parsed is.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Load reads configuration values from environment variables and returns a
// Config.  Unset variables fall back to their defaults.
func Load() Config {
	return Config{
		Env:      envStr("APP_ENV", "dev"),
		Host:     envStr("APP_HOST", "0.0.0.0"),
		Port:     envStr("APP_PORT", "8000"),
		LogFile:  envStrAllowEmpty("LOG_FILE", "app.log"),
		LogLevel: strings.ToLower(envStr("LOG_LEVEL", "info")),
	}
}
