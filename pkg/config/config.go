package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
)

// EnvDevelopment is the environment name that relaxes secret checks.
const EnvDevelopment = "development"

// Load parses environment variables into the provided struct.
// The struct should use `env` tags to define mappings; time.Duration fields
// accept Go duration strings such as "10s".
//
// Example:
//
//	type Config struct {
//	    Port     int    `env:"HTTP_PORT" envDefault:"8000"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// IsDevelopment reports whether the environment name denotes a local setup.
func IsDevelopment(environment string) bool {
	return strings.EqualFold(strings.TrimSpace(environment), EnvDevelopment)
}
