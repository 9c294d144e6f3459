package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds the settings that may come from the environment. Flags take
// precedence over these.
type Env struct {
	ConfigPath string `env:"STARSEARCH_CONFIG"`
	Target     string `env:"STARSEARCH_TARGET"`
	LogLevel   string `env:"STARSEARCH_LOG_LEVEL" envDefault:"warn"`
	Output     string `env:"STARSEARCH_OUTPUT" envDefault:"table"`
}

// LoadEnv parses Env from the process environment.
func LoadEnv() (Env, error) {
	e, err := env.ParseAs[Env]()
	if err != nil {
		return Env{}, fmt.Errorf("parse environment: %w", err)
	}
	if e.ConfigPath == "" {
		e.ConfigPath = DefaultPath()
	}
	return e, nil
}
