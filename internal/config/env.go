package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds the environment overrides read by the detsim binary.
type Env struct {
	DBPath     string `env:"DETSIM_DB_PATH"`
	ConfigPath string `env:"DETSIM_CONFIG"`
	Workers    *int   `env:"DETSIM_WORKERS"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv parses the DETSIM_* variables.
func LoadEnv() (Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Env{}, err
	}
	if e.Workers != nil && *e.Workers < 0 {
		return Env{}, fmt.Errorf("DETSIM_WORKERS must be non-negative, got %d", *e.Workers)
	}
	return e, nil
}

// ApplyEnv overlays the environment's workers setting onto c.
func (c *AnalysisConfig) ApplyEnv(e Env) {
	if e.Workers != nil {
		c.Workers = ptrInt(*e.Workers)
	}
}
