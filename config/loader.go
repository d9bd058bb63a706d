package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML configuration file and unmarshals it into the specified type.
// T must be a struct type that can be unmarshaled from YAML.
func LoadConfig[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg T
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// LoadProbeConfig reads a probe YAML configuration file and applies
// defaults. Validation is left to the caller, which may still merge
// overrides on top of the loaded values.
func LoadProbeConfig(path string) (*Probe, error) {
	logger := log.With().Str("com", "config-loader").Logger()

	cfg, err := LoadConfig[Probe](path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	logger.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("loaded probe configuration")
	return cfg, nil
}
