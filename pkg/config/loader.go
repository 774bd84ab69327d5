package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ieltsgenai/prep-service/envloader"
)

// Load lê o YAML, aplica overrides de ambiente (tags env) e valida.
func Load(path string) (*ServiceConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg ServiceConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	// Ambiente tem precedência sobre o YAML (útil no Lambda, onde as
	// tabelas e secrets chegam por variável de ambiente)
	if err := envloader.Load(&cfg); err != nil {
		return nil, fmt.Errorf("config: env overrides: %w", err)
	}

	if err := NewValidator().Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
