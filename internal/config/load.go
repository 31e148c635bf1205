package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
)

// Load reads the configuration from the environment, then fills any blank
// Firebase fields from the JSON web-config file. jsonPath overrides
// FIREBASE_CONFIG when non-empty. The result is validated.
func Load(jsonPath string) (*Config, error) {
	cfg := new(Config)
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}

	if p := strings.TrimSpace(jsonPath); p != "" {
		cfg.JSONFilePath = p
	}
	if cfg.JSONFilePath != "" {
		fileCfg, err := parseJSON(cfg.JSONFilePath)
		if err != nil {
			return nil, err
		}
		if err := mergo.Merge(&cfg.Firebase, fileCfg); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}
	return nil
}

// parseJSON accepts either the bare web-config object or one wrapped in a
// top-level "firebase" key.
func parseJSON(path string) (Firebase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Firebase{}, fmt.Errorf("error reading a json file: %w", err)
	}

	var wrapped struct {
		Firebase *Firebase `json:"firebase"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return Firebase{}, fmt.Errorf("error decoding json configs: %w", err)
	}
	if wrapped.Firebase != nil {
		return *wrapped.Firebase, nil
	}

	var fb Firebase
	if err := json.Unmarshal(data, &fb); err != nil {
		return Firebase{}, fmt.Errorf("error decoding json configs: %w", err)
	}
	return fb, nil
}
