package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/friturisme/friturisme/pkg/identity"
	"github.com/friturisme/friturisme/pkg/profile"
)

// Config of the app. The backend serves both the identity provider and
// the profile store from one base URL.
type Config struct {
	BackendURL   string `yaml:"backend_url"`
	APIKey       string `yaml:"api_key"`
	CallbackPort int    `yaml:"callback_port"`
	SessionFile  string `yaml:"session_file"`
}

const defaultCallbackPort = 43117

func LoadConfig(path string) (*Config, error) {
	config := Config{
		CallbackPort: defaultCallbackPort,
	}

	if path == "" {
		path = os.Getenv("FRITURISME_CONFIG")
	}
	if path == "" {
		path = "friturisme.yaml"
	}

	yamlData, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(yamlData, &config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", path, err)
		}
	}

	if url := os.Getenv("FRITURISME_BACKEND_URL"); url != "" {
		config.BackendURL = url
	}
	if key := os.Getenv("FRITURISME_API_KEY"); key != "" {
		config.APIKey = key
	}

	if config.BackendURL == "" || config.APIKey == "" {
		return nil, fmt.Errorf("backend_url and api_key are required (config file or FRITURISME_BACKEND_URL / FRITURISME_API_KEY)")
	}

	return &config, nil
}

func (c *Config) IdentityConfig() identity.Config {
	return identity.Config{
		BaseURL:     c.BackendURL,
		APIKey:      c.APIKey,
		SessionFile: c.SessionFile,
	}
}

func (c *Config) ProfileConfig() profile.Config {
	return profile.Config{
		BaseURL: c.BackendURL,
		APIKey:  c.APIKey,
	}
}
