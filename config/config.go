package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"agent-scheduler/models"
)

// Config covers process level configuration. Values come from an optional
// YAML file (AGENTSCHED_CONFIG), overridden by environment variables.
// The engine itself takes all of this as explicit parameters; nothing here
// is global state.
type Config struct {
	Environment string  `yaml:"environment"`
	HTTPBind    string  `yaml:"http_bind"`
	HTTPPort    int     `yaml:"http_port"`
	InputFile   string  `yaml:"input_file"`
	Timezone    string  `yaml:"timezone"`
	Utilization float64 `yaml:"utilization"`
}

// Load builds the configuration from the environment. A .env file is loaded
// first if present; a YAML file named by AGENTSCHED_CONFIG is overlaid under
// the environment.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: "production",
		HTTPBind:    "0.0.0.0",
		HTTPPort:    8080,
		Timezone:    models.DefaultTimezone,
		Utilization: 1.0,
	}

	if path := os.Getenv("AGENTSCHED_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Environment = getEnv("AGENTSCHED_ENV", cfg.Environment)
	cfg.HTTPBind = getEnv("AGENTSCHED_HTTP_BIND", cfg.HTTPBind)
	cfg.InputFile = getEnv("AGENTSCHED_INPUT", cfg.InputFile)
	cfg.Timezone = getEnv("AGENTSCHED_TIMEZONE", cfg.Timezone)

	if v := os.Getenv("AGENTSCHED_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AGENTSCHED_HTTP_PORT %q: %w", v, err)
		}
		cfg.HTTPPort = port
	}
	if v := os.Getenv("AGENTSCHED_UTILIZATION"); v != "" {
		u, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid AGENTSCHED_UTILIZATION %q: %w", v, err)
		}
		cfg.Utilization = u
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
