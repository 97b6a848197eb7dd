/*
Copyright 2026 The Driftcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads the process-wide configuration for the drift core:
// the bits that are not per-workspace (those live on the Workspace entity,
// see pkg/domain). A YAML file is the primary source, with environment
// variables overriding individual fields for container deployments.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"sigs.k8s.io/yaml"
)

type ServerConfig struct {
	WebhookPort string `json:"webhook_port"`
	MetricsPort string `json:"metrics_port"`
}

type DatabaseConfig struct {
	DSN             string        `json:"dsn"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr      string `json:"addr"`
	Namespace string `json:"namespace"`
	DB        int    `json:"db"`
}

type LLMConfig struct {
	Provider    string        `json:"provider"` // "anthropic" is the only supported provider
	Model       string        `json:"model"`
	Endpoint    string        `json:"endpoint"`
	Timeout     time.Duration `json:"timeout"`
	RetryCount  int           `json:"retry_count"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type QueueConfig struct {
	Backend           string        `json:"backend"` // "redis" | "sqs"
	VisibilityTimeout time.Duration `json:"visibility_timeout"`
}

type NotificationConfig struct {
	SlackToken          string `json:"slack_token"`
	DigestChannel       string `json:"digest_channel"`
	MaxPerHourPerTenant int    `json:"max_per_hour_per_tenant"`
}

type WorkspaceDefaultsConfig struct {
	HighConfidenceThreshold   float64 `json:"high_confidence_threshold"`
	MediumConfidenceThreshold float64 `json:"medium_confidence_threshold"`
	MaterialityThreshold      float64 `json:"materiality_threshold"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type Config struct {
	Server       ServerConfig            `json:"server"`
	Database     DatabaseConfig          `json:"database"`
	Redis        RedisConfig             `json:"redis"`
	LLM          LLMConfig               `json:"llm"`
	Queue        QueueConfig             `json:"queue"`
	Notification NotificationConfig      `json:"notification"`
	Workspace    WorkspaceDefaultsConfig `json:"workspace"`
	Logging      LoggingConfig           `json:"logging"`
}

// Load reads a YAML file at path, applies defaults, overlays environment
// variables, and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			WebhookPort: "8080",
			MetricsPort: "9090",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Namespace: "driftcore",
		},
		LLM: LLMConfig{
			Provider:    "anthropic",
			Timeout:     30 * time.Second,
			RetryCount:  3,
			Temperature: 0.2,
			MaxTokens:   2000,
		},
		Queue: QueueConfig{
			Backend:           "redis",
			VisibilityTimeout: 30 * time.Second,
		},
		Notification: NotificationConfig{
			MaxPerHourPerTenant: 10,
		},
		Workspace: WorkspaceDefaultsConfig{
			HighConfidenceThreshold:   0.70,
			MediumConfidenceThreshold: 0.55,
			MaterialityThreshold:      0.3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func validate(cfg *Config) error {
	switch cfg.LLM.Provider {
	case "anthropic":
	default:
		return fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}

	if cfg.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	if cfg.LLM.Temperature < 0.0 || cfg.LLM.Temperature > 1.0 {
		return fmt.Errorf("LLM temperature must be between 0.0 and 1.0")
	}

	if cfg.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM max tokens must be greater than 0")
	}

	if cfg.Notification.MaxPerHourPerTenant <= 0 {
		return fmt.Errorf("notification max per hour per tenant must be greater than 0")
	}

	if cfg.Workspace.HighConfidenceThreshold <= cfg.Workspace.MediumConfidenceThreshold {
		return fmt.Errorf("high confidence threshold must exceed medium confidence threshold")
	}

	return nil
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("SLACK_TOKEN"); v != "" {
		cfg.Notification.SlackToken = v
	}
	if v := os.Getenv("WEBHOOK_PORT"); v != "" {
		cfg.Server.WebhookPort = v
	}
	if v := os.Getenv("METRICS_PORT"); v != "" {
		cfg.Server.MetricsPort = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("LLM_RETRY_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LLM_RETRY_COUNT: %w", err)
		}
		cfg.LLM.RetryCount = n
	}
	return nil
}
