package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/PrincipeGhost/CorreosPremium/core/config"
	coredatabase "github.com/PrincipeGhost/CorreosPremium/core/database"
)

// GeoConfig configures the OpenRouteService client.
type GeoConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"ORS_BASE_URL"`
	APIKey         string `yaml:"api_key" envconfig:"ORS_API_KEY"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"ORS_TIMEOUT_SECONDS"`
	SampleDelayMS  int    `yaml:"sample_delay_ms" envconfig:"ORS_SAMPLE_DELAY_MS"`
}

// RedisConfig configures the rendered-view cache. An empty Addr disables it.
type RedisConfig struct {
	Addr           string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password       string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB             int    `yaml:"db" envconfig:"REDIS_DB"`
	ViewTTLSeconds int    `yaml:"view_ttl_seconds" envconfig:"REDIS_VIEW_TTL_SECONDS"`
}

// AppConfig aggregates the core bot configuration with the tracking-specific
// sections.
type AppConfig struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Geo      GeoConfig           `yaml:"geo"`
	Redis    RedisConfig         `yaml:"redis"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (a *AppConfig) CoreConfig() *coreconfig.Config { return &a.Config }

func (g GeoConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

func (g GeoConfig) SampleDelay() time.Duration {
	return time.Duration(g.SampleDelayMS) * time.Millisecond
}

func (r RedisConfig) ViewTTL() time.Duration {
	return time.Duration(r.ViewTTLSeconds) * time.Second
}

func loadConfig(path string) (*AppConfig, error) {
	var cfg AppConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	return &cfg, nil
}
