package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// CatalogLimits bounds the listing and derived views
type CatalogLimits struct {
	FeaturedLimit   int `yaml:"featuredLimit"`
	RecentLimit     int `yaml:"recentLimit"`
	DefaultPageSize int `yaml:"defaultPageSize"`
	MaxPageSize     int `yaml:"maxPageSize"`
}

// AreaUnitConfig registers an extra area unit, expressed in square feet
type AreaUnitConfig struct {
	Name       string  `yaml:"name"`
	SquareFeet float64 `yaml:"squareFeet"`
}

// CatalogConfig is the catalog configuration file
type CatalogConfig struct {
	Limits    CatalogLimits    `yaml:"limits"`
	AreaUnits []AreaUnitConfig `yaml:"areaUnits"`
}

// DefaultLimits applies when the config file is absent or leaves a value unset
var DefaultLimits = CatalogLimits{
	FeaturedLimit:   6,
	RecentLimit:     10,
	DefaultPageSize: 20,
	MaxPageSize:     100,
}

// DefaultCatalogConfig returns a config holding only defaults
func DefaultCatalogConfig() *CatalogConfig {
	return &CatalogConfig{Limits: DefaultLimits}
}

// LoadCatalogConfig loads the catalog configuration from a YAML file.
// A missing file yields the defaults; a malformed one is an error.
func LoadCatalogConfig(configPath string) (*CatalogConfig, error) {
	if configPath == "" {
		configPath = "config/catalog.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("Catalog config not found, using defaults", "path", configPath)
			return DefaultCatalogConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg CatalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return &cfg, nil
}

func (c *CatalogConfig) applyDefaults() {
	if c.Limits.FeaturedLimit <= 0 {
		c.Limits.FeaturedLimit = DefaultLimits.FeaturedLimit
	}
	if c.Limits.RecentLimit <= 0 {
		c.Limits.RecentLimit = DefaultLimits.RecentLimit
	}
	if c.Limits.DefaultPageSize <= 0 {
		c.Limits.DefaultPageSize = DefaultLimits.DefaultPageSize
	}
	if c.Limits.MaxPageSize <= 0 {
		c.Limits.MaxPageSize = DefaultLimits.MaxPageSize
	}
}

// Validate checks cross-field constraints
func (c *CatalogConfig) Validate() error {
	if c.Limits.DefaultPageSize > c.Limits.MaxPageSize {
		return fmt.Errorf("defaultPageSize %d exceeds maxPageSize %d", c.Limits.DefaultPageSize, c.Limits.MaxPageSize)
	}
	for _, u := range c.AreaUnits {
		if u.Name == "" {
			return fmt.Errorf("area unit without a name")
		}
		if u.SquareFeet <= 0 {
			return fmt.Errorf("area unit %s: squareFeet must be positive", u.Name)
		}
	}
	return nil
}

// GetEnvOrDefault returns the environment variable value or a default
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
