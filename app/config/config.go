package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// AppConfig holds all application configuration
type AppConfig struct {
	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// Business assumptions used by the calculation services
	Business BusinessConfig `json:"business"`

	// System Configuration
	System SystemConfig `json:"system"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode"`
}

// BusinessConfig holds the business assumptions the P&L calculator runs on.
type BusinessConfig struct {
	// DefaultContributionMargin is assumed when no sales exist yet.
	DefaultContributionMargin float64 `json:"default_contribution_margin"`
	// ContributionMarginFloor bounds the computed ratio away from zero so
	// break-even revenue is never unbounded.
	ContributionMarginFloor float64 `json:"contribution_margin_floor"`
	// ConsumptionWindowDays is the trailing window for consumption
	// projections.
	ConsumptionWindowDays int `json:"consumption_window_days"`
	// ReorderHorizonDays bounds which ingredients show up as reorder needs.
	ReorderHorizonDays int `json:"reorder_horizon_days"`
}

// SystemConfig holds system settings
type SystemConfig struct {
	DataPath string `json:"data_path"`
	// RefreshIntervalMinutes drives the background dataset refresh worker.
	RefreshIntervalMinutes int `json:"refresh_interval_minutes"`
}

// DefaultConfig returns the configuration used when no config file or
// environment overrides exist.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "costos",
			Username: "postgres",
			Password: "postgres",
			SSLMode:  "disable",
		},
		Business: BusinessConfig{
			DefaultContributionMargin: 0.7,
			ContributionMarginFloor:   0.1,
			ConsumptionWindowDays:     7,
			ReorderHorizonDays:        7,
		},
		System: SystemConfig{
			DataPath:               "./data",
			RefreshIntervalMinutes: 15,
		},
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	dir := os.Getenv("COSTOS_CONFIG_DIR")
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".costos")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create config directory: %w", err)
	}

	return filepath.Join(dir, "config.json"), nil
}

// LoadConfig loads configuration from config.json, falling back to defaults
// and applying environment overrides last.
func LoadConfig() (*AppConfig, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	return cfg, nil
}

// SaveConfig saves configuration to config.json
func SaveConfig(cfg *AppConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("could not serialize config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("could not write config file: %w", err)
	}

	return nil
}

// applyEnvOverrides lets environment variables win over the config file.
func (c *AppConfig) applyEnvOverrides() {
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Database.Database = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Database.Username = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		c.Database.SSLMode = v
	}
	if v := os.Getenv("DEFAULT_CONTRIBUTION_MARGIN"); v != "" {
		if ratio, err := strconv.ParseFloat(v, 64); err == nil {
			c.Business.DefaultContributionMargin = ratio
		}
	}
	if v := os.Getenv("REFRESH_INTERVAL_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil {
			c.System.RefreshIntervalMinutes = minutes
		}
	}
}

// normalize repairs values a hand-edited config file could break.
func (c *AppConfig) normalize() {
	if c.Business.DefaultContributionMargin <= 0 || c.Business.DefaultContributionMargin > 1 {
		c.Business.DefaultContributionMargin = 0.7
	}
	if c.Business.ContributionMarginFloor <= 0 {
		c.Business.ContributionMarginFloor = 0.1
	}
	if c.Business.ConsumptionWindowDays <= 0 {
		c.Business.ConsumptionWindowDays = 7
	}
	if c.Business.ReorderHorizonDays <= 0 {
		c.Business.ReorderHorizonDays = 7
	}
	if c.System.RefreshIntervalMinutes <= 0 {
		c.System.RefreshIntervalMinutes = 15
	}
}
