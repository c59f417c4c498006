// Package config loads server settings from defaults, an optional config
// file, a .env file and APRIORI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the effective configuration.
type Config struct {
	Port           string   `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	DataDir        string   `mapstructure:"data_dir" yaml:"data_dir"`
	Store          string   `mapstructure:"store" yaml:"store"`
	SQLitePath     string   `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	MaxUploadMB    int64    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	HeuristicsFile string   `mapstructure:"heuristics_file" yaml:"heuristics_file"`
	MinSupport     float64  `mapstructure:"min_support" yaml:"min_support"`
	MinConfidence  float64  `mapstructure:"min_confidence" yaml:"min_confidence"`
}

// MaxUploadBytes is the request body limit for uploads.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// Load reads configuration. Precedence: env > config file > defaults.
// cfgFile may be empty; a missing .env is not an error.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("APRIORI")
	v.AutomaticEnv()

	v.SetDefault("port", "8000")
	v.SetDefault("allowed_origins", []string{
		"http://localhost:3000", "http://localhost:3001", "http://127.0.0.1:3000",
	})
	v.SetDefault("data_dir", "./data")
	v.SetDefault("store", "file")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("max_upload_mb", 50)
	v.SetDefault("heuristics_file", "")
	v.SetDefault("min_support", 0.1)
	v.SetDefault("min_confidence", 0.5)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// plain PORT is what most hosting platforms set
	if p := os.Getenv("PORT"); p != "" && os.Getenv("APRIORI_PORT") == "" {
		c.Port = p
	}
	if c.SQLitePath == "" {
		c.SQLitePath = filepath.Join(c.DataDir, "apriori.db")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store {
	case "file", "sqlite":
	default:
		return fmt.Errorf("store must be file or sqlite, got %q", c.Store)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", c.MaxUploadMB)
	}
	if c.MinSupport <= 0 || c.MinSupport > 1 {
		return fmt.Errorf("min_support must be in (0, 1], got %v", c.MinSupport)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0, 1], got %v", c.MinConfidence)
	}
	return nil
}
