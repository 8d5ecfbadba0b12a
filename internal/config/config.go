// Package config loads memory-stream settings from defaults, an optional
// YAML file, MEMORY_STREAM_* environment variables and bound flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/rcliao/memory-stream/internal/embedding"
	"github.com/rcliao/memory-stream/internal/importance"
	"github.com/rcliao/memory-stream/internal/model"
	"github.com/rcliao/memory-stream/internal/scoring"
)

// EnvPrefix prefixes every environment variable, e.g. MEMORY_STREAM_DIR or
// MEMORY_STREAM_EMBEDDING_PROVIDER.
const EnvPrefix = "MEMORY_STREAM"

type Config struct {
	Dir         string              `mapstructure:"dir" yaml:"dir"`
	Dimensions  int                 `mapstructure:"dimensions" yaml:"dimensions"`
	DecayRate   float64             `mapstructure:"decay_rate" yaml:"decay_rate"`
	BaseResults int                 `mapstructure:"base_results" yaml:"base_results"`
	Weights     scoring.Weights     `mapstructure:"weights" yaml:"weights"`
	Embedding   embedding.Settings  `mapstructure:"embedding" yaml:"embedding"`
	Rating      importance.Settings `mapstructure:"rating" yaml:"rating"`
	LogLevel    string              `mapstructure:"log_level" yaml:"log_level"`
}

// New returns a viper instance with defaults and environment binding set up.
// Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("dir", ".")
	v.SetDefault("dimensions", embedding.DefaultDims)
	v.SetDefault("decay_rate", scoring.DefaultDecayRate)
	v.SetDefault("base_results", 50)
	v.SetDefault("weights.alpha", 1.0)
	v.SetDefault("weights.beta", 1.0)
	v.SetDefault("weights.gamma", 1.0)
	v.SetDefault("embedding.provider", "hash")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.url", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.cache", "")
	v.SetDefault("rating.provider", "static")
	v.SetDefault("rating.model", "")
	v.SetDefault("rating.url", "")
	v.SetDefault("rating.api_key", "")
	v.SetDefault("rating.static", 5)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultFile is $HOME/.memory-stream/config.yaml.
func DefaultFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".memory-stream", "config.yaml")
}

// Load reads file (or the default file when empty and present) into v and
// decodes the result. An explicitly named file must exist.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else if def := DefaultFile(); def != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Dir(def))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if strings.HasPrefix(cfg.Dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Dir = filepath.Join(home, cfg.Dir[2:])
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks numeric settings against their ranges.
func (c *Config) Validate() error {
	switch {
	case c.Dimensions <= 0:
		return fmt.Errorf("dimensions = %d: %w", c.Dimensions, model.ErrRange)
	case c.DecayRate < 0:
		return fmt.Errorf("decay_rate = %v: %w", c.DecayRate, model.ErrRange)
	case c.BaseResults <= 0:
		return fmt.Errorf("base_results = %d: %w", c.BaseResults, model.ErrRange)
	case c.Rating.Static < scoring.MinRating || c.Rating.Static > scoring.MaxRating:
		return fmt.Errorf("rating.static = %d: %w", c.Rating.Static, model.ErrRange)
	}
	return nil
}
