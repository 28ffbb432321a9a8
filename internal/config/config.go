// Package config loads worldtool's runtime configuration: which world
// directory to operate on, how verbose to log, and whether debug
// instrumentation is enabled, layered from a config file, environment
// variables, and built-in defaults via viper.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is worldtool's resolved configuration.
type Config struct {
	World   WorldConfig   `mapstructure:"world" json:"world"`
	Logging LoggingConfig `mapstructure:"logging" json:"logging"`
}

// WorldConfig locates the world directory this run operates on.
type WorldConfig struct {
	Path  string `mapstructure:"path" json:"path"`
	Debug bool   `mapstructure:"debug" json:"debug"`
}

// LoggingConfig controls the ambient slog logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"` // "text" or "json"
}

// Load resolves Config from (in ascending priority) built-in defaults,
// a `worldtool.yaml` found in configPath, the working directory, or
// ./config, and
// WORLDTOOL_-prefixed environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("worldtool")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.SetEnvPrefix("WORLDTOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.World.Path != "" {
		abs, err := filepath.Abs(cfg.World.Path)
		if err != nil {
			return nil, fmt.Errorf("invalid world path: %w", err)
		}
		cfg.World.Path = abs
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("world.path", "")
	v.SetDefault("world.debug", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}
