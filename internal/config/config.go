// Package config loads opgraph settings from a config file and the
// environment.
//
// Without an explicit path the file config.yaml is searched in the
// working directory and in $HOME/.opgraph. Every key can be overridden by
// an environment variable with the OPGRAPH_ prefix, dots replaced by
// underscores (OPGRAPH_LOG_LEVEL, OPGRAPH_VALIDATE_WORKERS).
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/born-ml/opgraph/internal/logging"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "OPGRAPH"

// Config is the full set of settings.
type Config struct {
	Log logging.Config `mapstructure:"log"`

	// Catalogs lists extra operator catalog files imported after the
	// built-in ones.
	Catalogs []string `mapstructure:"catalogs"`

	Validate ValidateConfig `mapstructure:"validate"`
}

// ValidateConfig tunes graph validation.
type ValidateConfig struct {
	// Workers bounds concurrent node validation; 0 uses GOMAXPROCS.
	Workers int `mapstructure:"workers"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatConsole)
	v.SetDefault("catalogs", []string{})
	v.SetDefault("validate.workers", 0)
}

// Load reads settings into v and decodes them. An explicit path must
// exist; a missing default file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.opgraph")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Check reports settings that cannot be used.
func (c *Config) Check() error {
	if c.Validate.Workers < 0 {
		return fmt.Errorf("validate.workers must not be negative, got %d", c.Validate.Workers)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
