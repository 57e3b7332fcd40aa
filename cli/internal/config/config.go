// Package config loads CLI defaults from config files and the
// environment.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem abstraction used by the CLI.
var AppFs = afero.NewOsFs()

// Config holds CLI defaults. Flags override config values, config
// values override the built-in defaults.
type Config struct {
	// Format is the default output format for query results.
	Format string `mapstructure:"format"`

	// RowLimit caps buffered table output. Zero means unlimited.
	RowLimit int `mapstructure:"row_limit"`

	// LogLevel is the default log level.
	LogLevel string `mapstructure:"log_level"`

	// NoColor disables colored output.
	NoColor bool `mapstructure:"no_color"`
}

// LoadConfig loads configuration from files and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".dapsql")
	v.SetConfigType("yaml")

	// Search paths: current dir, home dir, ~/.config/dapsql
	v.AddConfigPath(".")
	home, err := homedir.Dir()
	if err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "dapsql"))
	}

	// Environment variables: DAPSQL_FORMAT, DAPSQL_LOG_LEVEL, ...
	v.SetEnvPrefix("DAPSQL")
	v.AutomaticEnv()

	v.SetDefault("format", "table")
	v.SetDefault("row_limit", 500)
	v.SetDefault("log_level", "warn")
	v.SetDefault("no_color", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// LoadEnvFiles loads .env files from the current directory so that
// dataset configs can reference connection strings as env:VAR without
// the variables living in the shell.
func LoadEnvFiles() {
	// .env is loaded first, .env.local overrides it.
	godotenv.Load(".env")
	godotenv.Overload(".env.local")
}
