// Package config loads compiler settings from a YAML file, STMTQL_*
// environment variables and .env files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/zoobzio/stmtql"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "STMTQL"

// Config holds compiler and connection settings.
type Config struct {
	Dialect         string `mapstructure:"dialect"`
	DatabaseVersion string `mapstructure:"database_version"`
	ParameterStyle  string `mapstructure:"parameter_style"`
	MinifyAliases   bool   `mapstructure:"minify_aliases"`
	DSN             string `mapstructure:"dsn"`
	LogLevel        string `mapstructure:"log_level"`
}

// Load reads path from fs, if given, and overlays STMTQL_* environment
// variables. A missing path is an error; an empty path reads the
// environment and defaults only.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("dialect", "postgres")
	v.SetDefault("database_version", "")
	v.SetDefault("parameter_style", "bind")
	v.SetDefault("minify_aliases", false)
	v.SetDefault("dsn", "")
	v.SetDefault("log_level", "info")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the dialect, parameter style and log level names.
func (c *Config) Validate() error {
	var errs []error
	if _, err := stmtql.ParseDialect(c.Dialect); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.style(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) style() (stmtql.ParameterStyle, error) {
	style, err := stmtql.ParseParameterStyle(c.ParameterStyle)
	if style == stmtql.StyleDefault {
		style = stmtql.StyleBind
	}
	return style, err
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return level, nil
}

// Options translates the configuration into compiler options.
func (c *Config) Options() ([]stmtql.Option, error) {
	style, err := c.style()
	if err != nil {
		return nil, err
	}
	opts := []stmtql.Option{stmtql.WithParameterStyle(style)}
	if c.DatabaseVersion != "" {
		opts = append(opts, stmtql.WithDatabaseVersion(c.DatabaseVersion))
	}
	if c.MinifyAliases {
		opts = append(opts, stmtql.WithMinifyAliases())
	}
	return opts, nil
}

// Compiler creates a compiler from the configuration. extra options are
// applied after the configured ones.
func (c *Config) Compiler(extra ...stmtql.Option) (*stmtql.Compiler, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	return stmtql.New(c.Dialect, append(opts, extra...)...)
}

// LoadEnvFiles sets variables from .env and then .env.local in fs.
// Variables already present in the environment are kept, except that
// .env.local overrides .env. Missing files are skipped.
func LoadEnvFiles(fs afero.Fs, dir string) error {
	loaded := map[string]string{}
	for _, name := range []string{".env", ".env.local"} {
		path := name
		if dir != "" {
			path = strings.TrimRight(dir, "/") + "/" + name
		}
		f, err := fs.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("open %s: %w", path, err)
		}
		vars, err := godotenv.Parse(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		for k, v := range vars {
			loaded[k] = v
		}
	}
	for k, v := range loaded {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	return nil
}
