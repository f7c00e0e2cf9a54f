// Package config loads gpxinspect settings from defaults, an optional config
// file, a .env file and GPXINSPECT_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. GPXINSPECT_LOGLEVEL.
	EnvPrefix = "GPXINSPECT"
	// FileName is the config file base name searched for when none is given.
	FileName = "gpxinspect"
)

// Config holds every gpxinspect setting.
type Config struct {
	LogLevel        string `json:"logLevel" mapstructure:"logLevel"`
	Language        string `json:"language" mapstructure:"language"`
	Timezone        string `json:"timezone" mapstructure:"timezone"`
	StrictSegments  bool   `json:"strictSegments" mapstructure:"strictSegments"`
	BlankTimeAsZero bool   `json:"blankTimeAsZero" mapstructure:"blankTimeAsZero"`

	Store StoreConfig `json:"store" mapstructure:"store"`
}

// StoreConfig holds the persistence settings.
type StoreConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Driver     string `json:"driver" mapstructure:"driver"`
	SQLitePath string `json:"sqlitePath" mapstructure:"sqlitePath"`
	DSN        string `json:"dsn" mapstructure:"dsn"`
}

// Location resolves Timezone, "Local" and "" meaning the system zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("language", "en")
	v.SetDefault("timezone", "Local")
	v.SetDefault("strictSegments", false)
	v.SetDefault("blankTimeAsZero", false)

	v.SetDefault("store.enabled", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlitePath", "gpxinspect.db")
	v.SetDefault("store.dsn", "")
}

// Load reads the configuration. When file is set it must exist; otherwise a
// gpxinspect.{json,yaml,...} is looked up in dirs (default: the working
// directory) and silently skipped when absent.
func Load(file string, dirs ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		if len(dirs) == 0 {
			dirs = []string{"."}
		}
		v.SetConfigName(FileName)
		for _, dir := range dirs {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("store.driver %q: must be sqlite or postgres", c.Store.Driver)
	}
	if c.Store.Enabled && c.Store.Driver == "postgres" && c.Store.DSN == "" {
		return fmt.Errorf("store.dsn: required for the postgres driver")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// LoadDotEnv exports the variables of the given .env files (default: ./.env)
// into the process environment without overriding variables already set.
// Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
