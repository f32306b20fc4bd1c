// Package config loads the server configuration from flags, environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. INVENTAR_PORT.
const EnvPrefix = "INVENTAR"

// Config holds all server settings.
type Config struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	CacheDir          string        `mapstructure:"cache"`
	LogPath           string        `mapstructure:"log"`
	MaxUploadBytes    int64         `mapstructure:"max_upload"`
	PhotoMaxDimension int           `mapstructure:"photo_max_dimension"`
	BlobCacheTTL      time.Duration `mapstructure:"blob_cache_ttl"`
}

// Defaults returns the optional settings' defaults. Host, port and cache
// directory have none and must be supplied.
func Defaults() Config {
	return Config{
		MaxUploadBytes:    10 << 20,
		PhotoMaxDimension: 1024,
		BlobCacheTTL:      5 * time.Minute,
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks required settings and ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if c.Port == 0 {
		errs = append(errs, errors.New("port is required"))
	} else if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.CacheDir == "" {
		errs = append(errs, errors.New("cache directory is required"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("max_upload must be positive"))
	}
	if c.PhotoMaxDimension <= 0 {
		errs = append(errs, errors.New("photo_max_dimension must be positive"))
	}
	return errors.Join(errs...)
}

// Load merges defaults, the config file (if any), INVENTAR_* environment
// variables and the given flags, in increasing priority, and validates the
// result.
func Load(v *viper.Viper, flags *pflag.FlagSet, configFile string) (Config, error) {
	d := Defaults()
	v.SetDefault("max_upload", d.MaxUploadBytes)
	v.SetDefault("photo_max_dimension", d.PhotoMaxDimension)
	v.SetDefault("blob_cache_ttl", d.BlobCacheTTL)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"host", "port", "cache", "log"} {
		_ = v.BindEnv(key)
	}

	if flags != nil {
		bindings := map[string]string{
			"host":                "host",
			"port":                "port",
			"cache":               "cache",
			"log":                 "log",
			"max_upload":          "max-upload",
			"photo_max_dimension": "photo-max-dimension",
		}
		for key, name := range bindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
