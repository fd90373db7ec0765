// Package config loads runtime settings from defaults, an optional
// timesflying.yaml, TIMESFLYING_* environment variables and command flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "TIMESFLYING"
	FileName  = "timesflying"

	keyDB          = "db"
	keyLogLevel    = "log_level"
	keyTick        = "tick"
	keyShowSeconds = "show_seconds"
	keyPerPage     = "per_page"
)

type Config struct {
	DBPath      string
	LogLevel    slog.Level
	Tick        time.Duration
	ShowSeconds bool
	PerPage     int
}

// Dir is the per-user data directory, ~/.timesflying.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".timesflying"
	}
	return filepath.Join(home, ".timesflying")
}

// DefaultDBPath is where the database lives when nothing overrides it.
func DefaultDBPath() string {
	return filepath.Join(Dir(), "timesflying.db")
}

// Load resolves the configuration. An empty configFile searches for
// timesflying.yaml in Dir() and the working directory; a missing file is
// not an error in that case. flags may be nil; its "db" and "log-level"
// flags override everything else when set.
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetDefault(keyDB, DefaultDBPath())
	v.SetDefault(keyLogLevel, "warn")
	v.SetDefault(keyTick, time.Second)
	v.SetDefault(keyShowSeconds, true)
	v.SetDefault(keyPerPage, 30)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range map[string]string{keyDB: "db", keyLogLevel: "log-level"} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := Config{
		DBPath:      expandHome(v.GetString(keyDB)),
		Tick:        v.GetDuration(keyTick),
		ShowSeconds: v.GetBool(keyShowSeconds),
		PerPage:     v.GetInt(keyPerPage),
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString(keyLogLevel))); err != nil {
		return Config{}, fmt.Errorf("log level: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %s", c.Tick)
	}
	if c.PerPage <= 0 {
		return fmt.Errorf("per_page must be positive, got %d", c.PerPage)
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
