// Package config loads bartos/bartoc process configuration, grounded on
// _examples/teranos-QNTX/am/load.go: a package-level cached Viper instance,
// TOML file sources, and environment-variable overrides, generalized from
// QNTX's multi-source precedence merge to a single-file-plus-env model
// (spec §2.3 — schedules themselves are never read from disk here).
package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/rustyhorde/barto-sub000/barto/errors"
)

// ServerConfig configures bartos.
type ServerConfig struct {
	ListenAddr   string `mapstructure:"listen_addr"`
	DatabasePath string `mapstructure:"database_path"`
	LogJSON      bool   `mapstructure:"log_json"`
}

// WorkerConfig configures bartoc.
type WorkerConfig struct {
	ServerURL string `mapstructure:"server_url"`
	Name      string `mapstructure:"name"`
	LogJSON   bool   `mapstructure:"log_json"`
}

// Config is the top-level on-disk / env configuration shape.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Worker WorkerConfig `mapstructure:"worker"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", "0.0.0.0:7780")
	v.SetDefault("server.database_path", "barto.db")
	v.SetDefault("server.log_json", false)
	v.SetDefault("worker.server_url", "ws://127.0.0.1:7780/ws")
	v.SetDefault("worker.name", "")
	v.SetDefault("worker.log_json", false)
}

// Load reads configuration from configPath (if non-empty) merged with
// BARTO_SECTION_KEY environment overrides (spec §2.3). An empty configPath
// loads defaults plus environment only.
func Load(configPath string) (*Config, *viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("BARTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, errors.Wrapf(err, "failed to read config file %s", configPath)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, v, nil
}

// WatchReload installs a fsnotify-backed hot-reload hook for non-schedule
// config (log format, listen address): whenever the backing file changes, v
// re-unmarshals into a fresh Config and onChange is invoked with it.
// Schedules are never loaded this way (spec §2.3's explicit non-goal).
func WatchReload(v *viper.Viper, onChange func(*Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			return
		}
		onChange(&cfg)
	})
	v.WatchConfig()
}
