// Package config loads the runtime configuration of appsettings itself:
// which backend holds the settings, where the master key lives and how
// verbose logging is. It is distinct from the user settings the application
// stores.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

type Config struct {
	Store  StoreConfig  `toml:"store"`
	Crypto CryptoConfig `toml:"crypto"`
	Log    LogConfig    `toml:"log"`
}

type StoreConfig struct {
	Backend string `toml:"backend"`
	DataDir string `toml:"data_dir"`
}

type CryptoConfig struct {
	KeySource string `toml:"key_source"`
	Service   string `toml:"service"`
	KeyFile   string `toml:"key_file"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Key sources accepted in crypto.key_source.
const (
	KeySourceAuto    = "auto"
	KeySourceKeyring = "keyring"
	KeySourceFile    = "file"
)

func defaults() Config {
	return Config{
		Store: StoreConfig{
			Backend: "sqlite",
			DataDir: filepath.Join(xdg.DataHome, "appsettings"),
		},
		Crypto: CryptoConfig{
			KeySource: KeySourceAuto,
			Service:   "appsettings",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/appsettings/config.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "appsettings", "config.toml")
}

// Load reads configuration from the default path. A missing file is not an
// error; defaults apply.
//
// Environment variables (APPSETTINGS_*) override file values.
func Load() (Config, error) {
	return loadFromPath(DefaultPath())
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (Config, error) {
	return loadFromPath(path)
}

func loadFromPath(path string) (Config, error) {
	cfg := defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case "sqlite", "yaml", "memory", "defaults":
	default:
		return fmt.Errorf("invalid store.backend %q: want sqlite, yaml, memory or defaults", c.Store.Backend)
	}
	if c.Store.DataDir == "" && c.Store.Backend != "memory" && c.Store.Backend != "defaults" {
		return fmt.Errorf("missing required config: store.data_dir")
	}
	switch c.Crypto.KeySource {
	case KeySourceAuto, KeySourceKeyring, KeySourceFile:
	default:
		return fmt.Errorf("invalid crypto.key_source %q: want auto, keyring or file", c.Crypto.KeySource)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps log.level onto a slog level. Unknown names fall back to info.
func (l LogConfig) SlogLevel() slog.Level {
	lvl, err := parseLevel(l.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log.level %q: %w", s, err)
	}
	return lvl, nil
}
