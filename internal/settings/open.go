package settings

import (
	"fmt"
	"log/slog"

	"github.com/kalambet/appsettings/internal/config"
	"github.com/kalambet/appsettings/internal/secure"
	"github.com/kalambet/appsettings/internal/store"
)

// Open builds a Store from cfg: the configured backend plus a SecretBox
// keyed for the current OS user.
func Open(cfg config.Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	box, err := openBox(cfg.Crypto, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	backend, err := store.Open(cfg.Store.Backend, cfg.Store.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", cfg.Store.Backend, err)
	}
	logger.Debug("settings store opened", "backend", cfg.Store.Backend, "data_dir", cfg.Store.DataDir)

	return New(backend, box, WithLogger(logger)), nil
}

// openKeyring is replaced in tests.
var openKeyring = secure.OpenKeyring

// openBox picks the master key source. In auto mode an existing key file
// wins over the keyring, so values sealed while the keyring was unavailable
// stay readable once it comes back.
func openBox(c config.CryptoConfig, logger *slog.Logger) (*secure.SecretBox, error) {
	file := secure.NewFileSource(c.KeyFile)

	switch c.KeySource {
	case config.KeySourceFile:
		return secure.Open(file)
	case config.KeySourceKeyring:
		src, err := openKeyring(c.Service)
		if err != nil {
			return nil, err
		}
		return secure.Open(src)
	default:
		if file.Exists() {
			logger.Debug("using existing master key file")
			return secure.Open(file)
		}
		src, err := openKeyring(c.Service)
		if err == nil {
			box, err := secure.Open(src)
			if err == nil {
				return box, nil
			}
			logger.Warn("OS keyring unusable, falling back to key file", "error", err)
		} else {
			logger.Warn("OS keyring unavailable, falling back to key file", "error", err)
		}
		return secure.Open(file)
	}
}
