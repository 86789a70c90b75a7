package config

import "os"

type keySpec struct {
	key     string
	env     string
	apply   func(cfg *Config, v string)
	extract func(cfg Config) string
}

var specs = []keySpec{
	{
		key: "store.backend", env: "APPSETTINGS_STORE_BACKEND",
		apply:   func(cfg *Config, v string) { cfg.Store.Backend = v },
		extract: func(cfg Config) string { return cfg.Store.Backend },
	},
	{
		key: "store.data_dir", env: "APPSETTINGS_STORE_DATA_DIR",
		apply:   func(cfg *Config, v string) { cfg.Store.DataDir = v },
		extract: func(cfg Config) string { return cfg.Store.DataDir },
	},
	{
		key: "crypto.key_source", env: "APPSETTINGS_CRYPTO_KEY_SOURCE",
		apply:   func(cfg *Config, v string) { cfg.Crypto.KeySource = v },
		extract: func(cfg Config) string { return cfg.Crypto.KeySource },
	},
	{
		key: "crypto.service", env: "APPSETTINGS_CRYPTO_SERVICE",
		apply:   func(cfg *Config, v string) { cfg.Crypto.Service = v },
		extract: func(cfg Config) string { return cfg.Crypto.Service },
	},
	{
		key: "crypto.key_file", env: "APPSETTINGS_CRYPTO_KEY_FILE",
		apply:   func(cfg *Config, v string) { cfg.Crypto.KeyFile = v },
		extract: func(cfg Config) string { return cfg.Crypto.KeyFile },
	},
	{
		key: "log.level", env: "APPSETTINGS_LOG_LEVEL",
		apply:   func(cfg *Config, v string) { cfg.Log.Level = v },
		extract: func(cfg Config) string { return cfg.Log.Level },
	},
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if raw := os.Getenv(s.env); raw != "" {
			s.apply(cfg, raw)
		}
	}
}
