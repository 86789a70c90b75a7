package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"

	"github.com/kalambet/appsettings/internal/config"
	"github.com/kalambet/appsettings/internal/secure"
)

func TestOpen_FromConfig(t *testing.T) {
	if _, err := secure.CurrentIdentity(); err != nil {
		t.Skipf("no current user: %v", err)
	}
	dir := t.TempDir()

	for _, backend := range []string{"sqlite", "yaml", "memory"} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.Config{
				Store:  config.StoreConfig{Backend: backend, DataDir: filepath.Join(dir, backend)},
				Crypto: config.CryptoConfig{KeySource: config.KeySourceFile, KeyFile: filepath.Join(dir, "master.key")},
				Log:    config.LogConfig{Level: "info"},
			}
			s, err := Open(cfg, nil)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer s.Close()

			f := NewFacade(s)
			if err := f.SetEmail("a@b.com"); err != nil {
				t.Fatal(err)
			}
			if got := f.Email(); got != "a@b.com" {
				t.Errorf("Email = %q", got)
			}
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := secure.CurrentIdentity(); err != nil {
		t.Skipf("no current user: %v", err)
	}
	dir := t.TempDir()
	cfg := config.Config{
		Store:  config.StoreConfig{Backend: "etcd", DataDir: dir},
		Crypto: config.CryptoConfig{KeySource: config.KeySourceFile, KeyFile: filepath.Join(dir, "master.key")},
	}
	if _, err := Open(cfg, nil); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func stubKeyring(t *testing.T, open func(service string) (*secure.KeyringSource, error)) {
	t.Helper()
	old := openKeyring
	openKeyring = open
	t.Cleanup(func() { openKeyring = old })
}

func autoConfig(dir string) config.Config {
	return config.Config{
		Store:  config.StoreConfig{Backend: "yaml", DataDir: filepath.Join(dir, "data")},
		Crypto: config.CryptoConfig{KeySource: config.KeySourceAuto, Service: "appsettings-test", KeyFile: filepath.Join(dir, "master.key")},
	}
}

func TestOpen_AutoKeepsExistingKeyFile(t *testing.T) {
	if _, err := secure.CurrentIdentity(); err != nil {
		t.Skipf("no current user: %v", err)
	}
	dir := t.TempDir()
	cfg := autoConfig(dir)

	// First run: no keyring, so the key file is created and used.
	stubKeyring(t, func(string) (*secure.KeyringSource, error) {
		return nil, errors.New("no keyring backend")
	})
	s, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := NewFacade(s).SetEmail("a@b.com"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Second run: the keyring works, but the existing key file must win.
	ring := keyring.NewArrayKeyring(nil)
	stubKeyring(t, func(string) (*secure.KeyringSource, error) {
		return secure.NewKeyringSource(ring), nil
	})
	s, err = Open(cfg, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	r, err := s.LookupString(KeyEmail, "", Encrypted)
	if err != nil {
		t.Fatal(err)
	}
	if r.Value != "a@b.com" || r.Source != SourceStored {
		t.Errorf("Email after reopen = %q (%v, %v), want a@b.com stored", r.Value, r.Source, r.Err)
	}
	if keys, _ := ring.Keys(); len(keys) != 0 {
		t.Errorf("keyring gained a master key: %v", keys)
	}
}

func TestOpen_AutoPrefersKeyringWithoutKeyFile(t *testing.T) {
	if _, err := secure.CurrentIdentity(); err != nil {
		t.Skipf("no current user: %v", err)
	}
	dir := t.TempDir()
	cfg := autoConfig(dir)

	ring := keyring.NewArrayKeyring(nil)
	stubKeyring(t, func(string) (*secure.KeyringSource, error) {
		return secure.NewKeyringSource(ring), nil
	})
	s, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if keys, _ := ring.Keys(); len(keys) != 1 {
		t.Errorf("keyring keys = %v, want the master key", keys)
	}
	if _, err := os.Stat(cfg.Crypto.KeyFile); !os.IsNotExist(err) {
		t.Errorf("key file created while the keyring was usable: %v", err)
	}
}
