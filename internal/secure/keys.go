package secure

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/99designs/keyring"
	"github.com/adrg/xdg"
)

const masterKeyItem = "master-key"

// KeySource supplies the per-user master key, creating one on first use.
type KeySource interface {
	MasterKey() ([]byte, error)
}

func newMasterKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generating master key: %w", err)
	}
	return key, nil
}

// persistentBackends excludes the session-scoped kernel keyring and the
// password-prompting file backend.
var persistentBackends = []keyring.BackendType{
	keyring.KeychainBackend,
	keyring.WinCredBackend,
	keyring.SecretServiceBackend,
	keyring.KWalletBackend,
	keyring.PassBackend,
}

// KeyringSource keeps the master key in the OS credential store (macOS
// Keychain, Secret Service, KWallet, Windows Credential Manager).
type KeyringSource struct {
	mu   sync.Mutex
	ring keyring.Keyring
}

// OpenKeyring opens the user's credential store under service.
func OpenKeyring(service string) (*KeyringSource, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:              service,
		KeychainTrustApplication: true,
		KeychainSynchronizable:   false,
		LibSecretCollectionName:  "login",
		KWalletAppID:             service,
		KWalletFolder:            service,
		WinCredPrefix:            service,
		AllowedBackends:          persistentBackends,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewKeyringSource(ring), nil
}

// NewKeyringSource wraps an already-open keyring.
func NewKeyringSource(ring keyring.Keyring) *KeyringSource {
	return &KeyringSource{ring: ring}
}

func (s *KeyringSource) MasterKey() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.ring.Get(masterKeyItem)
	if err == nil {
		if len(item.Data) != keySize {
			return nil, fmt.Errorf("%w: keyring master key has %d bytes", ErrCrypto, len(item.Data))
		}
		return item.Data, nil
	}
	if !errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, fmt.Errorf("reading master key from keyring: %w", err)
	}

	key, err := newMasterKey()
	if err != nil {
		return nil, err
	}
	if err := s.ring.Set(keyring.Item{
		Key:         masterKeyItem,
		Data:        key,
		Label:       "appsettings master key",
		Description: "Encrypts protected application settings",
	}); err != nil {
		return nil, fmt.Errorf("storing master key in keyring: %w", err)
	}
	return key, nil
}

// FileSource keeps the master key base64 encoded in a file readable only by
// the owner. It is the fallback for hosts without a credential store.
type FileSource struct {
	mu   sync.Mutex
	path string
}

// NewFileSource uses path, or $XDG_DATA_HOME/appsettings/master.key when
// path is empty.
func NewFileSource(path string) *FileSource {
	if path == "" {
		path = filepath.Join(xdg.DataHome, "appsettings", "master.key")
	}
	return &FileSource{path: path}
}

// Exists reports whether a key file is already present at the source's path.
func (s *FileSource) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

func (s *FileSource) MasterKey() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := s.read()
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	key, err = newMasterKey()
	if err != nil {
		return nil, err
	}
	if err := s.create(key); err != nil {
		// Another process created the file first; use its key.
		if errors.Is(err, fs.ErrExist) {
			return s.read()
		}
		return nil, err
	}
	return key, nil
}

func (s *FileSource) read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading master key file: %w", err)
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil || len(key) != keySize {
		return nil, fmt.Errorf("%w: master key file %s is malformed", ErrCrypto, s.path)
	}
	return key, nil
}

func (s *FileSource) create(key []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating key dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating master key file: %w", err)
	}
	if _, err := f.WriteString(base64.StdEncoding.EncodeToString(key) + "\n"); err != nil {
		f.Close()
		os.Remove(s.path)
		return fmt.Errorf("writing master key file: %w", err)
	}
	return f.Close()
}

// Open builds a SecretBox for the current OS user from src.
func Open(src KeySource) (*SecretBox, error) {
	master, err := src.MasterKey()
	if err != nil {
		return nil, err
	}
	identity, err := CurrentIdentity()
	if err != nil {
		return nil, err
	}
	return NewSecretBox(master, identity)
}
