// Package settings is the typed settings layer: a Store with one accessor
// pair per supported kind over a store.Backend, optional per-call encryption,
// and a Facade naming the application's fixed set of settings.
//
// Writes report every failure. Reads never fail for a well-formed key: an
// absent or unreadable value yields the caller's default, and the Lookup
// variants say which of the two happened.
package settings

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/appsettings/internal/secure"
	"github.com/kalambet/appsettings/internal/store"
)

// Store is the typed get/set layer over a Backend. It is safe for concurrent
// use when the Backend is.
type Store struct {
	backend store.Backend
	box     secure.Box
	logger  *slog.Logger
}

// StoreOption configures a Store at construction.
type StoreOption func(*Store)

// WithLogger sets the logger used for failed reads and writes.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New wraps backend. box may be nil, in which case encrypted calls fail with
// secure.ErrCrypto.
func New(backend store.Backend, box secure.Box, opts ...StoreOption) *Store {
	s := &Store{
		backend: backend,
		box:     box,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type callOptions struct {
	encrypted bool
}

// Option adjusts a single Get, Lookup or Set call.
type Option func(*callOptions)

// Encrypted stores the value as ciphertext, or decrypts it on read. A value
// must be read with the same setting it was written with.
func Encrypted(o *callOptions) { o.encrypted = true }

// EncryptedIf is Encrypted when on is true and a no-op otherwise.
func EncryptedIf(on bool) Option {
	return func(o *callOptions) { o.encrypted = o.encrypted || on }
}

func resolve(opts []Option) callOptions {
	var o callOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

var errNoBox = fmt.Errorf("%w: no encryption configured", secure.ErrCrypto)

func (s *Store) set(key string, val store.Value, opts []Option) error {
	if err := store.ValidateKey(key); err != nil {
		s.logger.Error("settings: write rejected", "key", key, "error", err)
		return err
	}
	o := resolve(opts)

	if o.encrypted {
		if s.box == nil {
			s.logger.Error("settings: write failed", "key", key, "error", errNoBox)
			return errNoBox
		}
		ct, err := s.box.Encrypt(val.Text())
		if err != nil {
			s.logger.Error("settings: encrypt failed", "key", key, "error", err)
			return fmt.Errorf("encrypting %s: %w", key, err)
		}
		val = store.String(ct)
	}

	if err := s.backend.Set(key, val); err != nil {
		s.logger.Error("settings: write failed", "key", key, "encrypted", o.encrypted, "error", err)
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func lookup[T any](s *Store, key string, def T, conv func(store.Value) (T, error), opts []Option) (Result[T], error) {
	if err := store.ValidateKey(key); err != nil {
		return Result[T]{Value: def, Source: SourceFallback, Err: err}, err
	}
	o := resolve(opts)

	fallback := func(err error) (Result[T], error) {
		s.logger.Warn("settings: read failed, using default", "key", key, "encrypted", o.encrypted, "error", err)
		return Result[T]{Value: def, Source: SourceFallback, Err: err}, nil
	}

	raw, ok, err := s.backend.Get(key)
	if err != nil {
		return fallback(fmt.Errorf("reading %s: %w", key, err))
	}
	if !ok {
		return Result[T]{Value: def, Source: SourceAbsent}, nil
	}

	if o.encrypted {
		if s.box == nil {
			return fallback(errNoBox)
		}
		text, err := s.box.Decrypt(raw.Text())
		if err != nil {
			return fallback(fmt.Errorf("decrypting %s: %w", key, err))
		}
		raw = store.String(text)
	}

	v, err := conv(raw)
	if err != nil {
		return fallback(fmt.Errorf("converting %s: %w", key, err))
	}
	return Result[T]{Value: v, Source: SourceStored}, nil
}

func (s *Store) SetString(key, v string, opts ...Option) error {
	return s.set(key, store.String(v), opts)
}

func (s *Store) SetBool(key string, v bool, opts ...Option) error {
	return s.set(key, store.Bool(v), opts)
}

func (s *Store) SetFloat(key string, v float64, opts ...Option) error {
	return s.set(key, store.Float(v), opts)
}

func (s *Store) SetTime(key string, v time.Time, opts ...Option) error {
	return s.set(key, store.Time(v), opts)
}

// LookupString is GetString with the origin of the value attached. The error
// is non-nil only for an invalid key.
func (s *Store) LookupString(key, def string, opts ...Option) (Result[string], error) {
	return lookup(s, key, def, asString, opts)
}

func (s *Store) LookupBool(key string, def bool, opts ...Option) (Result[bool], error) {
	return lookup(s, key, def, asBool, opts)
}

func (s *Store) LookupFloat(key string, def float64, opts ...Option) (Result[float64], error) {
	return lookup(s, key, def, asFloat, opts)
}

func (s *Store) LookupTime(key string, def time.Time, opts ...Option) (Result[time.Time], error) {
	return lookup(s, key, def, asTime, opts)
}

// GetString returns the stored string or def. The error is non-nil only for
// an invalid key; every other failure is logged and yields def.
func (s *Store) GetString(key, def string, opts ...Option) (string, error) {
	r, err := s.LookupString(key, def, opts...)
	return r.Value, err
}

func (s *Store) GetBool(key string, def bool, opts ...Option) (bool, error) {
	r, err := s.LookupBool(key, def, opts...)
	return r.Value, err
}

func (s *Store) GetFloat(key string, def float64, opts ...Option) (float64, error) {
	r, err := s.LookupFloat(key, def, opts...)
	return r.Value, err
}

func (s *Store) GetTime(key string, def time.Time, opts ...Option) (time.Time, error) {
	r, err := s.LookupTime(key, def, opts...)
	return r.Value, err
}

// Raw returns the stored value as-is, without decryption or conversion.
func (s *Store) Raw(key string) (store.Value, bool, error) {
	if err := store.ValidateKey(key); err != nil {
		return store.Value{}, false, err
	}
	return s.backend.Get(key)
}

// Remove deletes key. It reports false, never an error, when the key is
// invalid, absent or could not be removed.
func (s *Store) Remove(key string) bool {
	if store.ValidateKey(key) != nil {
		return false
	}
	removed, err := s.backend.Remove(key)
	if err != nil {
		s.logger.Error("settings: remove failed", "key", key, "error", err)
		return false
	}
	return removed
}

// Clear deletes every setting. It reports false when the backend failed.
func (s *Store) Clear() bool {
	if err := s.backend.Clear(); err != nil {
		s.logger.Error("settings: clear failed", "error", err)
		return false
	}
	return true
}

// Keys lists the stored keys in ascending order.
func (s *Store) Keys() ([]string, error) {
	keys, err := s.backend.Keys()
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	return keys, nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}

