package settings

import (
	"errors"
	"sync"
)

// ErrRegistryClosed is returned by a Registry used after Close.
var ErrRegistryClosed = errors.New("settings registry closed")

// Opener builds the Store a Registry hands out.
type Opener func() (*Store, error)

// Registry lazily builds one Store and its Facade and shares them with every
// caller. It is owned by whoever starts the application and passed down
// explicitly; there is no package-level instance.
type Registry struct {
	open Opener

	once   sync.Once
	mu     sync.Mutex
	store  *Store
	facade *Facade
	err    error
}

func NewRegistry(open Opener) *Registry {
	return &Registry{open: open}
}

func (r *Registry) init() {
	r.once.Do(func() {
		s, err := r.open()
		r.mu.Lock()
		defer r.mu.Unlock()
		if err != nil {
			r.err = err
			return
		}
		r.store = s
		r.facade = NewFacade(s)
	})
}

// Store returns the shared Store, opening it on first use. A failed open is
// remembered and returned to every later caller.
func (r *Registry) Store() (*Store, error) {
	r.init()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store, r.err
}

// Facade returns the Facade over the shared Store.
func (r *Registry) Facade() (*Facade, error) {
	r.init()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.facade, r.err
}

// Close releases the Store if it was opened. Later calls to Store or Facade
// return ErrRegistryClosed.
func (r *Registry) Close() error {
	r.once.Do(func() {})

	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.store
	r.store, r.facade, r.err = nil, nil, ErrRegistryClosed
	if s == nil {
		return nil
	}
	return s.Close()
}
