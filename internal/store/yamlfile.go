package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type yamlEntry struct {
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
}

// YAMLFile stores settings as a flat YAML document. Dotted keys such as
// "Ui.Language" are literal map keys, not nested paths. The whole document
// is rewritten atomically on every mutation.
type YAMLFile struct {
	mu   sync.Mutex
	path string
	data map[string]yamlEntry
}

// OpenYAMLFile loads path if it exists. A missing file is an empty store and
// is created on the first mutation.
func OpenYAMLFile(path string) (*YAMLFile, error) {
	f := &YAMLFile{path: path, data: make(map[string]yamlEntry)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, storageErr("open", "", err)
	}
	if len(raw) == 0 {
		return f, nil
	}
	if err := yaml.Unmarshal(raw, &f.data); err != nil {
		return nil, storageErr("parse", "", err)
	}
	if f.data == nil {
		f.data = make(map[string]yamlEntry)
	}
	return f, nil
}

func (f *YAMLFile) Get(key string) (Value, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.data[key]
	if !ok {
		return Value{}, false, nil
	}
	k, err := ParseKind(e.Kind)
	if err != nil {
		return Value{}, true, storageErr("get", key, err)
	}
	v, err := Decode(k, e.Value)
	if err != nil {
		return Value{}, true, storageErr("get", key, err)
	}
	return v, true, nil
}

func (f *YAMLFile) Set(key string, val Value) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.data[key]
	f.data[key] = yamlEntry{Kind: val.Kind.String(), Value: val.Text()}
	if err := f.save(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return storageErr("set", key, err)
	}
	return nil
}

func (f *YAMLFile) Remove(key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, ok := f.data[key]
	if !ok {
		return false, nil
	}
	delete(f.data, key)
	if err := f.save(); err != nil {
		f.data[key] = prev
		return false, storageErr("remove", key, err)
	}
	return true, nil
}

func (f *YAMLFile) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev := f.data
	f.data = make(map[string]yamlEntry)
	if err := f.save(); err != nil {
		f.data = prev
		return storageErr("clear", "", err)
	}
	return nil
}

func (f *YAMLFile) Keys() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *YAMLFile) Close() error { return nil }

// save must be called with mu held.
func (f *YAMLFile) save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}
	raw, err := yaml.Marshal(f.data)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return atomicWrite(f.path, raw)
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp." + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
