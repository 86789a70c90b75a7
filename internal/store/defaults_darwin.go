//go:build darwin

package store

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"
)

// defaultsDateLayout is the format `defaults` prints and accepts for -date.
const defaultsDateLayout = "2006-01-02 15:04:05 -0700"

// Defaults stores settings in a macOS UserDefaults domain through the
// `defaults` CLI, which is the per-user settings container of the platform.
// Dates are kept with second precision.
type Defaults struct {
	mu     sync.Mutex
	domain string
}

func newDefaults(domain string) (Backend, error) {
	if _, err := exec.LookPath("defaults"); err != nil {
		return nil, storageErr("open", "", err)
	}
	return &Defaults{domain: domain}, nil
}

func (d *Defaults) run(args ...string) (string, bool, error) {
	out, err := exec.Command("defaults", args...).CombinedOutput()
	s := strings.TrimSpace(string(out))
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", false, nil
		}
		return "", false, fmt.Errorf("defaults %s: %w, output: %s", args[0], err, s)
	}
	return s, true, nil
}

func (d *Defaults) Get(key string) (Value, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	typ, ok, err := d.run("read-type", d.domain, key)
	if err != nil {
		return Value{}, false, storageErr("get", key, err)
	}
	if !ok {
		return Value{}, false, nil
	}
	raw, ok, err := d.run("read", d.domain, key)
	if err != nil {
		return Value{}, false, storageErr("get", key, err)
	}
	if !ok {
		return Value{}, false, nil
	}

	switch strings.TrimPrefix(typ, "Type is ") {
	case "string":
		return String(raw), true, nil
	case "boolean":
		return Bool(raw == "1"), true, nil
	case "float", "integer":
		v, err := Decode(KindFloat, raw)
		if err != nil {
			return Value{}, true, storageErr("get", key, err)
		}
		return v, true, nil
	case "date":
		t, err := time.Parse(defaultsDateLayout, raw)
		if err != nil {
			return Value{}, true, storageErr("get", key, err)
		}
		return Time(t), true, nil
	default:
		return Value{}, true, storageErr("get", key, fmt.Errorf("unsupported defaults type %q", typ))
	}
}

func (d *Defaults) Set(key string, val Value) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var flag, arg string
	switch val.Kind {
	case KindString:
		flag, arg = "-string", val.Str
	case KindBool:
		flag, arg = "-bool", val.Text()
	case KindFloat:
		flag, arg = "-float", val.Text()
	case KindTime:
		flag, arg = "-date", val.Time.UTC().Format(defaultsDateLayout)
	default:
		return storageErr("set", key, fmt.Errorf("unsupported value kind %v", val.Kind))
	}
	if err := exec.Command("defaults", "write", d.domain, key, flag, arg).Run(); err != nil {
		return storageErr("set", key, err)
	}
	return nil
}

func (d *Defaults) Remove(key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok, err := d.run("read-type", d.domain, key); err != nil || !ok {
		if err != nil {
			return false, storageErr("remove", key, err)
		}
		return false, nil
	}
	if _, _, err := d.run("delete", d.domain, key); err != nil {
		return false, storageErr("remove", key, err)
	}
	return true, nil
}

func (d *Defaults) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Exit status 1 means the domain does not exist, which is already clear.
	if _, _, err := d.run("delete", d.domain); err != nil {
		return storageErr("clear", "", err)
	}
	return nil
}

func (d *Defaults) Keys() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out, err := exec.Command("defaults", "export", d.domain, "-").Output()
	if err != nil {
		return nil, storageErr("keys", "", err)
	}
	keys, err := plistTopLevelKeys(out)
	if err != nil {
		return nil, storageErr("keys", "", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (d *Defaults) Close() error { return nil }

// plistTopLevelKeys returns the <key> names of the root <dict> of an XML
// property list.
func plistTopLevelKeys(doc []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	var keys []string
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return keys, nil
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 3 && t.Name.Local == "key" {
				var k string
				if err := dec.DecodeElement(&k, &t); err != nil {
					return nil, err
				}
				keys = append(keys, k)
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
}
