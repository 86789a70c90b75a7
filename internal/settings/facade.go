package settings

import (
	"fmt"
	"time"

	"github.com/kalambet/appsettings/internal/store"
)

const (
	KeyUsername     = "User.Username"
	KeyEmail        = "User.Email"
	KeyIsDarkMode   = "Ui.IsDarkMode"
	KeyLanguage     = "Ui.Language"
	KeyWindowWidth  = "Window.Width"
	KeyWindowHeight = "Window.Height"
	KeyLastLogin    = "App.LastLogin"
	KeyIsFirstRun   = "App.IsFirstRun"
)

const (
	DefaultLanguage     = "en-US"
	DefaultWindowWidth  = 1200.0
	DefaultWindowHeight = 800.0
)

// Facade exposes the application's settings as named, typed properties.
// Each property is a direct pass-through to the Store with a fixed key,
// default and encryption policy.
type Facade struct {
	store *Store
	now   func() time.Time
}

func NewFacade(s *Store) *Facade {
	return &Facade{store: s, now: time.Now}
}

// Store returns the Store the facade reads and writes.
func (f *Facade) Store() *Store { return f.store }

func (f *Facade) Username() string {
	v, _ := f.store.GetString(KeyUsername, "")
	return v
}

func (f *Facade) SetUsername(v string) error {
	return f.store.SetString(KeyUsername, v)
}

func (f *Facade) Email() string {
	v, _ := f.store.GetString(KeyEmail, "", Encrypted)
	return v
}

func (f *Facade) SetEmail(v string) error {
	return f.store.SetString(KeyEmail, v, Encrypted)
}

func (f *Facade) IsDarkMode() bool {
	v, _ := f.store.GetBool(KeyIsDarkMode, false)
	return v
}

func (f *Facade) SetIsDarkMode(v bool) error {
	return f.store.SetBool(KeyIsDarkMode, v)
}

// Language never returns an empty string.
func (f *Facade) Language() string {
	v, _ := f.store.GetString(KeyLanguage, DefaultLanguage)
	if v == "" {
		return DefaultLanguage
	}
	return v
}

func (f *Facade) SetLanguage(v string) error {
	return f.store.SetString(KeyLanguage, v)
}

func (f *Facade) WindowWidth() float64 {
	v, _ := f.store.GetFloat(KeyWindowWidth, DefaultWindowWidth)
	return v
}

func (f *Facade) SetWindowWidth(v float64) error {
	return f.store.SetFloat(KeyWindowWidth, v)
}

func (f *Facade) WindowHeight() float64 {
	v, _ := f.store.GetFloat(KeyWindowHeight, DefaultWindowHeight)
	return v
}

func (f *Facade) SetWindowHeight(v float64) error {
	return f.store.SetFloat(KeyWindowHeight, v)
}

// LastLoginDate defaults to the current time when never recorded.
func (f *Facade) LastLoginDate() time.Time {
	v, _ := f.store.GetTime(KeyLastLogin, f.now())
	return v
}

func (f *Facade) SetLastLoginDate(v time.Time) error {
	return f.store.SetTime(KeyLastLogin, v)
}

func (f *Facade) IsFirstRun() bool {
	v, _ := f.store.GetBool(KeyIsFirstRun, true)
	return v
}

func (f *Facade) SetIsFirstRun(v bool) error {
	return f.store.SetBool(KeyIsFirstRun, v)
}

// Property describes one facade setting for listing and generic editing.
type Property struct {
	Name      string
	Key       string
	Kind      store.Kind
	Encrypted bool

	get func(f *Facade) store.Value
	set func(f *Facade, v store.Value) error
}

// Properties is the fixed catalog behind the Facade, in display order.
var Properties = []Property{
	{
		Name: "Username", Key: KeyUsername, Kind: store.KindString,
		get: func(f *Facade) store.Value { return store.String(f.Username()) },
		set: func(f *Facade, v store.Value) error { return f.SetUsername(v.Str) },
	},
	{
		Name: "Email", Key: KeyEmail, Kind: store.KindString, Encrypted: true,
		get: func(f *Facade) store.Value { return store.String(f.Email()) },
		set: func(f *Facade, v store.Value) error { return f.SetEmail(v.Str) },
	},
	{
		Name: "IsDarkMode", Key: KeyIsDarkMode, Kind: store.KindBool,
		get: func(f *Facade) store.Value { return store.Bool(f.IsDarkMode()) },
		set: func(f *Facade, v store.Value) error { return f.SetIsDarkMode(v.Bool) },
	},
	{
		Name: "Language", Key: KeyLanguage, Kind: store.KindString,
		get: func(f *Facade) store.Value { return store.String(f.Language()) },
		set: func(f *Facade, v store.Value) error { return f.SetLanguage(v.Str) },
	},
	{
		Name: "WindowWidth", Key: KeyWindowWidth, Kind: store.KindFloat,
		get: func(f *Facade) store.Value { return store.Float(f.WindowWidth()) },
		set: func(f *Facade, v store.Value) error { return f.SetWindowWidth(v.Num) },
	},
	{
		Name: "WindowHeight", Key: KeyWindowHeight, Kind: store.KindFloat,
		get: func(f *Facade) store.Value { return store.Float(f.WindowHeight()) },
		set: func(f *Facade, v store.Value) error { return f.SetWindowHeight(v.Num) },
	},
	{
		Name: "LastLoginDate", Key: KeyLastLogin, Kind: store.KindTime,
		get: func(f *Facade) store.Value { return store.Time(f.LastLoginDate()) },
		set: func(f *Facade, v store.Value) error { return f.SetLastLoginDate(v.Time) },
	},
	{
		Name: "IsFirstRun", Key: KeyIsFirstRun, Kind: store.KindBool,
		get: func(f *Facade) store.Value { return store.Bool(f.IsFirstRun()) },
		set: func(f *Facade, v store.Value) error { return f.SetIsFirstRun(v.Bool) },
	},
}

// LookupProperty finds a catalog entry by property name or key.
func LookupProperty(name string) (Property, bool) {
	for _, p := range Properties {
		if p.Name == name || p.Key == name {
			return p, true
		}
	}
	return Property{}, false
}

// Entry is a property together with its current value.
type Entry struct {
	Property
	Value  string
	Source Source
}

const masked = "********"

// Entries renders every property. Encrypted values are masked unless reveal
// is set; an unset encrypted value is shown empty.
func (f *Facade) Entries(reveal bool) []Entry {
	out := make([]Entry, 0, len(Properties))
	for _, p := range Properties {
		e := Entry{Property: p, Value: p.get(f).Text(), Source: f.source(p)}
		if p.Encrypted && !reveal && e.Value != "" {
			e.Value = masked
		}
		out = append(out, e)
	}
	return out
}

// source reports whether p is stored, absent or unreadable.
func (f *Facade) source(p Property) Source {
	opts := []Option{EncryptedIf(p.Encrypted)}
	var src Source
	switch p.Kind {
	case store.KindString:
		r, _ := f.store.LookupString(p.Key, "", opts...)
		src = r.Source
	case store.KindBool:
		r, _ := f.store.LookupBool(p.Key, false, opts...)
		src = r.Source
	case store.KindFloat:
		r, _ := f.store.LookupFloat(p.Key, 0, opts...)
		src = r.Source
	case store.KindTime:
		r, _ := f.store.LookupTime(p.Key, time.Time{}, opts...)
		src = r.Source
	}
	return src
}

// SetProperty parses text as the property's kind and writes it through the
// property's setter.
func (f *Facade) SetProperty(name, text string) error {
	p, ok := LookupProperty(name)
	if !ok {
		return fmt.Errorf("unknown property %q", name)
	}
	v, err := store.Decode(p.Kind, text)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", p.Name, err)
	}
	return p.set(f, v)
}

// Reset removes every catalog key, leaving other keys untouched, and returns
// how many were present.
func (f *Facade) Reset() int {
	n := 0
	for _, p := range Properties {
		if f.store.Remove(p.Key) {
			n++
		}
	}
	return n
}
