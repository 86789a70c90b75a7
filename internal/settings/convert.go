package settings

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/kalambet/appsettings/internal/store"
)

// ErrConversion is returned when a stored value cannot be read as the
// requested kind.
var ErrConversion = errors.New("value conversion failed")

// Text converts to any kind by parsing, which is how encrypted values come
// back. Other kinds only convert to themselves.

func asString(v store.Value) (string, error) {
	if v.Kind != store.KindString {
		return "", mismatch(v, store.KindString)
	}
	return v.Str, nil
}

func asBool(v store.Value) (bool, error) {
	switch v.Kind {
	case store.KindBool:
		return v.Bool, nil
	case store.KindString:
		b, err := cast.ToBoolE(v.Str)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrConversion, err)
		}
		return b, nil
	default:
		return false, mismatch(v, store.KindBool)
	}
}

func asFloat(v store.Value) (float64, error) {
	switch v.Kind {
	case store.KindFloat:
		return v.Num, nil
	case store.KindString:
		f, err := cast.ToFloat64E(v.Str)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrConversion, err)
		}
		return f, nil
	default:
		return 0, mismatch(v, store.KindFloat)
	}
}

func asTime(v store.Value) (time.Time, error) {
	switch v.Kind {
	case store.KindTime:
		return v.Time, nil
	case store.KindString:
		t, err := cast.ToTimeE(v.Str)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrConversion, err)
		}
		return t, nil
	default:
		return time.Time{}, mismatch(v, store.KindTime)
	}
}

func mismatch(v store.Value, want store.Kind) error {
	return fmt.Errorf("%w: stored %s, requested %s", ErrConversion, v.Kind, want)
}
