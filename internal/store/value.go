package store

import (
	"fmt"
	"strconv"
	"time"
)

// Kind identifies which field of a Value is populated.
type Kind int

const (
	KindString Kind = iota + 1
	KindBool
	KindFloat
	KindTime
)

var kindNames = map[Kind]string{
	KindString: "string",
	KindBool:   "bool",
	KindFloat:  "float",
	KindTime:   "time",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown value kind %q", s)
}

// Value is a stored scalar. Exactly one of Str, Bool, Num or Time is
// meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Str  string
	Bool bool
	Num  float64
	Time time.Time
}

func String(s string) Value { return Value{Kind: KindString, Str: s} }
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }
func Float(f float64) Value { return Value{Kind: KindFloat, Num: f} }
func Time(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// Text renders the value in its canonical text form. The output of Text is
// accepted by Decode for the same kind.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindFloat:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindTime:
		return v.Time.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Decode parses text produced by Value.Text back into a Value of kind k.
func Decode(k Kind, text string) (Value, error) {
	switch k {
	case KindString:
		return String(text), nil
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("decoding bool: %w", err)
		}
		return Bool(b), nil
	case KindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("decoding float: %w", err)
		}
		return Float(f), nil
	case KindTime:
		t, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return Value{}, fmt.Errorf("decoding time: %w", err)
		}
		return Time(t), nil
	default:
		return Value{}, fmt.Errorf("unknown value kind %d", int(k))
	}
}
