package settings

// Source tells where a looked-up value came from.
type Source int

const (
	// SourceStored means the value was read from the backend.
	SourceStored Source = iota
	// SourceAbsent means the key was not set and the default was returned.
	SourceAbsent
	// SourceFallback means the key was present but unreadable (storage,
	// decryption or conversion failure) and the default was returned.
	SourceFallback
)

func (s Source) String() string {
	switch s {
	case SourceStored:
		return "stored"
	case SourceAbsent:
		return "absent"
	case SourceFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Result is the outcome of a Lookup call. Err is set only for SourceFallback.
type Result[T any] struct {
	Value  T
	Source Source
	Err    error
}

// Degraded reports whether Value is a default substituted for an unreadable
// stored value.
func (r Result[T]) Degraded() bool {
	return r.Source == SourceFallback
}
