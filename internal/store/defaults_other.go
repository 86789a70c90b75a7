//go:build !darwin

package store

import (
	"errors"
	"runtime"
)

func newDefaults(domain string) (Backend, error) {
	return nil, errors.New("the defaults backend is only available on macOS, not " + runtime.GOOS)
}
