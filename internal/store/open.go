package store

import (
	"fmt"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendSQLite   = "sqlite"
	BackendYAML     = "yaml"
	BackendMemory   = "memory"
	BackendDefaults = "defaults"
)

// DefaultsDomain is the UserDefaults domain used by the macOS backend.
const DefaultsDomain = "com.kalambet.appsettings"

// Open constructs the named backend rooted at dataDir.
func Open(name, dataDir string) (Backend, error) {
	switch name {
	case BackendSQLite, "":
		return OpenSQLite(dataDir)
	case BackendYAML:
		return OpenYAMLFile(filepath.Join(dataDir, "settings.yaml"))
	case BackendMemory:
		return NewMemory(), nil
	case BackendDefaults:
		return newDefaults(DefaultsDomain)
	default:
		return nil, fmt.Errorf("unknown settings backend %q (want one of %s, %s, %s, %s)",
			name, BackendSQLite, BackendYAML, BackendMemory, BackendDefaults)
	}
}
