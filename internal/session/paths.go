// Package session resolves the on-disk layout under ~/.letschat.
package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.letschat.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".letschat")
}

// ConfigPath returns the client config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// StatePath returns the persisted client state file. Only the auth/theme
// subset of store state lives here.
func StatePath() string {
	return filepath.Join(BaseDir(), "state.toml")
}

// DataDBPath returns the backend daemon's fixture database path.
func DataDBPath() string {
	return filepath.Join(BaseDir(), "letschatd.db")
}

// LogDir returns the log directory.
func LogDir() string {
	return filepath.Join(BaseDir(), "logs")
}

// LogPath returns the log file for the named binary.
func LogPath(name string) string {
	return filepath.Join(LogDir(), name+".log")
}

// EnsureDirs creates the directory tree with owner-only permissions.
func EnsureDirs() error {
	for _, d := range []string{BaseDir(), LogDir()} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
