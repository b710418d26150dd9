package config

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// EnsureUserConfig returns the config path inside dataDir, writing the
// defaults there first if no config exists yet.
func EnsureUserConfig(dataDir string) (path string, created bool, err error) {
	userPath := filepath.Join(dataDir, FileName)

	_, err = os.Stat(userPath)
	if err == nil {
		return userPath, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", false, errors.Wrap(err, "stat config")
	}

	if err := SaveAtomic(userPath, Default(dataDir)); err != nil {
		return "", false, err
	}
	return userPath, true, nil
}

// DefaultDataDir is the per-user data directory.
func DefaultDataDir() string {
	if d, err := os.UserConfigDir(); err == nil && d != "" {
		return filepath.Join(d, "jobtrack")
	}
	return ".jobtrack"
}
