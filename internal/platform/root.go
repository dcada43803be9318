package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ConfigFileName marks a notebox root when present.
const ConfigFileName = "notebox.yaml"

// ErrRootNotFound is returned by FindRoot when no indicator exists up to the
// filesystem root.
var ErrRootNotFound = errors.New("root not found")

// FindRoot walks upwards from startDir looking for a store root.
// Indicators are: .notebox directory, .git directory, or notebox.yaml file.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, ".notebox") || hasFile(dir, ".git") || hasFile(dir, ConfigFileName) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
