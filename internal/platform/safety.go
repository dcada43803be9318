package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// devDirName is the namespace for sandboxed stores below os.TempDir().
const devDirName = "notebox-dev"

// IsDevRun reports whether the process was built by `go run` or `go test`.
// Both place their binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}

	if strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe") {
		return true
	}

	return false
}

// ResolveStorePath returns the path the store should actually use.
// With forceTemp, paths outside the temp directory are re-rooted below
// <tmp>/notebox-dev so development runs never touch real data.
func ResolveStorePath(userPath string, forceTemp bool) string {
	if !forceTemp {
		if userPath == "" {
			return "."
		}
		return userPath
	}

	// Already inside the temp dir (t.TempDir() and friends): trust it.
	cleanUserPath := filepath.Clean(userPath)
	rel, err := filepath.Rel(os.TempDir(), cleanUserPath)
	if err == nil && filepath.IsAbs(cleanUserPath) && !strings.HasPrefix(rel, "..") {
		return cleanUserPath
	}

	subName := "default"
	if userPath != "" && userPath != "." && userPath != "./" {
		subName = filepath.Base(userPath)
		if subName == "." || subName == string(os.PathSeparator) {
			subName = "default"
		}
	}

	return filepath.Join(os.TempDir(), devDirName, subName)
}
