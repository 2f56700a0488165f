package infra

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultInstalledPath is where the engine installer places the binary.
	DefaultInstalledPath = "/usr/local/bin/bliss"

	// EngineEnvVar overrides every configured engine path.
	EngineEnvVar = "BLISS_BIN"
)

// EnginePaths lists engine executable candidates in resolution order.
type EnginePaths struct {
	Override  string // explicit override (BLISS_BIN or engine.path)
	DevPath   string // developer build
	Installed string // fixed installed location
}

// DefaultEnginePaths returns the candidates with BLISS_BIN applied.
func DefaultEnginePaths() EnginePaths {
	return EnginePaths{
		Override:  os.Getenv(EngineEnvVar),
		DevPath:   defaultDevPath(),
		Installed: DefaultInstalledPath,
	}
}

// defaultDevPath points at a build tree checked out under the user's home.
func defaultDevPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Developer", "bliss", "build", "bliss")
}

// ResolveExecutable picks the first executable candidate: override, then
// dev path, then installed path. When none is executable the installed path
// is returned with found=false; launching it fails and the caller reports a
// synthetic launch failure.
func ResolveExecutable(p EnginePaths) (path string, found bool) {
	for _, candidate := range []string{p.Override, p.DevPath, p.Installed} {
		if isExecutableFile(candidate) {
			return candidate, true
		}
	}
	installed := p.Installed
	if installed == "" {
		installed = DefaultInstalledPath
	}
	return installed, false
}

// isExecutableFile checks for a regular file with any execute bit set.
func isExecutableFile(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0
}
