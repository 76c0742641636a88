// Package dotdir manages the .prepmate/ and ~/.prepmate directories.
//
// The dot directory holds config.toml, credentials.toml, and any audio the
// chat command writes for spoken replies. A local ./.prepmate/ directory
// takes precedence over the home directory copy so interview settings can
// differ per project.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the prepmate directory.
	dirName = ".prepmate"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .prepmate/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.prepmate/ dir
//  3. Home ~/.prepmate/ dir
//  4. If none found, attempt to create ~/.prepmate/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating prepmate directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// localDirExists checks whether a .prepmate/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
