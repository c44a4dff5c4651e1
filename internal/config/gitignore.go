package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// gitignoreContent keeps generated state out of version control when the
// home directory lives inside a repository via STOREKIT_HOME.
const gitignoreContent = `# storekit generated state
cache/
*.log
.env
`

// EnsureGitignore writes a .gitignore into dir unless one exists. It reports
// whether a file was created.
func EnsureGitignore(dir string) (bool, error) {
	path := filepath.Join(dir, ".gitignore")

	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking .gitignore at %s: %w", path, err)
	}
	if mkErr := os.MkdirAll(dir, 0o750); mkErr != nil {
		return false, fmt.Errorf("creating directory %s: %w", dir, mkErr)
	}
	//nolint:gosec // .gitignore must be world-readable.
	if writeErr := os.WriteFile(path, []byte(gitignoreContent), 0o644); writeErr != nil {
		return false, fmt.Errorf("writing .gitignore at %s: %w", path, writeErr)
	}
	return true, nil
}
