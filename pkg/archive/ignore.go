package archive

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/monochromegane/go-gitignore"
)

// ruleset accumulates the .gitignore matchers discovered while walking a
// project tree. Matchers apply to everything below the directory that
// declared them.
type ruleset struct {
	matchers []gitignore.IgnoreMatcher
}

// enter loads the .gitignore of dir when one exists.
func (rs *ruleset) enter(dir string) error {
	path := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	matcher, err := gitignore.NewGitIgnore(path)
	if err != nil {
		return err
	}
	rs.matchers = append(rs.matchers, matcher)
	return nil
}

// Excluded reports whether the entry must be left out of the archive.
// Entries named "target" and dot-prefixed entries are always excluded;
// everything else is checked against the collected ignore rules.
func (rs *ruleset) Excluded(path, name string, isDir bool) bool {
	if name == "target" {
		return true
	}
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, matcher := range rs.matchers {
		if matcher.Match(path, isDir) {
			return true
		}
	}
	return false
}
