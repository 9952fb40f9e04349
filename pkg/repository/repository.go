package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Lookup finds the settings files stored for a production.
type Lookup interface {
	// FindProds returns the settings-file names for production name within
	// category, relative to <Directory>/<category>.
	FindProds(name, category string) ([]string, error)
	// Dir is the repository root.
	Dir() string
}

// Repository is an event repository checked out on disk. Settings files are
// laid out as <Directory>/<category>/<production>*.ini.
type Repository struct {
	Directory string
}

func New(directory string) *Repository {
	return &Repository{Directory: directory}
}

func (r *Repository) Dir() string {
	return r.Directory
}

func (r *Repository) FindProds(name, category string) ([]string, error) {
	root := filepath.Join(r.Directory, category)
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("failed to open category %s in %s: %w", category, r.Directory, err)
	}
	pattern := escapeMeta(name) + "*.ini"
	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s in %s: %w", pattern, root, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// escapeMeta quotes the glob metacharacters doublestar interprets so a
// production name only ever matches literally.
func escapeMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '*', '?', '[', ']', '{', '}':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ Lookup = &Repository{}
