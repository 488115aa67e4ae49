package index

import (
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
)

// Location maps index names to their storage directories under a root.
type Location struct {
	root string
}

// NewLocation creates a Location rooted at root.
func NewLocation(root string) Location {
	return Location{root: root}
}

// Root returns the configured root path verbatim.
func (l Location) Root() string {
	return l.root
}

// Path returns the directory owned by the named index. Names that would
// escape the root are rejected.
func (l Location) Path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(l.root, name), nil
}

// Exists reports whether the index directory is present.
func (l Location) Exists(name string) (bool, error) {
	path, err := l.Path(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Enginef(err, "checking index %q", name)
	}
	return info.IsDir(), nil
}

// ValidateName rejects empty names and names containing path elements.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return apperrors.Configf("index name is required")
	case name == "." || name == "..":
		return apperrors.Configf("index name %q is reserved", name)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return apperrors.Configf("index name %q must not contain path separators", name)
	}
	return nil
}
