package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedFileType is returned when an uploaded file's extension is
// not in the image allow-list.
var ErrUnsupportedFileType = errors.New("unsupported file type")

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Store persists uploaded profile images into a single directory.
type Store struct {
	dir string
}

// NewStore creates the uploads directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

// Allowed reports whether the client-supplied filename has an accepted
// image extension. The check is on the text after the last dot,
// case-insensitive; a name without a dot is rejected.
func Allowed(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Save validates and writes an uploaded file, returning the stored
// filename. The name is sanitized and suffixed with a short random id so
// two uploads with the same name never clobber each other.
func (s *Store) Save(r io.Reader, filename string) (string, error) {
	if !Allowed(filename) {
		return "", ErrUnsupportedFileType
	}

	name := storedName(filename)
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return name, nil
}

// storedName builds the on-disk name: sanitized stem, random suffix,
// lowercased original extension.
func storedName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return fmt.Sprintf("%s_%s%s", sanitize(stem), uuid.NewString()[:8], ext)
}

// sanitize strips path separators and any rune unsafe for filesystem
// storage, keeping letters, digits, dot, dash and underscore.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		out = "image"
	}
	return out
}
