// Package upload stores report photos on local disk and serves them back.
package upload

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/weathercraft/weathercraft/internal/domain"
)

// URLPrefix is the public path uploaded files are served under.
const URLPrefix = "/uploads/"

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Storage saves uploaded photos under a single directory with random names.
type Storage struct {
	dir string
}

// New creates the uploads directory if needed and returns a Storage.
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Save writes the uploaded file to disk under a random name, keeping only the
// original extension, and returns the public URL path. The extension must be
// a known image type.
func (s *Storage) Save(file io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: unsupported photo type %q", domain.ErrValidation, ext)
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}

	return URLPrefix + name, nil
}

// Handler serves stored files. Mount under URLPrefix.
func (s *Storage) Handler() http.Handler {
	return http.StripPrefix(URLPrefix, http.FileServer(http.Dir(s.dir)))
}
