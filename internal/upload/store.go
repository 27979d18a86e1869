// Package upload stores uploaded image files on local disk under
// uuid-generated filenames. Files are written before their database row is
// inserted and are never referenced without a committed row, so a failed
// request can at worst orphan a file. Remove is best-effort cleanup.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tripcrew/tripcrew/internal/domain"
)

// Store writes files into Dir and reports their public URL path under
// urlPrefix (e.g. "/uploads").
type Store struct {
	dir       string
	urlPrefix string
}

// allowedExts is the set of file extensions accepted for image uploads.
var allowedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// NewStore constructs a Store rooted at dir, creating it if needed.
func NewStore(dir, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload.NewStore: %w", err)
	}
	return &Store{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Save writes src to a freshly named file keyed by a random UUID, keeping
// the original extension. Returns the public URL path of the stored file.
// The original filename never reaches disk.
func (s *Store) Save(src io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExts[ext] {
		return "", fmt.Errorf("%w: unsupported image type %q", domain.ErrValidation, ext)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("upload.Store.Save: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("upload.Store.Save: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("upload.Store.Save: %w", err)
	}

	return s.urlPrefix + "/" + name, nil
}

// Remove best-effort deletes the file behind a URL previously returned by
// Save. Errors are ignored: orphaned files are acceptable, dangling
// database rows are not.
func (s *Store) Remove(url string) {
	name := filepath.Base(url)
	if name == "." || name == "/" {
		return
	}
	_ = os.Remove(filepath.Join(s.dir, name))
}

// Dir returns the directory files are stored in, for static file serving.
func (s *Store) Dir() string { return s.dir }
