package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"naturelog-go/internal/platform/errors"
)

// DiskStore writes uploaded photos under a local directory and maps them
// to public URL paths served by the HTTP layer.
type DiskStore struct {
	dir        string
	publicPath string
}

// NewDiskStore prepares the upload directory.
func NewDiskStore(dir, publicPath string) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New(errors.KindMedia, "media.store.new", "upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.KindMedia, "media.store.new", "create upload directory", err)
	}
	if publicPath == "" {
		publicPath = "/uploads"
	}
	return &DiskStore{
		dir:        dir,
		publicPath: strings.TrimSuffix(publicPath, "/"),
	}, nil
}

// Save persists a photo payload and returns its stored filename and public URL path.
func (s *DiskStore) Save(raw []byte, format string) (filename string, publicURL string, err error) {
	ext := extensionFor(format)
	filename = fmt.Sprintf("%s%s", uuid.NewString(), ext)

	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", "", errors.Wrap(errors.KindMedia, "media.store.save", "write photo file", err)
	}
	return filename, s.publicPath + "/" + filename, nil
}

// Remove deletes a stored photo. Missing files are not an error.
func (s *DiskStore) Remove(filename string) error {
	if filename == "" || strings.Contains(filename, "/") || strings.Contains(filename, "..") {
		return errors.New(errors.KindMedia, "media.store.remove", "invalid filename")
	}
	err := os.Remove(filepath.Join(s.dir, filename))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.KindMedia, "media.store.remove", "delete photo file", err)
	}
	return nil
}

// Dir exposes the backing directory for static file serving.
func (s *DiskStore) Dir() string { return s.dir }

// PublicPath exposes the URL prefix photos are served under.
func (s *DiskStore) PublicPath() string { return s.publicPath }

func extensionFor(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return ".jpg"
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	case "webp":
		return ".webp"
	default:
		return ".bin"
	}
}
