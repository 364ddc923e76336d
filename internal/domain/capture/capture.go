// Package capture produces local media handles for the submission flow.
// The directory provider is the headless stand-in for a device camera:
// anything dropped into the spool directory becomes a capture.
package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	platformerrors "naturelog-go/internal/platform/errors"
)

// ErrNoCapture indicates no new media is available.
var ErrNoCapture = errors.New("no new capture available")

// MediaHandle is an opaque reference to locally stored image data. The
// path must stay valid until any submission referencing it is confirmed.
type MediaHandle struct {
	Path     string
	Filename string
}

// Provider produces captures.
type Provider interface {
	Capture(ctx context.Context) (MediaHandle, error)
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// DirectoryProvider yields each image file in a spool directory exactly
// once, oldest first.
type DirectoryProvider struct {
	dir  string
	seen map[string]bool
}

// NewDirectoryProvider creates a provider over the given spool directory.
func NewDirectoryProvider(dir string) (*DirectoryProvider, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindCapture, "capture.new", "failed to create capture directory", err)
	}
	return &DirectoryProvider{
		dir:  dir,
		seen: make(map[string]bool),
	}, nil
}

// Capture returns the next unseen image file, or ErrNoCapture.
func (p *DirectoryProvider) Capture(_ context.Context) (MediaHandle, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return MediaHandle{}, platformerrors.Wrap(platformerrors.KindCapture, "capture.scan", "failed to read capture directory", err)
	}

	type candidate struct {
		name    string
		modTime int64
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if p.seen[name] || !imageExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: name, modTime: info.ModTime().UnixNano()})
	}
	if len(candidates) == 0 {
		return MediaHandle{}, ErrNoCapture
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].modTime != candidates[j].modTime {
			return candidates[i].modTime < candidates[j].modTime
		}
		return candidates[i].name < candidates[j].name
	})

	name := candidates[0].name
	p.seen[name] = true
	return MediaHandle{
		Path:     filepath.Join(p.dir, name),
		Filename: name,
	}, nil
}
