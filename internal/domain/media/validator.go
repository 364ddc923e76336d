package media

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Info describes a validated image payload.
type Info struct {
	Format string
	Width  int
	Height int
	Size   int64
}

// Validator performs layered checks against incoming photo payloads.
type Validator struct {
	maxFileSize    int64
	allowedFormats []string
	logger         *slog.Logger
}

// NewValidator constructs a validator from the media limits.
func NewValidator(maxFileSize int64, allowedFormats []string, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		maxFileSize:    maxFileSize,
		allowedFormats: allowedFormats,
		logger:         logger,
	}
}

var imageSignatures = map[string][]byte{
	"jpeg": {0xFF, 0xD8},
	"jpg":  {0xFF, 0xD8},
	"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"gif":  {0x47, 0x49, 0x46, 0x38},
	"webp": {0x52, 0x49, 0x46, 0x46},
}

// ValidateBytes checks size, format whitelist and decodability of a photo payload.
func (v *Validator) ValidateBytes(raw []byte, declaredFormat string) (Info, error) {
	if len(raw) == 0 {
		return Info{}, fmt.Errorf("empty image payload")
	}

	if v.maxFileSize > 0 && int64(len(raw)) > v.maxFileSize {
		v.logger.Warn("oversized image rejected",
			"size", len(raw),
			"max_size", v.maxFileSize,
			"format", declaredFormat,
		)
		return Info{}, fmt.Errorf(
			"file size exceeds limit: %d bytes (max %d bytes)",
			len(raw),
			v.maxFileSize,
		)
	}

	if declaredFormat != "" && !v.isFormatAllowed(declaredFormat) {
		return Info{}, fmt.Errorf("unsupported format: %s", declaredFormat)
	}

	cfg, actualFormat, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		if declaredFormat != "" && !matchesSignature(raw, declaredFormat) {
			v.logger.Warn("file signature mismatch",
				"declared_format", declaredFormat,
				"header", fmt.Sprintf("%x", raw[:min(len(raw), 16)]),
			)
		}
		return Info{}, fmt.Errorf("decode image config: %w", err)
	}

	if actualFormat != "" && !v.isFormatAllowed(actualFormat) {
		return Info{}, fmt.Errorf("unsupported format: %s", actualFormat)
	}

	return Info{
		Format: actualFormat,
		Width:  cfg.Width,
		Height: cfg.Height,
		Size:   int64(len(raw)),
	}, nil
}

func (v *Validator) isFormatAllowed(format string) bool {
	if len(v.allowedFormats) == 0 {
		return true
	}
	format = strings.ToLower(format)
	for _, allowed := range v.allowedFormats {
		if strings.ToLower(allowed) == format {
			return true
		}
	}
	return false
}

func matchesSignature(raw []byte, format string) bool {
	signature, ok := imageSignatures[strings.ToLower(format)]
	if !ok {
		return true
	}
	if len(raw) < len(signature) {
		return false
	}
	return bytes.Equal(signature, raw[:len(signature)])
}
