package optimizer

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidMimeType = errors.New("file type not allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

// allowedMimeTypes are the types the optimizer itself can decode and re-encode
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Validate rejects non-image MIME types, types outside the allow-list and
// oversized files. The caller passes its own size ceiling; extraTypes widens
// the allow-list for types the caller stores without transforming.
func Validate(mimeType string, size, maxSize int64, extraTypes ...string) error {
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > maxSize {
		return ErrFileTooLarge
	}

	mime := NormalizeMime(mimeType)
	if !strings.HasPrefix(mime, "image/") {
		return ErrInvalidMimeType
	}
	if allowedMimeTypes[mime] {
		return nil
	}
	for _, t := range extraTypes {
		if mime == t {
			return nil
		}
	}
	return ErrInvalidMimeType
}

// NormalizeMime strips parameters ("image/jpeg; charset=utf-8" -> "image/jpeg")
func NormalizeMime(mimeType string) string {
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = mimeType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// DetectMime sniffs the MIME type from content magic bytes
func DetectMime(data []byte) string {
	return NormalizeMime(http.DetectContentType(data))
}

// ExtensionForMime returns the file extension for a MIME type
func ExtensionForMime(mimeType string) string {
	switch NormalizeMime(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/svg+xml":
		return ".svg"
	case "image/avif":
		return ".avif"
	default:
		return ""
	}
}
