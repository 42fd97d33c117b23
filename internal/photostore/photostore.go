package photostore

import (
	"context"
	"io"
	"net/url"
	"path/filepath"
	"strings"
)

// PhotoStore manages image files in an application-owned directory. It has
// no knowledge of spaces or items; callers choose the file names.
type PhotoStore interface {
	// Store copies source (a local path or file:// URI) to fileName inside
	// the managed directory, overwriting any existing file, and returns the
	// stored path.
	Store(ctx context.Context, source, fileName string) (string, error)
	// Delete removes the file at path. Missing files are ignored and other
	// failures are logged, never returned.
	Delete(ctx context.Context, path string)
	// Contains reports whether path already lives inside the managed directory.
	Contains(path string) bool
	// Open returns the file at path with its MIME type.
	Open(ctx context.Context, path string) (io.ReadCloser, string, error)
}

// SourcePath strips a file:// scheme from source.
func SourcePath(source string) string {
	if !strings.HasPrefix(source, "file://") {
		return source
	}
	u, err := url.Parse(source)
	if err != nil || u.Path == "" {
		return strings.TrimPrefix(source, "file://")
	}
	return u.Path
}

// ExtToMimeType guesses an image MIME type from the file extension.
func ExtToMimeType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// MimeTypeToExt is the inverse of ExtToMimeType.
func MimeTypeToExt(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
