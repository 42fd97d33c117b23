package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/vbonduro/shelfmap/internal/photostore"
)

const maxPhotoSize = 50 * 1024 * 1024 // 50 MB

// sniffLen is how many leading bytes are inspected to detect the image type.
const sniffLen = 512

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniffing algorithm (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

var errNoImage = errors.New("image file required")

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// spooledUpload is an uploaded image copied to a temporary file so it can be
// handed to the service as a photo source.
type spooledUpload struct {
	path     string
	mimeType string
	logger   *slog.Logger
}

func (u *spooledUpload) remove() {
	if u == nil {
		return
	}
	if err := os.Remove(u.path); err != nil && !os.IsNotExist(err) {
		u.logger.Error("failed to remove upload", "path", u.path, "error", err)
	}
}

// spoolUpload reads the "image" form file, checks its type and writes it to
// a temporary file. It returns errNoImage when the form has no image.
func (s *Server) spoolUpload(w http.ResponseWriter, r *http.Request) (*spooledUpload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		return nil, fmt.Errorf("failed to parse form")
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, errNoImage
	}
	defer closeWithLog(file, "upload file", s.logger)

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read file")
	}
	head = head[:n]

	mimeType, ok := allowedImageMIME(head)
	if !ok {
		return nil, fmt.Errorf("unsupported image format")
	}

	tmp, err := os.CreateTemp("", "shelfmap-upload-*"+photostore.MimeTypeToExt(mimeType))
	if err != nil {
		s.logger.Error("create upload file failed", "error", err)
		return nil, fmt.Errorf("failed to store upload")
	}
	upload := &spooledUpload{path: tmp.Name(), mimeType: mimeType, logger: s.logger}

	if _, err := io.Copy(tmp, io.MultiReader(bytes.NewReader(head), file)); err != nil {
		closeWithLog(tmp, "upload spool", s.logger)
		upload.remove()
		return nil, fmt.Errorf("failed to read file")
	}
	if err := tmp.Close(); err != nil {
		upload.remove()
		return nil, fmt.Errorf("failed to store upload")
	}
	return upload, nil
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	reader, mimeType, err := s.photos.Open(r.Context(), name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "name", name, "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
