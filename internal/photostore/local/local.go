package local

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vbonduro/shelfmap/internal/photostore"
)

var _ photostore.PhotoStore = (*LocalPhotoStore)(nil)

// LocalPhotoStore keeps photos as plain files under basePath.
type LocalPhotoStore struct {
	basePath string
	logger   *slog.Logger
}

func NewLocalPhotoStore(basePath string, logger *slog.Logger) (*LocalPhotoStore, error) {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid photo directory: %w", err)
	}
	if err := os.MkdirAll(absBase, 0755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalPhotoStore{basePath: absBase, logger: logger}, nil
}

// BasePath is the absolute managed directory.
func (s *LocalPhotoStore) BasePath() string {
	return s.basePath
}

func (s *LocalPhotoStore) Store(ctx context.Context, source, fileName string) (string, error) {
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create photo directory: %w", err)
	}

	dst, err := s.safeJoin(fileName)
	if err != nil {
		return "", err
	}

	src, err := os.Open(photostore.SourcePath(source))
	if err != nil {
		return "", fmt.Errorf("failed to open source photo: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			s.logger.Error("failed to close source photo", "source", source, "error", err)
		}
	}()

	// Write next to the destination and rename so a failed copy never leaves
	// a truncated file under the final name.
	tmp, err := os.CreateTemp(s.basePath, ".incoming-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, src); err != nil {
		if cerr := tmp.Close(); cerr != nil {
			s.logger.Error("failed to close file after write error", "error", cerr)
		}
		s.removeTemp(tmpPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.removeTemp(tmpPath)
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		s.removeTemp(tmpPath)
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	s.logger.Debug("photo stored", "path", dst)
	return dst, nil
}

func (s *LocalPhotoStore) Delete(ctx context.Context, path string) {
	if path == "" {
		return
	}
	filePath, err := s.resolve(path)
	if err != nil {
		s.logger.Warn("refusing to delete photo outside managed directory", "path", path, "error", err)
		return
	}

	if _, err := os.Stat(filePath); err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("failed to stat photo", "path", filePath, "error", err)
		}
		return
	}
	if err := os.Remove(filePath); err != nil {
		s.logger.Error("failed to delete photo", "path", filePath, "error", err)
	}
}

func (s *LocalPhotoStore) Contains(path string) bool {
	if path == "" {
		return false
	}
	p := photostore.SourcePath(path)
	if !filepath.IsAbs(p) {
		return false
	}
	_, err := s.resolve(p)
	return err == nil
}

func (s *LocalPhotoStore) Open(ctx context.Context, path string) (io.ReadCloser, string, error) {
	filePath, err := s.resolve(path)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("photo not found")
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	return f, photostore.ExtToMimeType(filePath), nil
}

func (s *LocalPhotoStore) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Error("failed to remove temporary file", "path", path, "error", err)
	}
}

// safeJoin resolves a bare file name inside basePath.
func (s *LocalPhotoStore) safeJoin(fileName string) (string, error) {
	if fileName == "" || fileName != filepath.Base(fileName) || fileName == "." || fileName == ".." {
		return "", fmt.Errorf("invalid photo file name %q", fileName)
	}
	return filepath.Join(s.basePath, fileName), nil
}

// resolve maps an absolute path, file:// URI or bare name to an absolute
// path and rejects anything outside basePath.
func (s *LocalPhotoStore) resolve(path string) (string, error) {
	p := photostore.SourcePath(path)
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.basePath, p)
	}

	absPath, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, s.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt")
	}
	return absPath, nil
}
