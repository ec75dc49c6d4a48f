package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LogoStore stores an owner's logo and returns a publicly resolvable URL.
type LogoStore interface {
	// UploadLogo writes data to the owner's logo path, replacing any previous logo there.
	UploadLogo(ctx context.Context, ownerID, filename string, data io.Reader) (string, error)
}

var (
	ErrUnsupportedType = errors.New("unsupported logo file type")
	ErrInvalidOwner    = errors.New("invalid owner id")
)

const (
	logoName   = "logo"
	defaultExt = "png"
)

var allowedExt = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "webp": true, "svg": true,
}

// LogoPath derives "<owner>/logo.<ext>" from the original filename's extension.
func LogoPath(ownerID, filename string) (string, error) {
	if ownerID == "" || strings.ContainsAny(ownerID, `/\.`) {
		return "", ErrInvalidOwner
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		ext = defaultExt
	}
	if !allowedExt[ext] {
		return "", fmt.Errorf("%w: .%s", ErrUnsupportedType, ext)
	}
	return fmt.Sprintf("%s/%s.%s", ownerID, logoName, ext), nil
}

// LocalStorage implements LogoStore on the local filesystem; files are served from publicBaseURL.
type LocalStorage struct {
	dir           string
	publicBaseURL string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(dir, publicBaseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStorage{dir: dir, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) UploadLogo(ctx context.Context, ownerID, filename string, data io.Reader) (string, error) {
	rel, err := LogoPath(ownerID, filename)
	if err != nil {
		return "", err
	}

	target := filepath.Join(s.dir, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, filepath.Clean(s.dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid file path: must be within upload directory")
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("failed to create owner directory: %w", err)
	}

	// A failed upload must leave the previous logo in place.
	tmp, err := os.CreateTemp(filepath.Dir(target), "logo-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to replace logo: %w", err)
	}
	s.removeStaleLogos(target)

	return s.publicBaseURL + "/" + rel, nil
}

// removeStaleLogos deletes logo.<ext> siblings left by uploads with a different extension.
func (s *LocalStorage) removeStaleLogos(current string) {
	for ext := range allowedExt {
		sibling := filepath.Join(filepath.Dir(current), logoName+"."+ext)
		if sibling == current {
			continue
		}
		if err := os.Remove(sibling); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to remove stale logo", "path", sibling, "error", err)
		}
	}
}
