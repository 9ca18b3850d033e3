// Package upload stores image files and hands back the URLs recorded in the
// photo and user tables.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Upload errors.
var (
	ErrEmptyPath  = errors.New("upload path must not be empty")
	ErrForeignURL = errors.New("url does not belong to this uploader")
)

// Result is where an uploaded file can be fetched and how to remove it.
type Result struct {
	URL       string `json:"url"`
	DeleteURL string `json:"delete_url"`
}

// Uploader moves a local file to storage reachable by URL.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (Result, error)
	Remove(ctx context.Context, deleteURL string) error
}

// Compile-time interface check: Local must implement Uploader.
var _ Uploader = (*Local)(nil)

// Local copies files into a media directory under random names and returns
// file:// URLs. There are no retries.
type Local struct {
	dir    string
	logger *slog.Logger
}

// NewLocal returns a Local uploader writing into dir. A nil logger falls back
// to slog.Default().
func NewLocal(dir string, logger *slog.Logger) (*Local, error) {
	if dir == "" {
		return nil, ErrEmptyPath
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving media dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating media dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{dir: abs, logger: logger}, nil
}

// Dir returns the absolute media directory.
func (l *Local) Dir() string { return l.dir }

// Upload copies localPath into the media directory, keeping its extension.
func (l *Local) Upload(ctx context.Context, localPath string) (Result, error) {
	if localPath == "" {
		return Result{}, ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer src.Close()

	name := uuid.NewString() + strings.ToLower(filepath.Ext(localPath))
	dest := filepath.Join(l.dir, name)
	dst, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Result{}, fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dest)
		return Result{}, fmt.Errorf("copying %s: %w", localPath, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dest)
		return Result{}, fmt.Errorf("closing %s: %w", dest, err)
	}

	u := fileURL(dest)
	l.logger.Info("file uploaded", slog.String("source", localPath), slog.String("url", u))
	return Result{URL: u, DeleteURL: u}, nil
}

// Remove deletes the file named by a DeleteURL returned from Upload.
func (l *Local) Remove(ctx context.Context, deleteURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := l.pathFor(deleteURL)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	l.logger.Info("file removed", slog.String("url", deleteURL))
	return nil
}

// pathFor maps a file:// URL back to a path inside the media directory.
func (l *Local) pathFor(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "file" {
		return "", fmt.Errorf("%q: %w", raw, ErrForeignURL)
	}
	path := filepath.Clean(filepath.FromSlash(u.Path))
	if filepath.Dir(path) != l.dir {
		return "", fmt.Errorf("%q: %w", raw, ErrForeignURL)
	}
	return path, nil
}

func fileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
