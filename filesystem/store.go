// Package filesystem stores object payloads under a sandboxed directory.
// Writes are atomic (temp file and rename), digests are MD5, and content
// types are detected from file extensions.
package filesystem

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/sagarc03/manta/service"
)

const tmpPrefix = ".t"

// Store provides file system storage operations.
type Store struct {
	root   *os.Root
	logger *slog.Logger
}

var _ service.FileStorage = (*Store)(nil)

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
// A nil logger discards log output.
func NewFileStorage(root *os.Root, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{root: root, logger: logger}
}

// Get opens a file for reading. Returns service.ErrNotFound if the file does not exist.
func (s *Store) Get(ctx context.Context, name string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("open file: %w", err)
	}

	info, err := f.Stat()
	if err == nil && info.IsDir() {
		_ = f.Close()
		return nil, service.ErrNotFound
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically writes content to the given path using a temp file and rename.
// It creates intermediate directories as needed and returns the number of
// bytes written and their MD5 digest. A read error from content aborts the
// write and leaves any previous file in place.
func (s *Store) Write(ctx context.Context, name string, content io.Reader) (service.SaveResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return service.SaveResult{}, ctxErr
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return service.SaveResult{}, fmt.Errorf("open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			s.logger.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				s.logger.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := md5.New()
	w := io.MultiWriter(h, t)

	n, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return service.SaveResult{}, fmt.Errorf("copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return service.SaveResult{}, fmt.Errorf("sync written file: %w", err)
	}

	if err := t.Close(); err != nil {
		return service.SaveResult{}, fmt.Errorf("close written file: %w", err)
	}

	if dir := path.Dir(name); dir != "." {
		if err := s.root.MkdirAll(dir, 0o755); err != nil {
			return service.SaveResult{}, fmt.Errorf("create intermediate directories: %w", err)
		}
	}

	if err := s.root.Rename(tmpFile, name); err != nil {
		return service.SaveResult{}, fmt.Errorf("rename file: %w", err)
	}

	success = true
	return service.SaveResult{BytesWritten: n, MD5: h.Sum(nil)}, nil
}

// Delete removes a file and then any parent directories left empty.
// Returns service.ErrNotFound if the file does not exist.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.root.Remove(name); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return service.ErrNotFound
		}
		return fmt.Errorf("delete file: %w", err)
	}

	for dir := path.Dir(name); dir != "." && dir != "/"; dir = path.Dir(dir) {
		// Remove fails on non-empty directories, which ends the walk.
		if err := s.root.Remove(dir); err != nil {
			break
		}
	}
	return nil
}

// List recursively walks the root directory and returns all files with their
// size, MD5 digest and detected content type. Paths are slash separated.
// This is intended for one-time initial sync operations.
func (s *Store) List(ctx context.Context) ([]service.ObjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := []service.ObjectEntry{}

	if err := s.walkDir(ctx, ".", &entries); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	return entries, nil
}

func (s *Store) walkDir(ctx context.Context, dir string, entries *[]service.ObjectEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}

		entryPath := path.Join(dir, entry.Name())

		if entry.IsDir() {
			if err := s.walkDir(ctx, entryPath, entries); err != nil {
				return err
			}
			continue
		}

		if strings.HasPrefix(entry.Name(), tmpPrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		f, err := s.root.Open(entryPath)
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		h := md5.New()
		_, copyErr := io.Copy(h, f)

		if closeErr := f.Close(); closeErr != nil {
			s.logger.Warn("failed to close file", "path", entryPath, "err", closeErr)
		}

		if copyErr != nil {
			return fmt.Errorf("walk dir: %w", copyErr)
		}

		*entries = append(*entries, service.ObjectEntry{
			Path:        entryPath,
			Size:        info.Size(),
			MD5:         h.Sum(nil),
			ContentType: detectContentType(entryPath),
		})
	}

	return nil
}

func detectContentType(name string) string {
	contentType := mime.TypeByExtension(path.Ext(name))

	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}

func tmpFileName() string {
	return tmpPrefix + uuid.New().String()
}
