package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/manta"
)

const defaultObjectContentType = "application/octet-stream"

// Service implements the storage namespace: directories, objects and their
// listings, on top of a NodeRepo for metadata and a FileStorage for payloads.
//
// Storage roots ("/<account>/stor") always exist and are never stored.
type Service struct {
	repo           NodeRepo
	storage        FileStorage
	cleanupTimeout time.Duration
	logger         *slog.Logger
	started        time.Time
}

// Config holds configuration options for Service.
type Config struct {
	CleanupTimeout time.Duration // Timeout for cleanup operations (default: 30s)
	Logger         *slog.Logger
}

// New creates a Service.
func New(repo NodeRepo, storage FileStorage, cfg Config) *Service {
	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:           repo,
		storage:        storage,
		cleanupTimeout: cleanupTimeout,
		logger:         logger,
		started:        time.Now().UTC(),
	}
}

// Populate rebuilds object metadata from the payloads found in storage.
// Directories implied by an object's path are created as needed. Files that
// do not live under a storage root are skipped.
//
// Note: This operation is not atomic. If it fails partway through, some files may have
// been processed while others remain unprocessed.
func (s *Service) Populate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	files, err := s.storage.List(ctx)
	if err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	for _, file := range files {
		p, err := CleanPath("/" + file.Path)
		if err != nil || IsStorageRoot(p) {
			s.logger.Warn("populate: skipping file outside storage", "path", file.Path)
			continue
		}

		parent, _ := SplitPath(p)
		if err := s.ensureDirectories(ctx, parent); err != nil {
			return fmt.Errorf("populate '%s': %w", file.Path, err)
		}

		contentType := file.ContentType
		if contentType == "" {
			contentType = defaultObjectContentType
		}
		entry := NodeEntry{
			Path:        p,
			Type:        manta.EntryTypeObject,
			ContentType: contentType,
			ETag:        hex.EncodeToString(file.MD5),
			ContentMD5:  base64.StdEncoding.EncodeToString(file.MD5),
			Size:        file.Size,
		}
		if _, _, err := s.repo.Upsert(ctx, entry); err != nil {
			return fmt.Errorf("populate '%s': %w", file.Path, err)
		}
	}

	return nil
}

func (s *Service) ensureDirectories(ctx context.Context, dir string) error {
	if IsStorageRoot(dir) {
		return nil
	}

	n, err := s.repo.Get(ctx, dir)
	switch {
	case err == nil:
		if !n.IsDirectory() {
			return fmt.Errorf("ensure directory %s: %w", dir, ErrConflict)
		}
		return nil
	case !errors.Is(err, ErrNotFound):
		return fmt.Errorf("ensure directory %s: %w", dir, err)
	}

	parent, _ := SplitPath(dir)
	if err := s.ensureDirectories(ctx, parent); err != nil {
		return err
	}

	_, _, err = s.repo.Upsert(ctx, directoryEntry(dir))
	if err != nil {
		return fmt.Errorf("ensure directory %s: %w", dir, err)
	}
	return nil
}

// PutDirectory creates a directory. The parent must already exist. Putting
// an existing directory is a no-op; the bool result reports whether a new
// directory was created.
func (s *Service) PutDirectory(ctx context.Context, path string) (Node, bool, error) {
	if err := ctx.Err(); err != nil {
		return Node{}, false, fmt.Errorf("put directory: %w", err)
	}

	p, err := CleanPath(path)
	if err != nil {
		return Node{}, false, fmt.Errorf("put directory: %w", err)
	}
	if IsStorageRoot(p) {
		return s.root(p), false, nil
	}

	if err := s.checkParent(ctx, p); err != nil {
		return Node{}, false, fmt.Errorf("put directory %s: %w", p, err)
	}

	existing, err := s.repo.Get(ctx, p)
	switch {
	case err == nil:
		if !existing.IsDirectory() {
			return Node{}, false, fmt.Errorf("put directory %s: %w", p, ErrConflict)
		}
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return Node{}, false, fmt.Errorf("put directory %s: %w", p, err)
	}

	n, created, err := s.repo.Upsert(ctx, directoryEntry(p))
	if err != nil {
		return Node{}, false, fmt.Errorf("put directory %s: %w", p, err)
	}
	return n, created, nil
}

// PutObject stores content as an object and records its metadata.
// The parent directory must exist. When obj.ContentMD5 is set a payload that
// does not match it is rejected and the previous content is kept. If metadata
// creation fails the payload is removed.
func (s *Service) PutObject(ctx context.Context, obj PutObject, content io.Reader) (Node, error) {
	if err := ctx.Err(); err != nil {
		return Node{}, fmt.Errorf("put object: %w", err)
	}

	p, err := CleanPath(obj.Path)
	if err != nil {
		return Node{}, fmt.Errorf("put object: %w", err)
	}
	if IsStorageRoot(p) {
		return Node{}, fmt.Errorf("put object %s: %w", p, ErrConflict)
	}

	if err := s.checkParent(ctx, p); err != nil {
		return Node{}, fmt.Errorf("put object %s: %w", p, err)
	}

	existing, err := s.repo.Get(ctx, p)
	switch {
	case err == nil:
		if existing.IsDirectory() {
			return Node{}, fmt.Errorf("put object %s: %w", p, ErrConflict)
		}
	case !errors.Is(err, ErrNotFound):
		return Node{}, fmt.Errorf("put object %s: %w", p, err)
	}

	if obj.ContentMD5 != "" {
		want, err := base64.StdEncoding.DecodeString(obj.ContentMD5)
		if err != nil || len(want) != md5.Size {
			return Node{}, fmt.Errorf("put object %s: %w: malformed content md5", p, ErrInvalidInput)
		}
		content = &checksumReader{r: content, h: md5.New(), want: want}
	}

	result, err := s.storage.Write(ctx, storageKey(p), content)
	if err != nil {
		return Node{}, fmt.Errorf("put object %s: write failed: %w", p, err)
	}
	sum := base64.StdEncoding.EncodeToString(result.MD5)

	contentType := obj.ContentType
	if contentType == "" {
		contentType = defaultObjectContentType
	}

	entry := NodeEntry{
		Path:        p,
		Type:        manta.EntryTypeObject,
		ContentType: contentType,
		ETag:        uuid.NewString(),
		ContentMD5:  sum,
		Size:        result.BytesWritten,
		Metadata:    obj.Metadata,
	}

	n, _, err := s.repo.Upsert(ctx, entry)
	if err != nil {
		if delErr := s.cleanup(p); delErr != nil {
			return Node{}, fmt.Errorf("put object %s: metadata upsert failed (%w) and cleanup failed: %w", p, err, delErr)
		}
		return Node{}, fmt.Errorf("put object %s: metadata upsert failed: %w", p, err)
	}

	return n, nil
}

// cleanup removes a payload with a fresh context since the request context
// may already be cancelled.
func (s *Service) cleanup(p string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
	defer cancel()
	return s.storage.Delete(ctx, storageKey(p))
}

func (s *Service) checkParent(ctx context.Context, p string) error {
	parent, _ := SplitPath(p)
	if IsStorageRoot(parent) {
		return nil
	}

	n, err := s.repo.Get(ctx, parent)
	if errors.Is(err, ErrNotFound) {
		return ErrParentNotFound
	}
	if err != nil {
		return err
	}
	if !n.IsDirectory() {
		return ErrParentNotFound
	}
	return nil
}

// Stat returns the node at path.
func (s *Service) Stat(ctx context.Context, path string) (Node, error) {
	if err := ctx.Err(); err != nil {
		return Node{}, fmt.Errorf("stat: %w", err)
	}

	p, err := CleanPath(path)
	if err != nil {
		return Node{}, fmt.Errorf("stat: %w", err)
	}
	if IsStorageRoot(p) {
		return s.root(p), nil
	}

	n, err := s.repo.Get(ctx, p)
	if err != nil {
		return Node{}, fmt.Errorf("stat %s: %w", p, err)
	}
	return n, nil
}

// Get returns an object and its payload. The caller must close the payload.
// Directories cannot be read this way and yield ErrConflict.
func (s *Service) Get(ctx context.Context, path string) (Node, io.ReadSeekCloser, error) {
	n, err := s.Stat(ctx, path)
	if err != nil {
		return Node{}, nil, fmt.Errorf("get object: %w", err)
	}
	if n.IsDirectory() {
		return Node{}, nil, fmt.Errorf("get object %s: %w", n.Path, ErrConflict)
	}

	f, err := s.storage.Get(ctx, storageKey(n.Path))
	if err != nil {
		return Node{}, nil, fmt.Errorf("get object %s: %w", n.Path, err)
	}
	return n, f, nil
}

// List returns the children of the directory q.Parent.
func (s *Service) List(ctx context.Context, q ListQuery) ([]Node, error) {
	dir, err := s.Stat(ctx, q.Parent)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	if !dir.IsDirectory() {
		return nil, fmt.Errorf("list %s: %w", dir.Path, ErrConflict)
	}

	q.Parent = dir.Path
	nodes, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir.Path, err)
	}
	return nodes, nil
}

// Delete removes an object or an empty directory. Storage roots cannot be
// deleted.
func (s *Service) Delete(ctx context.Context, path string) error {
	n, err := s.Stat(ctx, path)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if IsStorageRoot(n.Path) {
		return fmt.Errorf("delete %s: %w: storage root", n.Path, ErrInvalidInput)
	}

	if n.IsDirectory() {
		count, err := s.repo.CountChildren(ctx, n.Path)
		if err != nil {
			return fmt.Errorf("delete %s: %w", n.Path, err)
		}
		if count > 0 {
			return fmt.Errorf("delete %s: %w", n.Path, ErrDirectoryNotEmpty)
		}
	}

	if err := s.repo.Delete(ctx, n.Path); err != nil {
		return fmt.Errorf("delete %s: %w", n.Path, err)
	}

	if !n.IsDirectory() {
		err := s.storage.Delete(ctx, storageKey(n.Path))
		if err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Warn("delete payload failed", "path", n.Path, "error", err)
		}
	}
	return nil
}

func (s *Service) root(p string) Node {
	parent, name := SplitPath(p)
	return Node{
		Path:        p,
		Parent:      parent,
		Name:        name,
		Type:        manta.EntryTypeDirectory,
		ContentType: manta.DirectoryContentType,
		CreatedAt:   s.started,
		UpdatedAt:   s.started,
	}
}

func directoryEntry(p string) NodeEntry {
	return NodeEntry{
		Path:        p,
		Type:        manta.EntryTypeDirectory,
		ContentType: manta.DirectoryContentType,
	}
}

// checksumReader fails the final read when the content does not hash to want,
// so storage never commits a mismatched payload.
type checksumReader struct {
	r    io.Reader
	h    hash.Hash
	want []byte
}

func (c *checksumReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.h.Write(p[:n])
	if errors.Is(err, io.EOF) && !bytes.Equal(c.h.Sum(nil), c.want) {
		return n, ErrChecksumMismatch
	}
	return n, err
}
