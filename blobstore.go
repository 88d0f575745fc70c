package manta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultLocation is the only placement region of the service.
var DefaultLocation = Location{
	ID:          "us-east",
	Description: "us-east",
	ISO3166:     []string{"US-VA"},
}

// BlobStore is a provider-neutral blob store: containers holding named
// blobs, with optional nested directories.
type BlobStore interface {
	List(ctx context.Context) (*PageSet, error)
	ListContainer(ctx context.Context, container string, opts ListContainerOptions) (*PageSet, error)
	ContainerExists(ctx context.Context, container string) (bool, error)
	CreateContainer(ctx context.Context, container string) (bool, error)
	CreateContainerInLocation(ctx context.Context, location *Location, container string, opts CreateContainerOptions) (bool, error)
	DeleteContainer(ctx context.Context, container string) error
	ClearContainer(ctx context.Context, container string) error
	CountBlobs(ctx context.Context, container string) (int64, error)

	CreateDirectory(ctx context.Context, container, dir string) error
	DirectoryExists(ctx context.Context, container, dir string) (bool, error)
	DeleteDirectory(ctx context.Context, container, dir string) error

	BlobExists(ctx context.Context, container, name string) (bool, error)
	PutBlob(ctx context.Context, container string, blob *Blob, opts PutOptions) (string, error)
	GetBlob(ctx context.Context, container, name string, opts GetOptions) (*Blob, error)
	BlobMetadata(ctx context.Context, container, name string) (*BlobMetadata, error)
	RemoveBlob(ctx context.Context, container, name string) error

	Locations(ctx context.Context) ([]Location, error)
	ConsistencyModel() ConsistencyModel
}

var _ BlobStore = (*Store)(nil)

// Store implements BlobStore on top of a Client.
type Store struct {
	client *Client
	logger *slog.Logger
}

// NewStore creates a Client from cfg and wraps it in a Store.
func NewStore(cfg Config, opts ...Option) (*Store, error) {
	client, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return NewStoreFromClient(client), nil
}

// NewStoreFromClient wraps an existing client.
func NewStoreFromClient(client *Client) *Store {
	return &Store{client: client, logger: client.logger}
}

// Client returns the underlying REST client.
func (s *Store) Client() *Client {
	return s.client
}

// List lists the containers. The result is always a single page.
func (s *Store) List(ctx context.Context) (*PageSet, error) {
	entries, err := s.client.ListRoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	return toPageSet(entries), nil
}

// ListContainer lists a container's entries. The result is always a single page.
func (s *Store) ListContainer(ctx context.Context, container string, _ ListContainerOptions) (*PageSet, error) {
	entries, err := s.client.ListContainer(ctx, container)
	if err != nil {
		return nil, fmt.Errorf("list container: %w", err)
	}
	return toPageSet(entries), nil
}

// ContainerExists reports whether a container exists.
func (s *Store) ContainerExists(ctx context.Context, container string) (bool, error) {
	return s.client.ContainerExists(ctx, container)
}

// CreateContainer creates a container in the default location.
func (s *Store) CreateContainer(ctx context.Context, container string) (bool, error) {
	return s.CreateContainerInLocation(ctx, nil, container, CreateContainerOptions{})
}

// CreateContainerInLocation creates a container. The service has a single
// location, so location and opts are ignored. It reports true on success.
func (s *Store) CreateContainerInLocation(ctx context.Context, _ *Location, container string, _ CreateContainerOptions) (bool, error) {
	if err := s.client.CreateContainer(ctx, container); err != nil {
		return false, fmt.Errorf("create container: %w", err)
	}
	return true, nil
}

// DeleteContainer deletes an empty container and checks that it is gone.
// When the check fails without a server response (transport or context
// error) the container is assumed gone; a server error is returned.
func (s *Store) DeleteContainer(ctx context.Context, container string) error {
	gone, err := s.deleteAndVerifyContainerGone(ctx, container)
	if err != nil {
		return fmt.Errorf("delete container: %w", err)
	}
	if !gone {
		return fmt.Errorf("delete container %q: still present after delete", container)
	}
	return nil
}

func (s *Store) deleteAndVerifyContainerGone(ctx context.Context, container string) (bool, error) {
	if _, err := s.client.DeleteContainer(ctx, container); err != nil {
		return false, err
	}

	exists, err := s.client.ContainerExists(ctx, container)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false, fmt.Errorf("verify deletion: %w", err)
	}
	if err != nil {
		s.logger.Warn("verify container deletion failed, assuming gone", "container", container, "err", err)
		return true, nil
	}
	return !exists, nil
}

// ClearContainer removes every blob and directory inside a container,
// leaving the container itself in place.
func (s *Store) ClearContainer(ctx context.Context, container string) error {
	if err := s.clear(ctx, container, ""); err != nil {
		return fmt.Errorf("clear container: %w", err)
	}
	return nil
}

func (s *Store) clear(ctx context.Context, container, dir string) error {
	entries, err := s.entries(ctx, container, dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := joinName(dir, e.Name)
		switch e.Type {
		case EntryTypeDirectory:
			if err := s.clear(ctx, container, name); err != nil {
				return err
			}
			if _, err := s.client.DeleteDirectory(ctx, container, name); err != nil {
				return err
			}
		default:
			if _, err := s.client.RemoveBlob(ctx, container, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// CountBlobs counts the blobs in a container, including those in nested directories.
func (s *Store) CountBlobs(ctx context.Context, container string) (int64, error) {
	n, err := s.count(ctx, container, "")
	if err != nil {
		return 0, fmt.Errorf("count blobs: %w", err)
	}
	return n, nil
}

func (s *Store) count(ctx context.Context, container, dir string) (int64, error) {
	entries, err := s.entries(ctx, container, dir)
	if err != nil {
		return 0, err
	}

	var n int64
	for _, e := range entries {
		if e.Type != EntryTypeDirectory {
			n++
			continue
		}
		sub, err := s.count(ctx, container, joinName(dir, e.Name))
		if err != nil {
			return 0, err
		}
		n += sub
	}
	return n, nil
}

func (s *Store) entries(ctx context.Context, container, dir string) ([]StorageEntry, error) {
	if dir == "" {
		return s.client.ListContainer(ctx, container)
	}
	return s.client.ListDirectory(ctx, container, dir)
}

// CreateDirectory creates a directory inside a container.
func (s *Store) CreateDirectory(ctx context.Context, container, dir string) error {
	if err := s.client.CreateDirectory(ctx, container, dir); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return nil
}

// DirectoryExists reports whether a directory exists inside a container.
func (s *Store) DirectoryExists(ctx context.Context, container, dir string) (bool, error) {
	return s.client.DirectoryExists(ctx, container, dir)
}

// DeleteDirectory deletes an empty directory. A missing directory is not an error.
func (s *Store) DeleteDirectory(ctx context.Context, container, dir string) error {
	if _, err := s.client.DeleteDirectory(ctx, container, dir); err != nil {
		return fmt.Errorf("delete directory: %w", err)
	}
	return nil
}

// BlobExists reports whether a blob exists.
func (s *Store) BlobExists(ctx context.Context, container, name string) (bool, error) {
	return s.client.BlobExists(ctx, container, name)
}

// PutBlob uploads a blob and returns its ETag. Multipart uploads are not
// offered by the service and fail with ErrUnsupported before any request.
func (s *Store) PutBlob(ctx context.Context, container string, blob *Blob, opts PutOptions) (string, error) {
	if opts.Multipart {
		return "", fmt.Errorf("put blob: multipart upload: %w", ErrUnsupported)
	}
	etag, err := s.client.PutBlob(ctx, container, blob)
	if err != nil {
		return "", fmt.Errorf("put blob: %w", err)
	}
	return etag, nil
}

// GetBlob downloads a blob, or returns nil when it does not exist.
// Options are ignored.
func (s *Store) GetBlob(ctx context.Context, container, name string, _ GetOptions) (*Blob, error) {
	blob, err := s.client.GetBlob(ctx, container, name)
	if err != nil {
		return nil, fmt.Errorf("get blob: %w", err)
	}
	return blob, nil
}

// BlobMetadata returns a blob's metadata, or nil when it does not exist.
func (s *Store) BlobMetadata(ctx context.Context, container, name string) (*BlobMetadata, error) {
	md, err := s.client.GetBlobMetadata(ctx, container, name)
	if err != nil {
		return nil, fmt.Errorf("blob metadata: %w", err)
	}
	return md, nil
}

// RemoveBlob deletes a blob. A missing blob is not an error.
func (s *Store) RemoveBlob(ctx context.Context, container, name string) error {
	if _, err := s.client.RemoveBlob(ctx, container, name); err != nil {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

// Locations returns the single location of the service.
func (s *Store) Locations(context.Context) ([]Location, error) {
	return []Location{DefaultLocation}, nil
}

// ConsistencyModel reports strict read-after-write consistency.
func (s *Store) ConsistencyModel() ConsistencyModel {
	return ConsistencyStrict
}

func toPageSet(entries []StorageEntry) *PageSet {
	items := make([]StorageMetadata, 0, len(entries))
	for _, e := range entries {
		items = append(items, toStorageMetadata(e))
	}
	return &PageSet{Items: items}
}

func toStorageMetadata(e StorageEntry) StorageMetadata {
	md := StorageMetadata{
		Kind: toKind(e.Type),
		Name: e.Name,
		ETag: e.ETag,
		Size: e.Size,
	}
	if t := e.LastModified(); t != nil {
		md.CreatedAt = t
		md.LastModified = t
	}
	return md
}

func toKind(entryType string) StorageKind {
	switch entryType {
	case EntryTypeDirectory:
		return KindFolder
	case EntryTypeObject:
		return KindBlob
	default:
		return KindUnknown
	}
}

func joinName(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}

// IsNotFound reports whether err is a not-found response from the service.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
