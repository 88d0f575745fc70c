package clientcli

import (
	"bytes"
	"context"
	"crypto/md5" //#nosec G501 -- Content-MD5 is the service's integrity header
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sagarc03/manta"
	"github.com/sagarc03/manta/keybackend"
)

// Client performs operations against a storage account. Remote paths are
// "container/dir/name", relative to the account's storage root.
type Client struct {
	store *manta.Store
}

// New creates a new Client with the given config. Options are passed to
// the underlying manta.Client.
func New(cfg *Config, opts ...manta.Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()
	if err := cfg.ValidateWithAuth(); err != nil {
		return nil, err
	}

	store, err := manta.NewStore(manta.Config{
		URL:     strings.TrimSuffix(cfg.URL, "/"),
		Account: cfg.Account,
		KeyID:   cfg.KeyID,
		Key:     keybackend.NewFileSource(cfg.KeyPath),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &Client{store: store}, nil
}

// Store returns the underlying blob store.
func (c *Client) Store() *manta.Store {
	return c.store
}

// Upload uploads file(s) to the server.
// For recursive uploads, walks directory and preserves relative paths.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}
	if opts.Recursive {
		return c.uploadRecursive(ctx, opts)
	}

	remotePath := opts.RemotePath
	switch {
	case remotePath == "":
		remotePath = NormalizeLocalToRemotePath(opts.LocalPath)
	case strings.HasSuffix(remotePath, "/"):
		remotePath += filepath.Base(opts.LocalPath)
	}

	if opts.Parents {
		if err := c.ensureParents(ctx, remotePath); err != nil {
			return nil, err
		}
	}

	result, err := c.uploadSingle(ctx, opts.LocalPath, remotePath, opts.ContentType, opts.Metadata)
	if err != nil {
		return nil, err
	}
	return []UploadResult{result}, nil
}

// uploadRecursive walks a directory and uploads all files, creating the
// remote directories on the way.
func (c *Client) uploadRecursive(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	info, err := os.Stat(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}

	if !info.IsDir() {
		single := opts
		single.Recursive = false
		return c.Upload(ctx, single)
	}

	baseDir := opts.LocalPath
	remotePrefix := strings.Trim(opts.RemotePath, "/")
	if remotePrefix == "" {
		remotePrefix = NormalizeLocalToRemotePath(baseDir)
	}

	container, _ := splitRemotePath(remotePrefix)
	if container == "" {
		return nil, fmt.Errorf("upload: %w", ErrNoObjectName)
	}
	if err := c.Mkdir(ctx, MkdirOptions{Path: remotePrefix, Parents: true}); err != nil {
		return nil, err
	}

	var results []UploadResult
	walkErr := filepath.WalkDir(baseDir, func(p string, d fs.DirEntry, fileErr error) error {
		if fileErr != nil {
			return fileErr
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		relPath, relErr := filepath.Rel(baseDir, p)
		if relErr != nil {
			results = append(results, UploadResult{
				LocalPath: p,
				Err:       fmt.Errorf("calculate relative path: %w", relErr),
			})
			return nil
		}
		if relPath == "." {
			return nil
		}
		remotePath := remotePrefix + "/" + filepath.ToSlash(relPath)

		// WalkDir visits a directory before its contents.
		if d.IsDir() {
			if mkErr := c.Mkdir(ctx, MkdirOptions{Path: remotePath}); mkErr != nil {
				return mkErr
			}
			return nil
		}

		result, uploadErr := c.uploadSingle(ctx, p, remotePath, "", opts.Metadata)
		if uploadErr != nil {
			result = UploadResult{
				LocalPath:  p,
				RemotePath: remotePath,
				Err:        uploadErr,
			}
		}
		results = append(results, result)
		return nil
	})

	if walkErr != nil {
		return results, fmt.Errorf("walk directory: %w", walkErr)
	}

	return results, nil
}

// uploadSingle uploads a single file with its MD5 so the service rejects a
// corrupted transfer.
func (c *Client) uploadSingle(ctx context.Context, localPath, remotePath, contentType string, metadata map[string]string) (UploadResult, error) {
	container, name := splitRemotePath(remotePath)
	if container == "" || name == "" {
		return UploadResult{}, fmt.Errorf("upload %s: %w", remotePath, ErrNoObjectName)
	}

	file, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return UploadResult{}, fmt.Errorf("stat file: %w", err)
	}

	hash := md5.New() //#nosec G401 -- Content-MD5 is the service's integrity header
	if _, err := io.Copy(hash, file); err != nil {
		return UploadResult{}, fmt.Errorf("hash file: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return UploadResult{}, fmt.Errorf("rewind file: %w", err)
	}
	sum := hash.Sum(nil)

	if contentType == "" {
		contentType = detectContentType(localPath)
	}

	builder := manta.NewBlob(name, io.NopCloser(file)).
		ContentType(contentType).
		ContentLength(info.Size()).
		ContentMD5(sum)
	for k, v := range metadata {
		builder.UserMetadata(k, v)
	}

	etag, err := c.store.PutBlob(ctx, container, builder.Build(), manta.PutOptions{})
	if err != nil {
		return UploadResult{}, err
	}

	return UploadResult{
		LocalPath:   localPath,
		RemotePath:  container + "/" + name,
		ContentType: contentType,
		ETag:        etag,
		MD5:         base64.StdEncoding.EncodeToString(sum),
		Size:        info.Size(),
	}, nil
}

// ensureParents creates the container and every directory above the
// object named by remotePath.
func (c *Client) ensureParents(ctx context.Context, remotePath string) error {
	dir := path.Dir(strings.Trim(remotePath, "/"))
	if dir == "." {
		return nil
	}
	return c.Mkdir(ctx, MkdirOptions{Path: dir, Parents: true})
}

// Download downloads an object from the server.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file, checked against the
// object's Content-MD5 when the service sent one, and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.RemotePath == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyPath)
	}
	container, name := splitRemotePath(opts.RemotePath)
	if container == "" || name == "" {
		return nil, nil, fmt.Errorf("download %s: %w", opts.RemotePath, ErrNoObjectName)
	}
	remotePath := container + "/" + name

	blob, err := c.store.GetBlob(ctx, container, name, manta.GetOptions{})
	if err != nil {
		return nil, nil, err
	}
	if blob == nil {
		return nil, nil, fmt.Errorf("download %s: %w", remotePath, ErrObjectNotFound)
	}

	result := &DownloadResult{
		RemotePath:  remotePath,
		ETag:        blob.Metadata.ETag,
		ContentType: blob.Metadata.Content.Type,
	}
	if n := blob.Metadata.Content.Length; n != nil {
		result.Size = *n
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, blob.Payload, nil
	}
	defer func() { _ = blob.Payload.Close() }()

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = path.Base(name)
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	hash := md5.New() //#nosec G401 -- Content-MD5 is the service's integrity header
	written, copyErr := io.Copy(io.MultiWriter(file, hash), blob.Payload)
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	if want := blob.Metadata.Content.MD5; len(want) > 0 && !bytes.Equal(want, hash.Sum(nil)) {
		_ = os.Remove(localPath)
		return nil, nil, fmt.Errorf("download %s: %w", remotePath, ErrChecksumMismatch)
	}

	result.Size = written
	return result, nil, nil
}

// Delete deletes one or more objects from the server.
// Continues on error, collecting results for all paths. A missing object
// counts as deleted.
func (c *Client) Delete(ctx context.Context, opts DeleteOptions) ([]DeleteResult, error) {
	if len(opts.Paths) == 0 {
		return nil, ErrNoPaths
	}

	results := make([]DeleteResult, 0, len(opts.Paths))

	for _, p := range opts.Paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		results = append(results, c.deleteSingle(ctx, p))
	}

	return results, nil
}

func (c *Client) deleteSingle(ctx context.Context, remotePath string) DeleteResult {
	container, name := splitRemotePath(remotePath)
	if container == "" || name == "" {
		return DeleteResult{
			Path: remotePath,
			Err:  fmt.Errorf("delete %s: %w", remotePath, ErrNoObjectName),
		}
	}

	if err := c.store.RemoveBlob(ctx, container, name); err != nil {
		return DeleteResult{
			Path: remotePath,
			Err:  err,
		}
	}

	return DeleteResult{
		Path:    remotePath,
		Deleted: true,
	}
}

// HasDeleteErrors returns true if any delete operation failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// HasUploadErrors returns true if any upload failed.
func HasUploadErrors(results []UploadResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// Mkdir creates a container, or a directory inside one. With Parents the
// container and every missing intermediate directory are created too.
// Creating an existing directory is not an error.
func (c *Client) Mkdir(ctx context.Context, opts MkdirOptions) error {
	container, dir := splitRemotePath(opts.Path)
	if container == "" {
		return fmt.Errorf("mkdir: %w", ErrEmptyPath)
	}

	if dir == "" || opts.Parents {
		if _, err := c.store.CreateContainer(ctx, container); err != nil {
			return err
		}
	}
	if dir == "" {
		return nil
	}

	if !opts.Parents {
		return c.store.CreateDirectory(ctx, container, dir)
	}

	var current string
	for _, seg := range strings.Split(dir, "/") {
		if current == "" {
			current = seg
		} else {
			current += "/" + seg
		}
		if err := c.store.CreateDirectory(ctx, container, current); err != nil {
			return err
		}
	}
	return nil
}

// Rmdir deletes an empty container or directory. A missing one is not an error.
func (c *Client) Rmdir(ctx context.Context, remotePath string) error {
	container, dir := splitRemotePath(remotePath)
	if container == "" {
		return fmt.Errorf("rmdir: %w", ErrEmptyPath)
	}
	if dir == "" {
		return c.store.DeleteContainer(ctx, container)
	}
	return c.store.DeleteDirectory(ctx, container, dir)
}

// Info returns the metadata of one object.
func (c *Client) Info(ctx context.Context, remotePath string) (*InfoResult, error) {
	container, name := splitRemotePath(remotePath)
	if container == "" || name == "" {
		return nil, fmt.Errorf("info %s: %w", remotePath, ErrNoObjectName)
	}

	md, err := c.store.BlobMetadata(ctx, container, name)
	if err != nil {
		return nil, err
	}
	if md == nil {
		return nil, fmt.Errorf("info %s: %w", remotePath, ErrObjectNotFound)
	}

	result := &InfoResult{
		Path:         container + "/" + name,
		ContentType:  md.Content.Type,
		ETag:         md.ETag,
		LastModified: md.LastModified,
		Metadata:     md.UserMetadata,
	}
	if md.URI != nil {
		result.URI = md.URI.String()
	}
	if md.Content.Length != nil {
		result.Size = *md.Content.Length
	}
	if len(md.Content.MD5) > 0 {
		result.MD5 = base64.StdEncoding.EncodeToString(md.Content.MD5)
	}
	return result, nil
}

// List lists the entries below a path. An empty path lists the containers.
// A missing path yields an empty result.
func (c *Client) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	base := strings.Trim(opts.Path, "/")
	items, err := c.list(ctx, base, opts.Recursive)
	if err != nil {
		return nil, err
	}
	return &ListResult{Path: base, Items: items}, nil
}

func (c *Client) list(ctx context.Context, base string, recursive bool) ([]EntryInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := c.entries(ctx, base)
	if err != nil {
		return nil, err
	}

	items := make([]EntryInfo, 0, len(entries))
	for _, e := range entries {
		item := EntryInfo{
			Path:         joinRemote(base, e.Name),
			Name:         e.Name,
			Type:         TypeObject,
			ETag:         e.ETag,
			LastModified: e.LastModified(),
		}
		if e.Type == manta.EntryTypeDirectory {
			item.Type = TypeDirectory
		}
		if e.Size != nil {
			item.Size = *e.Size
		}
		items = append(items, item)

		if recursive && item.Type == TypeDirectory {
			children, err := c.list(ctx, item.Path, true)
			if err != nil {
				return nil, err
			}
			items = append(items, children...)
		}
	}
	return items, nil
}

func (c *Client) entries(ctx context.Context, base string) ([]manta.StorageEntry, error) {
	container, dir := splitRemotePath(base)
	client := c.store.Client()
	switch {
	case container == "":
		return client.ListRoot(ctx)
	case dir == "":
		return client.ListContainer(ctx, container)
	default:
		return client.ListDirectory(ctx, container, dir)
	}
}

// TotalSize calculates the total size of all objects in bytes.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for _, item := range r.Items {
		total += item.Size
	}
	return total
}

// splitRemotePath splits "container/dir/name" into the container and the
// path inside it.
func splitRemotePath(p string) (container, name string) {
	p = strings.Trim(path.Clean("/"+p), "/")
	container, name, _ = strings.Cut(p, "/")
	return container, name
}

func joinRemote(base, name string) string {
	if base == "" {
		return name
	}
	return base + "/" + name
}

// NormalizeLocalToRemotePath converts a local path to a clean remote path.
// It handles:
//   - Leading "./" is stripped (./foo/bar.txt -> foo/bar.txt)
//   - Leading "/" is stripped (/abs/path/file.txt -> abs/path/file.txt)
//   - Parent traversal is resolved (../sibling/file.txt -> sibling/file.txt)
//   - Multiple slashes are collapsed
//   - Backslashes are converted to forward slashes (Windows)
func NormalizeLocalToRemotePath(localPath string) string {
	p := filepath.ToSlash(localPath)
	p = filepath.ToSlash(filepath.Clean(p))
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")

	for strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(p, "../")
	}

	if p == ".." || p == "." {
		return ""
	}

	return p
}

// detectContentType returns MIME type based on file extension.
func detectContentType(p string) string {
	ext := filepath.Ext(p)
	if ext == "" {
		return "application/octet-stream"
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "application/octet-stream"
	}

	return mimeType
}

// IsNotFound reports whether err means the remote path does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound) || manta.IsNotFound(err)
}
