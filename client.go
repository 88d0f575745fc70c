package manta

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultURL is the public service endpoint.
	DefaultURL = "https://us-east.manta.joyent.com"

	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DirectoryContentType marks a PUT as a directory creation.
	DirectoryContentType = "application/json; type=directory"

	// ListingContentType is the content type of a directory listing.
	ListingContentType = "application/x-json-stream; type=directory"

	defaultBlobContentType = "application/octet-stream"

	// maxErrorBody caps how much of an error response is kept in APIError.Body.
	maxErrorBody = 64 << 10
)

// Config holds the connection settings of a Client.
type Config struct {
	// URL is the service endpoint. DefaultURL when empty.
	URL string
	// Account owns the storage tree and the signing key.
	Account string
	// KeyID is the key fingerprint sent in the Authorization header.
	// When empty it is derived from the loaded key.
	KeyID string
	// Key supplies the PEM encoded RSA private key.
	Key KeySource
	// KeyPassphrase decrypts an encrypted private key.
	KeyPassphrase string
}

// Client performs signed REST calls against the storage service. Paths are
// relative to the account's storage root; the signing transport adds it.
//
// Calls covered by the not-found policy in fallback.go never return a
// not-found error.
type Client struct {
	baseURL    *url.URL
	account    string
	httpClient *http.Client
	base       http.RoundTripper
	limiter    *rate.Limiter
	logger     *slog.Logger
	signer     *Signer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. The client is copied; its
// transport becomes the base of the signing transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		hc := *client
		c.httpClient = &hc
		if hc.Transport != nil {
			c.base = hc.Transport
		}
	}
}

// WithTransport sets the round tripper that sends signed requests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.base = rt
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets the logger used for signing and fallback events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRateLimit caps the request rate. Requests wait for a token on their
// own context.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// New creates a Client with the given config and options.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Account == "" {
		return nil, fmt.Errorf("%w: account is required", ErrInvalidConfig)
	}
	if cfg.Key == nil {
		return nil, fmt.Errorf("%w: key source is required", ErrInvalidConfig)
	}

	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = DefaultURL
	}
	baseURL, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: parse url: %w", ErrInvalidConfig, err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("%w: url %q must be absolute", ErrInvalidConfig, endpoint)
	}
	if baseURL.Path != "" || baseURL.RawQuery != "" {
		return nil, fmt.Errorf("%w: url %q must not have a path or query", ErrInvalidConfig, endpoint)
	}

	c := &Client{
		baseURL:    baseURL,
		account:    cfg.Account,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.signer = NewSigner(cfg.Account, cfg.KeyID, NewKeyLoader(cfg.Key, cfg.KeyPassphrase), c.logger)
	c.httpClient.Transport = &Transport{
		Signer:  c.signer,
		Base:    c.base,
		Limiter: c.limiter,
	}

	return c, nil
}

// Account returns the account the client signs for.
func (c *Client) Account() string {
	return c.account
}

// ListRoot lists the containers of the storage root.
func (c *Client) ListRoot(ctx context.Context) ([]StorageEntry, error) {
	return withNotFoundFallback(c.logger, OpListRoot, []StorageEntry{}, func() ([]StorageEntry, error) {
		return c.list(ctx)
	})
}

// ListContainer lists the entries of a container.
func (c *Client) ListContainer(ctx context.Context, container string) ([]StorageEntry, error) {
	if err := validateContainer(container); err != nil {
		return nil, err
	}
	return withNotFoundFallback(c.logger, OpListContainer, []StorageEntry{}, func() ([]StorageEntry, error) {
		return c.list(ctx, container)
	})
}

// ListDirectory lists the entries of a directory inside a container.
func (c *Client) ListDirectory(ctx context.Context, container, dir string) ([]StorageEntry, error) {
	if err := validateBlob(container, dir); err != nil {
		return nil, err
	}
	return withNotFoundFallback(c.logger, OpListContainer, []StorageEntry{}, func() ([]StorageEntry, error) {
		return c.list(ctx, container, dir)
	})
}

func (c *Client) list(ctx context.Context, elems ...string) ([]StorageEntry, error) {
	resp, err := c.do(ctx, http.MethodGet, c.resourceURL(elems...), http.NoBody, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	return DecodeListing(resp.Body)
}

// CreateContainer creates a container. Creating an existing container succeeds.
func (c *Client) CreateContainer(ctx context.Context, container string) error {
	if err := validateContainer(container); err != nil {
		return err
	}
	return c.mkdir(ctx, container)
}

// CreateDirectory creates a directory inside a container. The parent must exist.
func (c *Client) CreateDirectory(ctx context.Context, container, dir string) error {
	if err := validateBlob(container, dir); err != nil {
		return err
	}
	return c.mkdir(ctx, container, dir)
}

func (c *Client) mkdir(ctx context.Context, elems ...string) error {
	header := http.Header{}
	header.Set("Content-Type", DirectoryContentType)

	resp, err := c.do(ctx, http.MethodPut, c.resourceURL(elems...), http.NoBody, header)
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// DeleteContainer deletes an empty container. It reports true when the
// container is gone, including when it never existed.
func (c *Client) DeleteContainer(ctx context.Context, container string) (bool, error) {
	if err := validateContainer(container); err != nil {
		return false, err
	}
	return withNotFoundFallback(c.logger, OpDeleteContainer, true, func() (bool, error) {
		return c.remove(ctx, container)
	})
}

// DeleteDirectory deletes an empty directory inside a container.
func (c *Client) DeleteDirectory(ctx context.Context, container, dir string) (bool, error) {
	if err := validateBlob(container, dir); err != nil {
		return false, err
	}
	return withNotFoundFallback(c.logger, OpDeleteDirectory, true, func() (bool, error) {
		return c.remove(ctx, container, dir)
	})
}

// RemoveBlob deletes a blob. It reports true when the blob is gone,
// including when it never existed.
func (c *Client) RemoveBlob(ctx context.Context, container, name string) (bool, error) {
	if err := validateBlob(container, name); err != nil {
		return false, err
	}
	return withNotFoundFallback(c.logger, OpRemoveBlob, true, func() (bool, error) {
		return c.remove(ctx, container, name)
	})
}

func (c *Client) remove(ctx context.Context, elems ...string) (bool, error) {
	resp, err := c.do(ctx, http.MethodDelete, c.resourceURL(elems...), http.NoBody, nil)
	if err != nil {
		return false, err
	}
	drain(resp)
	return true, nil
}

// ContainerExists reports whether a container exists.
func (c *Client) ContainerExists(ctx context.Context, container string) (bool, error) {
	if err := validateContainer(container); err != nil {
		return false, err
	}
	return withNotFoundFallback(c.logger, OpContainerExists, false, func() (bool, error) {
		return c.head(ctx, container)
	})
}

// DirectoryExists reports whether a directory exists inside a container.
func (c *Client) DirectoryExists(ctx context.Context, container, dir string) (bool, error) {
	if err := validateBlob(container, dir); err != nil {
		return false, err
	}
	return withNotFoundFallback(c.logger, OpDirectoryExists, false, func() (bool, error) {
		resp, err := c.do(ctx, http.MethodHead, c.resourceURL(container, dir), http.NoBody, nil)
		if err != nil {
			return false, err
		}
		drain(resp)
		return isDirectory(resp.Header.Get("Content-Type")), nil
	})
}

// BlobExists reports whether a blob exists.
func (c *Client) BlobExists(ctx context.Context, container, name string) (bool, error) {
	if err := validateBlob(container, name); err != nil {
		return false, err
	}
	return withNotFoundFallback(c.logger, OpBlobExists, false, func() (bool, error) {
		return c.head(ctx, container, name)
	})
}

func (c *Client) head(ctx context.Context, elems ...string) (bool, error) {
	resp, err := c.do(ctx, http.MethodHead, c.resourceURL(elems...), http.NoBody, nil)
	if err != nil {
		return false, err
	}
	drain(resp)
	return true, nil
}

// PutBlob uploads blob.Payload as container/blob.Metadata.Name and returns
// the ETag the service assigned. A nil payload uploads an empty blob.
func (c *Client) PutBlob(ctx context.Context, container string, blob *Blob) (string, error) {
	if blob == nil {
		return "", fmt.Errorf("put blob: %w: nil blob", ErrInvalidName)
	}
	name := blob.Metadata.Name
	if err := validateBlob(container, name); err != nil {
		return "", err
	}

	var body io.Reader = http.NoBody
	if blob.Payload != nil {
		body = blob.Payload
	}

	header := http.Header{}
	contentType := blob.Metadata.Content.Type
	if contentType == "" {
		contentType = defaultBlobContentType
	}
	header.Set("Content-Type", contentType)
	if md5 := blob.Metadata.Content.MD5; len(md5) > 0 {
		header.Set("Content-MD5", base64.StdEncoding.EncodeToString(md5))
	}
	for key, value := range blob.Metadata.UserMetadata {
		header.Set(UserMetadataPrefix+key, value)
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.resourceURL(container, name), body, header)
	if err != nil {
		return "", err
	}
	if length := blob.Metadata.Content.Length; length != nil {
		req.ContentLength = *length
		if *length == 0 {
			req.Body = http.NoBody
		}
	}

	resp, err := c.send(req)
	if err != nil {
		return "", err
	}
	drain(resp)

	c.logger.Debug("blob uploaded", "container", container, "name", name)
	return firstETag(resp.Header), nil
}

// GetBlob downloads a blob. It returns nil when the blob does not exist.
// The caller must close the returned payload.
func (c *Client) GetBlob(ctx context.Context, container, name string) (*Blob, error) {
	if err := validateBlob(container, name); err != nil {
		return nil, err
	}
	return withNotFoundFallback(c.logger, OpGetBlob, (*Blob)(nil), func() (*Blob, error) {
		req, err := c.newRequest(ctx, http.MethodGet, c.resourceURL(container, name), http.NoBody, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.send(req)
		if err != nil {
			return nil, err
		}
		if resp.Request == nil {
			resp.Request = req
		}

		blob, err := DecodeBlob(c.account, container, name, resp)
		if err != nil {
			_ = resp.Body.Close()
			return nil, err
		}
		return blob, nil
	})
}

// GetBlobMetadata fetches a blob's metadata without its payload. It returns
// nil when the blob does not exist.
func (c *Client) GetBlobMetadata(ctx context.Context, container, name string) (*BlobMetadata, error) {
	if err := validateBlob(container, name); err != nil {
		return nil, err
	}
	return withNotFoundFallback(c.logger, OpGetBlobMetadata, (*BlobMetadata)(nil), func() (*BlobMetadata, error) {
		u := c.resourceURL(container, name)
		resp, err := c.do(ctx, http.MethodHead, u, http.NoBody, nil)
		if err != nil {
			return nil, err
		}
		drain(resp)
		return DecodeBlobMetadata(c.account, container, name, u, resp.Header)
	})
}

// resourceURL builds the URL of a resource relative to the storage root.
// Elements are joined verbatim; blob names keep their "/" separators.
func (c *Client) resourceURL(elems ...string) *url.URL {
	u := *c.baseURL
	u.Path = "/" + strings.Join(elems, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return &u
}

func (c *Client) newRequest(ctx context.Context, method string, u *url.URL, body io.Reader, header http.Header) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range header {
		req.Header[key] = values
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method string, u *url.URL, body io.Reader, header http.Header) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, u, body, header)
	if err != nil {
		return nil, err
	}
	return c.send(req)
}

// send executes req. Non-2xx responses are returned as *APIError with the
// body consumed and closed.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return nil, parseServerError(resp.StatusCode, body)
	}

	return resp, nil
}

// parseServerError extracts error message from server response.
func parseServerError(statusCode int, body []byte) error {
	return &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func isDirectory(contentType string) bool {
	return strings.Contains(contentType, "type=directory")
}

func validateContainer(container string) error {
	if !IsValidContainer(container) {
		return fmt.Errorf("%w: container %q", ErrInvalidName, container)
	}
	return nil
}

func validateBlob(container, name string) error {
	if err := validateContainer(container); err != nil {
		return err
	}
	if !IsValidPath(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
