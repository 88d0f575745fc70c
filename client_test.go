package manta_test

import (
	"context"
	"crypto/md5" //nolint:gosec // Content-MD5 is defined on MD5
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sagarc03/manta"
	"github.com/sagarc03/manta/keybackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   string
}

// recorder is an httptest handler that records requests and replies with
// the configured status, headers and body.
type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest

	status int
	header http.Header
	body   string
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)

	r.mu.Lock()
	r.requests = append(r.requests, recordedRequest{
		Method: req.Method,
		Path:   req.URL.Path,
		Header: req.Header.Clone(),
		Body:   string(body),
	})
	r.mu.Unlock()

	for k, v := range r.header {
		w.Header()[k] = v
	}
	w.WriteHeader(r.status)
	_, _ = io.WriteString(w, r.body)
}

func (r *recorder) Requests() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedRequest(nil), r.requests...)
}

func newTestClient(t *testing.T, rec *recorder, opts ...manta.Option) *manta.Client {
	t.Helper()

	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)

	client, err := manta.New(manta.Config{
		URL:     srv.URL,
		Account: "acct",
		Key:     keybackend.NewStaticSource(pkcs1PEM(testKey(t))),
	}, opts...)
	require.NoError(t, err)
	return client
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	key := keybackend.NewStaticSource([]byte("x"))

	tests := []struct {
		name string
		cfg  manta.Config
	}{
		{name: "missing account", cfg: manta.Config{Key: key}},
		{name: "missing key", cfg: manta.Config{Account: "acct"}},
		{name: "relative url", cfg: manta.Config{Account: "acct", Key: key, URL: "manta.local"}},
		{name: "url with path", cfg: manta.Config{Account: "acct", Key: key, URL: "https://proxy.example/manta"}},
		{name: "url with query", cfg: manta.Config{Account: "acct", Key: key, URL: "https://proxy.example?x=1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := manta.New(tt.cfg)
			require.ErrorIs(t, err, manta.ErrInvalidConfig)
		})
	}
}

func TestClient_NotFoundFallbacks(t *testing.T) {
	t.Parallel()

	rec := &recorder{status: http.StatusNotFound, body: `{"code":"ResourceNotFound"}`}
	client := newTestClient(t, rec)
	ctx := context.Background()

	root, err := client.ListRoot(ctx)
	require.NoError(t, err)
	assert.NotNil(t, root)
	assert.Empty(t, root)

	entries, err := client.ListContainer(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	blob, err := client.GetBlob(ctx, "c1", "k1")
	require.NoError(t, err)
	assert.Nil(t, blob)

	md, err := client.GetBlobMetadata(ctx, "c1", "k1")
	require.NoError(t, err)
	assert.Nil(t, md)

	for name, check := range map[string]func() (bool, error){
		"container exists": func() (bool, error) { return client.ContainerExists(ctx, "c1") },
		"blob exists":      func() (bool, error) { return client.BlobExists(ctx, "c1", "k1") },
		"directory exists": func() (bool, error) { return client.DirectoryExists(ctx, "c1", "d1") },
	} {
		ok, err := check()
		require.NoError(t, err, name)
		assert.False(t, ok, name)
	}

	for name, remove := range map[string]func() (bool, error){
		"delete container": func() (bool, error) { return client.DeleteContainer(ctx, "c1") },
		"remove blob":      func() (bool, error) { return client.RemoveBlob(ctx, "c1", "k1") },
		"delete directory": func() (bool, error) { return client.DeleteDirectory(ctx, "c1", "d1") },
	} {
		gone, err := remove()
		require.NoError(t, err, name)
		assert.True(t, gone, name)
	}

	err = client.CreateContainer(ctx, "c1")
	require.ErrorIs(t, err, manta.ErrNotFound)

	_, err = client.PutBlob(ctx, "c1", manta.NewBlob("k1", strings.NewReader("hi")).Build())
	require.ErrorIs(t, err, manta.ErrNotFound)
}

func TestClient_RequestShapes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name       string
		call       func(*manta.Client) error
		wantMethod string
		wantPath   string
	}{
		{
			name:       "list root",
			call:       func(c *manta.Client) error { _, err := c.ListRoot(ctx); return err },
			wantMethod: http.MethodGet,
			wantPath:   "/acct/stor/",
		},
		{
			name:       "list container",
			call:       func(c *manta.Client) error { _, err := c.ListContainer(ctx, "c1"); return err },
			wantMethod: http.MethodGet,
			wantPath:   "/acct/stor/c1",
		},
		{
			name:       "list directory",
			call:       func(c *manta.Client) error { _, err := c.ListDirectory(ctx, "c1", "a/b"); return err },
			wantMethod: http.MethodGet,
			wantPath:   "/acct/stor/c1/a/b",
		},
		{
			name:       "delete container",
			call:       func(c *manta.Client) error { _, err := c.DeleteContainer(ctx, "c1"); return err },
			wantMethod: http.MethodDelete,
			wantPath:   "/acct/stor/c1",
		},
		{
			name:       "container exists",
			call:       func(c *manta.Client) error { _, err := c.ContainerExists(ctx, "c1"); return err },
			wantMethod: http.MethodHead,
			wantPath:   "/acct/stor/c1",
		},
		{
			name:       "get blob",
			call:       func(c *manta.Client) error { _, err := c.GetBlob(ctx, "c1", "k1"); return err },
			wantMethod: http.MethodGet,
			wantPath:   "/acct/stor/c1/k1",
		},
		{
			name:       "blob metadata",
			call:       func(c *manta.Client) error { _, err := c.GetBlobMetadata(ctx, "c1", "k1"); return err },
			wantMethod: http.MethodHead,
			wantPath:   "/acct/stor/c1/k1",
		},
		{
			name:       "remove blob",
			call:       func(c *manta.Client) error { _, err := c.RemoveBlob(ctx, "c1", "k1"); return err },
			wantMethod: http.MethodDelete,
			wantPath:   "/acct/stor/c1/k1",
		},
		{
			name:       "blob exists",
			call:       func(c *manta.Client) error { _, err := c.BlobExists(ctx, "c1", "k1"); return err },
			wantMethod: http.MethodHead,
			wantPath:   "/acct/stor/c1/k1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &recorder{status: http.StatusNotFound}
			client := newTestClient(t, rec)

			require.NoError(t, tt.call(client))

			reqs := rec.Requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, tt.wantMethod, reqs[0].Method)
			assert.Equal(t, tt.wantPath, reqs[0].Path)
			assert.Regexp(t, datePattern, reqs[0].Header.Get("Date"))
			assert.Regexp(t, authorizationPattern, reqs[0].Header.Get("Authorization"))
		})
	}
}

func TestClient_CreateContainer(t *testing.T) {
	t.Parallel()

	rec := &recorder{status: http.StatusNoContent}
	client := newTestClient(t, rec)

	require.NoError(t, client.CreateContainer(context.Background(), "c1"))
	require.NoError(t, client.CreateDirectory(context.Background(), "c1", "photos"))

	reqs := rec.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/acct/stor/c1", reqs[0].Path)
	assert.Equal(t, manta.DirectoryContentType, reqs[0].Header.Get("Content-Type"))
	assert.Equal(t, "/acct/stor/c1/photos", reqs[1].Path)
}

func TestClient_PutBlob(t *testing.T) {
	t.Parallel()

	rec := &recorder{status: http.StatusNoContent, header: http.Header{"Etag": {`"e-1"`}}}
	client := newTestClient(t, rec)

	sum := md5.Sum([]byte("hi")) //nolint:gosec // Content-MD5 is defined on MD5
	blob := manta.NewBlob("notes/k1.txt", strings.NewReader("hi")).
		ContentType("text/plain").
		ContentMD5(sum[:]).
		UserMetadata("Owner", "alice").
		Build()

	etag, err := client.PutBlob(context.Background(), "c1", blob)
	require.NoError(t, err)
	assert.Equal(t, "e-1", etag)

	reqs := rec.Requests()
	require.Len(t, reqs, 1)
	got := reqs[0]
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/acct/stor/c1/notes/k1.txt", got.Path)
	assert.Equal(t, "hi", got.Body)
	assert.Equal(t, "text/plain", got.Header.Get("Content-Type"))
	assert.Equal(t, base64.StdEncoding.EncodeToString(sum[:]), got.Header.Get("Content-MD5"))
	assert.Equal(t, "alice", got.Header.Get("m-owner"))
}

func TestClient_PutBlob_DefaultContentType(t *testing.T) {
	t.Parallel()

	rec := &recorder{status: http.StatusNoContent}
	client := newTestClient(t, rec)

	_, err := client.PutBlob(context.Background(), "c1", manta.NewBlob("k1", nil).Build())
	require.NoError(t, err)

	reqs := rec.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "application/octet-stream", reqs[0].Header.Get("Content-Type"))
	assert.Empty(t, reqs[0].Body)
}

func TestClient_GetBlob(t *testing.T) {
	t.Parallel()

	rec := &recorder{
		status: http.StatusOK,
		header: http.Header{
			"Etag":          {`"e-1"`},
			"Last-Modified": {"Thu, 05 Apr 2012 06:07:08 GMT"},
			"Content-Type":  {"text/plain"},
		},
		body: "hi",
	}
	client := newTestClient(t, rec)

	blob, err := client.GetBlob(context.Background(), "c1", "k1")
	require.NoError(t, err)
	require.NotNil(t, blob)
	defer func() { _ = blob.Payload.Close() }()

	payload, err := io.ReadAll(blob.Payload)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(payload))
	assert.Equal(t, "e-1", blob.Metadata.ETag)
	assert.Equal(t, "c1", blob.Metadata.Container)
	assert.Equal(t, "k1", blob.Metadata.Name)
	assert.Equal(t, "text/plain", blob.Headers.Get("Content-Type"))
	assert.True(t, strings.HasSuffix(blob.Metadata.URI.Path, "/acct/stor/c1/k1"))
}

func TestClient_MalformedResponsesFallBack(t *testing.T) {
	t.Parallel()

	t.Run("listing", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, &recorder{status: http.StatusOK, body: `{"name": oops}`})

		entries, err := client.ListContainer(context.Background(), "c1")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("metadata", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, &recorder{
			status: http.StatusOK,
			header: http.Header{"Last-Modified": {"last tuesday"}},
		})

		md, err := client.GetBlobMetadata(context.Background(), "c1", "k1")
		require.NoError(t, err)
		assert.Nil(t, md)
	})
}

func TestClient_ServerErrorPropagates(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, &recorder{status: http.StatusInternalServerError, body: "InternalError"})

	_, err := client.BlobExists(context.Background(), "c1", "k1")

	var apiErr *manta.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestClient_InvalidNamesNeverDispatch(t *testing.T) {
	t.Parallel()

	rec := &recorder{status: http.StatusOK}
	client := newTestClient(t, rec)
	ctx := context.Background()

	_, err := client.ListContainer(ctx, "a/b")
	require.ErrorIs(t, err, manta.ErrInvalidName)

	_, err = client.GetBlob(ctx, "c1", "../etc/passwd")
	require.ErrorIs(t, err, manta.ErrInvalidName)

	_, err = client.RemoveBlob(ctx, "", "k1")
	require.ErrorIs(t, err, manta.ErrInvalidName)

	assert.Empty(t, rec.Requests())
}

func TestClient_SigningFailureNeverDispatches(t *testing.T) {
	t.Parallel()

	rec := &recorder{status: http.StatusOK}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)

	client, err := manta.New(manta.Config{
		URL:     srv.URL,
		Account: "acct",
		Key:     keybackend.NewStaticSource([]byte("not a key")),
	})
	require.NoError(t, err)

	_, err = client.BlobExists(context.Background(), "c1", "k1")
	require.ErrorIs(t, err, manta.ErrKeyLoad)

	var signErr *manta.SigningError
	assert.True(t, errors.As(err, &signErr))
	assert.Empty(t, rec.Requests())
}
