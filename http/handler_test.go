package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/manta"
	mantahttp "github.com/sagarc03/manta/http"
	"github.com/sagarc03/manta/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// readSeekNopCloser wraps an io.ReadSeeker to add a no-op Close method
type readSeekNopCloser struct {
	io.ReadSeeker
}

func (r readSeekNopCloser) Close() error { return nil }

// MockService is a mock implementation of http.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Stat(ctx context.Context, path string) (service.Node, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(service.Node), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, path string) (service.Node, io.ReadSeekCloser, error) {
	args := m.Called(ctx, path)
	if args.Get(1) == nil {
		return args.Get(0).(service.Node), nil, args.Error(2)
	}
	return args.Get(0).(service.Node), args.Get(1).(io.ReadSeekCloser), args.Error(2)
}

func (m *MockService) List(ctx context.Context, q service.ListQuery) ([]service.Node, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]service.Node), args.Error(1)
}

func (m *MockService) PutDirectory(ctx context.Context, path string) (service.Node, bool, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(service.Node), args.Bool(1), args.Error(2)
}

func (m *MockService) PutObject(ctx context.Context, obj service.PutObject, content io.Reader) (service.Node, error) {
	args := m.Called(ctx, obj, content)
	return args.Get(0).(service.Node), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

var modTime = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

func newHandler(t *testing.T) (http.Handler, *MockService) {
	t.Helper()
	svc := new(MockService)
	return mantahttp.NewHandler(&mantahttp.HandlerConfig{}, svc).Router(), svc
}

func directory(path string) service.Node {
	parent, name := service.SplitPath(path)
	return service.Node{
		ID:          uuid.New(),
		Path:        path,
		Parent:      parent,
		Name:        name,
		Type:        manta.EntryTypeDirectory,
		ContentType: manta.DirectoryContentType,
		CreatedAt:   modTime,
		UpdatedAt:   modTime,
	}
}

func object(path, content string) service.Node {
	parent, name := service.SplitPath(path)
	return service.Node{
		ID:          uuid.New(),
		Path:        path,
		Parent:      parent,
		Name:        name,
		Type:        manta.EntryTypeObject,
		ContentType: "text/plain",
		ETag:        "etag-1",
		ContentMD5:  "md5==",
		Size:        int64(len(content)),
		Metadata:    map[string]string{"color": "blue"},
		CreatedAt:   modTime,
		UpdatedAt:   modTime,
	}
}

func decodeError(t *testing.T, body io.Reader) mantahttp.ErrorResponse {
	t.Helper()
	var resp mantahttp.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestHandler_GetObject(t *testing.T) {
	handler, svc := newHandler(t)

	node := object("/acct/stor/c1/k1", "hi")
	svc.On("Stat", mock.Anything, "/acct/stor/c1/k1").Return(node, nil)
	svc.On("Get", mock.Anything, "/acct/stor/c1/k1").
		Return(node, readSeekNopCloser{strings.NewReader("hi")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/acct/stor/c1/k1", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hi", rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, `"etag-1"`, rec.Header().Get("ETag"))
	assert.Equal(t, "md5==", rec.Header().Get("Content-MD5"))
	assert.Equal(t, "blue", rec.Header().Get("m-color"))
	assert.Equal(t, modTime.Format(http.TimeFormat), rec.Header().Get("Last-Modified"))

	svc.AssertExpectations(t)
}

func TestHandler_GetObject_NotModified(t *testing.T) {
	handler, svc := newHandler(t)

	node := object("/acct/stor/k1", "hi")
	svc.On("Stat", mock.Anything, "/acct/stor/k1").Return(node, nil)
	svc.On("Get", mock.Anything, "/acct/stor/k1").
		Return(node, readSeekNopCloser{strings.NewReader("hi")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/acct/stor/k1", nil)
	req.Header.Set("If-None-Match", `"etag-1"`)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestHandler_GetDirectory_Listing(t *testing.T) {
	handler, svc := newHandler(t)

	k1 := object("/acct/stor/c1/k1", "hi")
	svc.On("Stat", mock.Anything, "/acct/stor/c1").Return(directory("/acct/stor/c1"), nil)
	svc.On("List", mock.Anything, service.ListQuery{Parent: "/acct/stor/c1"}).
		Return([]service.Node{directory("/acct/stor/c1/d1"), k1}, nil)

	req := httptest.NewRequest(http.MethodGet, "/acct/stor/c1", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, manta.ListingContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "2", rec.Header().Get("Result-Set-Size"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 2, "one record per line")

	entries, err := manta.DecodeListing(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "d1", entries[0].Name)
	assert.Equal(t, manta.EntryTypeDirectory, entries[0].Type)
	assert.Nil(t, entries[0].Size)

	assert.Equal(t, "k1", entries[1].Name)
	assert.Equal(t, manta.EntryTypeObject, entries[1].Type)
	assert.Equal(t, "etag-1", entries[1].ETag)
	require.NotNil(t, entries[1].Size)
	assert.Equal(t, int64(2), *entries[1].Size)
	require.NotNil(t, entries[1].LastModified())
	assert.True(t, modTime.Equal(*entries[1].LastModified()))

	svc.AssertExpectations(t)
}

func TestHandler_GetDirectory_Paging(t *testing.T) {
	handler, svc := newHandler(t)

	svc.On("Stat", mock.Anything, "/acct/stor/").Return(directory("/acct/stor"), nil)
	svc.On("List", mock.Anything, service.ListQuery{Parent: "/acct/stor", Marker: "c1", Limit: 10}).
		Return([]service.Node{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/acct/stor/?limit=10&marker=c1", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "0", rec.Header().Get("Result-Set-Size"))

	svc.AssertExpectations(t)
}

func TestHandler_GetDirectory_InvalidLimit(t *testing.T) {
	for _, limit := range []string{"-1", "abc"} {
		t.Run(limit, func(t *testing.T) {
			handler, svc := newHandler(t)
			svc.On("Stat", mock.Anything, "/acct/stor").Return(directory("/acct/stor"), nil)

			req := httptest.NewRequest(http.MethodGet, "/acct/stor?limit="+limit, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, mantahttp.CodeInvalidArgument, decodeError(t, rec.Body).Code)
			svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Get_NotFound(t *testing.T) {
	handler, svc := newHandler(t)

	svc.On("Stat", mock.Anything, "/acct/stor/missing").Return(service.Node{}, service.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/acct/stor/missing", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, mantahttp.CodeResourceNotFound, decodeError(t, rec.Body).Code)
}

func TestHandler_Head(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		handler, svc := newHandler(t)
		svc.On("Stat", mock.Anything, "/acct/stor/k1").Return(object("/acct/stor/k1", "hello"), nil)

		req := httptest.NewRequest(http.MethodHead, "/acct/stor/k1", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
		assert.Equal(t, "5", rec.Header().Get("Content-Length"))
		assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
		assert.Equal(t, `"etag-1"`, rec.Header().Get("ETag"))
		assert.Equal(t, "blue", rec.Header().Get("M-Color"))
		assert.Equal(t, modTime.Format(http.TimeFormat), rec.Header().Get("Last-Modified"))
		svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("directory", func(t *testing.T) {
		handler, svc := newHandler(t)
		svc.On("Stat", mock.Anything, "/acct/stor/c1").Return(directory("/acct/stor/c1"), nil)

		req := httptest.NewRequest(http.MethodHead, "/acct/stor/c1", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "type=directory")
	})

	t.Run("missing", func(t *testing.T) {
		handler, svc := newHandler(t)
		svc.On("Stat", mock.Anything, "/acct/stor/k1").Return(service.Node{}, service.ErrNotFound)

		req := httptest.NewRequest(http.MethodHead, "/acct/stor/k1", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_PutDirectory(t *testing.T) {
	handler, svc := newHandler(t)

	svc.On("PutDirectory", mock.Anything, "/acct/stor/c1").Return(directory("/acct/stor/c1"), true, nil)

	req := httptest.NewRequest(http.MethodPut, "/acct/stor/c1", nil)
	req.Header.Set("Content-Type", manta.DirectoryContentType)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	svc.AssertExpectations(t)
	svc.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_PutObject(t *testing.T) {
	handler, svc := newHandler(t)

	node := object("/acct/stor/c1/k1", "hi")
	node.ETag = "new-etag"
	node.ContentMD5 = "sum=="

	svc.On("PutObject", mock.Anything, service.PutObject{
		Path:        "/acct/stor/c1/k1",
		ContentType: "text/plain",
		ContentMD5:  "sum==",
		Metadata:    map[string]string{"color": "blue", "shape": "round"},
	}, mock.Anything).
		Run(func(args mock.Arguments) {
			b, err := io.ReadAll(args.Get(2).(io.Reader))
			assert.NoError(t, err)
			assert.Equal(t, "hi", string(b))
		}).
		Return(node, nil)

	req := httptest.NewRequest(http.MethodPut, "/acct/stor/c1/k1", strings.NewReader("hi"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Content-MD5", "sum==")
	req.Header.Set("m-color", "blue")
	req.Header.Set("M-Shape", "round")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, `"new-etag"`, rec.Header().Get("ETag"))
	assert.Equal(t, "sum==", rec.Header().Get("Computed-MD5"))
	svc.AssertExpectations(t)
}

func TestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		err      error
		wantCode int
		wantErr  string
	}{
		{"missing parent", http.MethodPut, service.ErrParentNotFound, http.StatusNotFound, mantahttp.CodeDirectoryDoesNotExist},
		{"type conflict", http.MethodPut, service.ErrConflict, http.StatusConflict, mantahttp.CodeOperationNotAllowed},
		{"checksum", http.MethodPut, service.ErrChecksumMismatch, http.StatusBadRequest, mantahttp.CodeChecksum},
		{"invalid path", http.MethodPut, service.ErrInvalidInput, http.StatusBadRequest, mantahttp.CodeInvalidArgument},
		{"not empty", http.MethodDelete, service.ErrDirectoryNotEmpty, http.StatusConflict, mantahttp.CodeDirectoryNotEmpty},
		{"delete missing", http.MethodDelete, service.ErrNotFound, http.StatusNotFound, mantahttp.CodeResourceNotFound},
		{"internal", http.MethodDelete, io.ErrUnexpectedEOF, http.StatusInternalServerError, mantahttp.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, svc := newHandler(t)
			svc.On("PutObject", mock.Anything, mock.Anything, mock.Anything).Return(service.Node{}, tt.err)
			svc.On("Delete", mock.Anything, mock.Anything).Return(tt.err)

			req := httptest.NewRequest(tt.method, "/acct/stor/c1/k1", strings.NewReader("x"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, decodeError(t, rec.Body).Code)
		})
	}
}

func TestHandler_Delete(t *testing.T) {
	handler, svc := newHandler(t)

	svc.On("Delete", mock.Anything, "/acct/stor/c1").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/acct/stor/c1", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	svc.AssertExpectations(t)
}

func TestHandler_CORS(t *testing.T) {
	svc := new(MockService)
	handler := mantahttp.NewHandler(&mantahttp.HandlerConfig{
		CORS: mantahttp.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"https://example.com"},
			AllowedMethods: []string{"GET", "PUT"},
		},
	}, svc).Router()

	req := httptest.NewRequest(http.MethodOptions, "/acct/stor/k1", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandler_PutObject_TooLarge(t *testing.T) {
	svc := new(MockService)
	handler := mantahttp.NewHandler(&mantahttp.HandlerConfig{MaxUploadSize: 4}, svc).Router()

	req := httptest.NewRequest(http.MethodPut, "/acct/stor/k1", strings.NewReader("too large"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, mantahttp.CodeTooLarge, decodeError(t, rec.Body).Code)
	svc.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything)
}
