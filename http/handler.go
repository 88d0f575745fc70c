package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sagarc03/manta"
	"github.com/sagarc03/manta/service"
)

// Service is the storage namespace served over HTTP. *service.Service implements it.
type Service interface {
	Stat(ctx context.Context, path string) (service.Node, error)
	Get(ctx context.Context, path string) (service.Node, io.ReadSeekCloser, error)
	List(ctx context.Context, q service.ListQuery) ([]service.Node, error)
	PutDirectory(ctx context.Context, path string) (service.Node, bool, error)
	PutObject(ctx context.Context, obj service.PutObject, content io.Reader) (service.Node, error)
	Delete(ctx context.Context, path string) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// Verifier authenticates requests. Nil disables authentication.
	Verifier RequestVerifier
	CORS     CORSConfig
	// MaxUploadSize caps object bodies in bytes. 0 means no limit.
	MaxUploadSize int64
	Logger        *slog.Logger
}

// Handler serves the storage REST API.
type Handler struct {
	config  HandlerConfig
	service Service
	logger  *slog.Logger
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		config:  *config,
		service: service,
		logger:  logger,
	}
}

// Router returns an http.Handler serving every path of the namespace.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.config.Verifier, h.logger))
		r.Get("/*", h.handleGet)
		r.Head("/*", h.handleHead)
		r.Put("/*", h.handlePut)
		r.Delete("/*", h.handleDelete)
	})

	return r
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	node, err := h.service.Stat(r.Context(), r.URL.Path)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	if node.IsDirectory() {
		h.handleList(w, r, node)
		return
	}

	obj, content, err := h.service.Get(r.Context(), node.Path)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}
	defer func() { _ = content.Close() }()

	writeObjectHeaders(w, obj)
	http.ServeContent(w, r, obj.Name, obj.UpdatedAt, content)
}

// handleList writes a directory listing: one JSON object per line.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, dir service.Node) {
	q := service.ListQuery{
		Parent: dir.Path,
		Marker: r.URL.Query().Get("marker"),
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			WriteError(w, http.StatusBadRequest, CodeInvalidArgument, "limit must be a non-negative integer")
			return
		}
		q.Limit = limit
	}

	nodes, err := h.service.List(r.Context(), q)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	entries := make([]manta.StorageEntry, 0, len(nodes))
	for _, n := range nodes {
		entries = append(entries, n.Entry())
	}

	w.Header().Set("Content-Type", manta.ListingContentType)
	w.Header().Set("Result-Set-Size", strconv.Itoa(len(entries)))
	w.WriteHeader(http.StatusOK)

	if err := manta.EncodeListing(w, entries); err != nil {
		h.logger.Warn("write listing failed", "path", dir.Path, "error", err)
	}
}

func (h *Handler) handleHead(w http.ResponseWriter, r *http.Request) {
	node, err := h.service.Stat(r.Context(), r.URL.Path)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	if node.IsDirectory() {
		w.Header().Set("Content-Type", manta.ListingContentType)
		w.Header().Set("Last-Modified", node.UpdatedAt.UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		return
	}

	writeObjectHeaders(w, node)
	w.Header().Set("Content-Length", strconv.FormatInt(node.Size, 10))
	w.Header().Set("Last-Modified", node.UpdatedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")

	if strings.Contains(contentType, "type=directory") {
		if _, _, err := h.service.PutDirectory(r.Context(), r.URL.Path); err != nil {
			HandleError(w, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body := r.Body
	if limit := h.config.MaxUploadSize; limit > 0 {
		if r.ContentLength > limit {
			WriteError(w, http.StatusRequestEntityTooLarge, CodeTooLarge, "object exceeds maximum upload size")
			return
		}
		body = http.MaxBytesReader(w, r.Body, limit)
	}

	obj := service.PutObject{
		Path:        r.URL.Path,
		ContentType: contentType,
		ContentMD5:  r.Header.Get("Content-MD5"),
		Metadata:    userMetadata(r.Header),
	}

	node, err := h.service.PutObject(r.Context(), obj, body)
	if err != nil {
		HandleError(w, h.logger, err)
		return
	}

	w.Header().Set("ETag", `"`+node.ETag+`"`)
	w.Header().Set("Computed-MD5", node.ContentMD5)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.URL.Path); err != nil {
		HandleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeObjectHeaders(w http.ResponseWriter, n service.Node) {
	w.Header().Set("ETag", `"`+n.ETag+`"`)
	w.Header().Set("Content-Type", n.ContentType)
	if n.ContentMD5 != "" {
		w.Header().Set("Content-MD5", n.ContentMD5)
	}
	for k, v := range n.Metadata {
		w.Header().Set(manta.UserMetadataPrefix+k, v)
	}
}

func userMetadata(header http.Header) map[string]string {
	var m map[string]string
	for key, values := range header {
		if len(values) == 0 || !strings.HasPrefix(key, manta.UserMetadataPrefix) {
			continue
		}
		if m == nil {
			m = make(map[string]string)
		}
		m[strings.ToLower(strings.TrimPrefix(key, manta.UserMetadataPrefix))] = values[0]
	}
	return m
}
