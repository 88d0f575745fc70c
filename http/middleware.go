package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sagarc03/manta/service"
)

// RequestVerifier authenticates a request from its headers and returns the
// signing account. *manta.Verifier implements it.
type RequestVerifier interface {
	Verify(header http.Header) (string, error)
}

type accountKey struct{}

// AccountFromContext returns the account authenticated by AuthMiddleware.
func AccountFromContext(ctx context.Context) (string, bool) {
	account, ok := ctx.Value(accountKey{}).(string)
	return account, ok
}

// AuthMiddleware creates middleware that enforces HTTP signature authentication.
// A request may only address its own account's namespace.
// Pass nil to disable authentication (public access).
func AuthMiddleware(verifier RequestVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	if verifier == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := verifier.Verify(r.Header)
			if err != nil {
				HandleError(w, logger, err)
				return
			}

			if service.AccountOf(r.URL.Path) != account {
				HandleError(w, logger, ErrAccountMismatch)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey{}, account)))
		})
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
