package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/manta"
	"github.com/sagarc03/manta/service"
)

// Error codes written in the "code" field of error bodies.
const (
	CodeResourceNotFound      = "ResourceNotFound"
	CodeDirectoryDoesNotExist = "DirectoryDoesNotExist"
	CodeDirectoryNotEmpty     = "DirectoryNotEmpty"
	CodeOperationNotAllowed   = "OperationNotAllowedOnDirectory"
	CodeChecksum              = "ContentMD5Mismatch"
	CodeInvalidArgument       = "InvalidArgument"
	CodeTooLarge              = "RequestEntityTooLarge"
	CodeInvalidSignature      = "InvalidSignature"
	CodeAuthorizationFailed   = "AuthorizationFailed"
	CodeInternal              = "InternalError"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Code:    errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the error response matching err.
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, CodeTooLarge, "object exceeds maximum upload size")
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, CodeResourceNotFound, "resource not found")
	case errors.Is(err, service.ErrParentNotFound):
		WriteError(w, http.StatusNotFound, CodeDirectoryDoesNotExist, "parent directory does not exist")
	case errors.Is(err, service.ErrDirectoryNotEmpty):
		WriteError(w, http.StatusConflict, CodeDirectoryNotEmpty, "directory is not empty")
	case errors.Is(err, service.ErrConflict):
		WriteError(w, http.StatusConflict, CodeOperationNotAllowed, "operation not allowed on this entry type")
	case errors.Is(err, service.ErrChecksumMismatch):
		WriteError(w, http.StatusBadRequest, CodeChecksum, "content md5 does not match")
	case errors.Is(err, service.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, CodeInvalidArgument, "invalid argument")
	case errors.Is(err, ErrAccountMismatch):
		WriteError(w, http.StatusForbidden, CodeAuthorizationFailed, err.Error())
	case errors.Is(err, manta.ErrAuthFailed):
		WriteError(w, http.StatusUnauthorized, CodeInvalidSignature, err.Error())
	default:
		logger.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
