// Package response writes the versioned JSON envelope used by every rut API
// response, for handlers that sit outside the huma operation pipeline.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/rutapp/rut-server/internal/errors"
	"github.com/rutapp/rut-server/internal/store"
)

// Version is the envelope format version sent as "v".
const Version = 1

// Envelope wraps successful responses and simple errors.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorEnvelope carries a machine-readable code and optional details.
type ErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func write(w http.ResponseWriter, status int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil && logger != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// JSON writes data in an envelope with the given status code.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	write(w, status, Envelope{Version: Version, Success: status < 400, Data: data}, logger)
}

// Success writes a 200 OK envelope.
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Error writes a simple error envelope.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	write(w, status, Envelope{Version: Version, Error: message}, logger)
}

// Detailed writes an error envelope with a code and details.
func Detailed(w http.ResponseWriter, status int, code domainerrors.Code, message string, details any, logger *slog.Logger) {
	write(w, status, ErrorEnvelope{Version: Version, Code: string(code), Message: message, Details: details}, logger)
}

// Unauthenticated writes a 401 envelope.
func Unauthenticated(w http.ResponseWriter, message string, logger *slog.Logger) {
	Detailed(w, http.StatusUnauthorized, domainerrors.CodeUnauthenticated, message, nil, logger)
}

// NotFound writes a 404 envelope.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Detailed(w, http.StatusNotFound, domainerrors.CodeNotFound, message, nil, logger)
}

// MethodNotAllowed writes a 405 envelope.
func MethodNotAllowed(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusMethodNotAllowed, message, logger)
}

// TooManyRequests writes a 429 envelope.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusTooManyRequests, message, logger)
}

// InternalError writes a 500 envelope.
func InternalError(w http.ResponseWriter, message string, logger *slog.Logger) {
	Detailed(w, http.StatusInternalServerError, domainerrors.CodeInternal, message, nil, logger)
}

// HandleError writes the envelope matching err.
// Domain errors keep their code, store errors map through their HTTP code,
// anything else becomes a 500 without leaking the cause.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		Detailed(w, domainErr.HTTPStatus(), domainErr.Code, domainErr.Message, domainErr.Details, logger)
		return
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		Detailed(w, storeErr.HTTPCode(), StoreCode(storeErr), storeErr.Message, nil, logger)
		return
	}

	if logger != nil {
		logger.Error("unhandled error", "error", err)
	}
	InternalError(w, "internal server error", logger)
}

// StoreCode names the domain code for a store error.
func StoreCode(err *store.Error) domainerrors.Code {
	switch err.HTTPCode() {
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusConflict:
		return domainerrors.CodeAlreadyExists
	case http.StatusBadRequest:
		return domainerrors.CodeValidation
	default:
		return domainerrors.CodeInternal
	}
}
