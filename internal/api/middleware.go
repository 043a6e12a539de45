package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rutapp/rut-server/internal/http/response"
)

// EnvelopeVersion is the envelope format version sent as "v".
const EnvelopeVersion = response.Version

// APIEnvelope wraps successful responses and simple errors:
//
//	{"v":1,"success":true,"data":{...}}
//	{"v":1,"success":false,"error":"..."}
type APIEnvelope = response.Envelope

// APIErrorEnvelope wraps errors that carry a code:
//
//	{"v":1,"success":false,"code":"CONFLICT","message":"...","details":{...}}
type APIErrorEnvelope = response.ErrorEnvelope

// EnvelopeTransformer is a huma transformer that wraps every operation
// response in the versioned envelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, _ := strconv.Atoi(status)

	var apiErr *APIError
	if err, ok := v.(error); ok && errors.As(err, &apiErr) && apiErr.Code != "" {
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}
	if err, ok := v.(error); ok {
		return APIEnvelope{Version: EnvelopeVersion, Error: err.Error()}, nil
	}

	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: code < http.StatusBadRequest,
		Data:    v,
	}, nil
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
