package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/rutapp/rut-server/internal/errors"
	"github.com/rutapp/rut-server/internal/store"
)

func TestEnvelopeTransformer(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		input       any
		wantSuccess bool
		wantError   string
	}{
		{name: "ok", status: "200", input: map[string]string{"key": "value"}, wantSuccess: true},
		{name: "created", status: "201", input: map[string]string{"id": "123"}, wantSuccess: true},
		{name: "no content", status: "204", input: nil, wantSuccess: true},
		{name: "plain error", status: "400", input: errors.New("invalid input"), wantError: "invalid input"},
		{name: "non-error body on 500", status: "500", input: map[string]string{"a": "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			env, ok := result.(APIEnvelope)
			require.True(t, ok, "expected APIEnvelope, got %T", result)
			assert.Equal(t, EnvelopeVersion, env.Version)
			assert.Equal(t, tt.wantSuccess, env.Success)
			assert.Equal(t, tt.wantError, env.Error)
		})
	}
}

func TestEnvelopeTransformer_CodedError(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "409", &APIError{
		Code:    "CONFLICT",
		Message: "already starred",
		Details: []string{"rut-1"},
	})
	require.NoError(t, err)

	env, ok := result.(APIErrorEnvelope)
	require.True(t, ok, "expected APIErrorEnvelope, got %T", result)
	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.False(t, env.Success)
	assert.Equal(t, "CONFLICT", env.Code)
	assert.Equal(t, "already starred", env.Message)
	assert.Equal(t, []string{"rut-1"}, env.Details)
}

func TestRegisterErrorHandler(t *testing.T) {
	RegisterErrorHandler()

	tests := []struct {
		name       string
		status     int
		errs       []error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "domain error wins over status",
			status:     http.StatusInternalServerError,
			errs:       []error{domainerrors.StarLimit("too many")},
			wantStatus: http.StatusTeapot,
			wantCode:   "STAR_LIMIT",
		},
		{
			name:       "wrapped domain error",
			status:     http.StatusInternalServerError,
			errs:       []error{fmt.Errorf("collect: %w", domainerrors.CapacityExceeded("full"))},
			wantStatus: http.StatusConflict,
			wantCode:   "CAPACITY_EXCEEDED",
		},
		{
			name:       "raw store error",
			status:     http.StatusInternalServerError,
			errs:       []error{store.ErrNotFound},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "schema failure",
			status:     http.StatusUnprocessableEntity,
			errs:       []error{&huma.ErrorDetail{Message: "expected required property title to be present", Location: "body"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION",
		},
		{
			name:       "rate limited",
			status:     http.StatusTooManyRequests,
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "RATE_LIMITED",
		},
		{
			name:       "unknown failure",
			status:     http.StatusInternalServerError,
			errs:       []error{errors.New("disk on fire")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := huma.NewError(tt.status, "message", tt.errs...)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.GetStatus())
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestRegisterErrorHandler_SchemaDetails(t *testing.T) {
	RegisterErrorHandler()

	err := huma.NewError(http.StatusUnprocessableEntity, "validation failed",
		&huma.ErrorDetail{Message: "expected required property title to be present", Location: "body"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	details, ok := apiErr.Details.([]string)
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Contains(t, details[0], "title")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"remote addr", nil, "198.51.100.4:5123", "198.51.100.4"},
		{"forwarded for takes first hop", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": " 203.0.113.10 "}, "10.0.0.1:80", "203.0.113.10"},
		{"forwarded for beats real ip", map[string]string{"X-Forwarded-For": "203.0.113.9", "X-Real-IP": "203.0.113.10"}, "", "203.0.113.9"},
		{"bare remote addr", nil, "unix-socket", "unix-socket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := func(k string) string { return tt.headers[k] }
			assert.Equal(t, tt.want, clientIP(header, tt.remoteAddr))
		})
	}
}

func TestAuthMiddleware_Lenient(t *testing.T) {
	ts := setupTestServer(t, noSearch)
	token := ts.signup(t, "ann")

	var seen []bool
	probe := authMiddleware(ts.tokenService)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, ok := principalFrom(r.Context())
		seen = append(seen, ok)
	}))

	for _, header := range []string{"", "Bearer junk", "Basic abc", token[len("Authorization: "):]} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		probe.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, []bool{false, false, false, true}, seen)
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	ts := setupTestServer(t, noSearch)
	h := requestLogger(ts.logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}
