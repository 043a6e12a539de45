package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rutapp/rut-server/internal/domain"
	"github.com/rutapp/rut-server/internal/service"
)

func TestSignup_ReturnsToken(t *testing.T) {
	ts := setupTestServer(t, noSearch)

	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"uname":    "ann",
		"password": "correct horse",
		"confirm":  "correct horse",
		"email":    "ann@example.com",
	})

	out := decodeData[service.AuthResponse](t, resp, http.StatusCreated)
	assert.Equal(t, "ann", out.User.UName)
	assert.Equal(t, "Bearer", out.TokenType)
	assert.NotEmpty(t, out.AccessToken)
	assert.NotContains(t, resp.Body.String(), "password")
}

func TestSignup_Errors(t *testing.T) {
	ts := setupTestServer(t, noSearch)
	ts.signup(t, "ann")

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{
			name:   "duplicate uname",
			body:   map[string]any{"uname": "ann", "password": "correct horse", "confirm": "correct horse"},
			status: http.StatusConflict,
			code:   "ALREADY_EXISTS",
		},
		{
			name:   "short uname",
			body:   map[string]any{"uname": "an", "password": "correct horse", "confirm": "correct horse"},
			status: http.StatusBadRequest,
			code:   "VALIDATION",
		},
		{
			name:   "confirm mismatch",
			body:   map[string]any{"uname": "bob", "password": "correct horse", "confirm": "battery staple"},
			status: http.StatusBadRequest,
			code:   "VALIDATION",
		},
		{
			name:   "missing confirm",
			body:   map[string]any{"uname": "bob", "password": "correct horse"},
			status: http.StatusUnprocessableEntity,
			code:   "VALIDATION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/auth/signup", tt.body)
			requireError(t, resp, tt.status, tt.code)
		})
	}
}

func TestSignin(t *testing.T) {
	ts := setupTestServer(t, noSearch)
	ts.signup(t, "ann")

	resp := ts.api.Post("/api/v1/auth/signin", map[string]any{"uname": "ann", "password": "correct horse"})
	out := decodeData[service.AuthResponse](t, resp, http.StatusOK)
	assert.Equal(t, "ann", out.User.UName)

	// Unknown user and wrong password are indistinguishable.
	wrong := requireError(t, ts.api.Post("/api/v1/auth/signin", map[string]any{"uname": "ann", "password": "nope nope"}),
		http.StatusUnauthorized, "INVALID_CREDENTIALS")
	unknown := requireError(t, ts.api.Post("/api/v1/auth/signin", map[string]any{"uname": "zed", "password": "nope nope"}),
		http.StatusUnauthorized, "INVALID_CREDENTIALS")
	assert.Equal(t, wrong.Message, unknown.Message)
}

func TestSignin_RateLimited(t *testing.T) {
	ts := setupTestServer(t, noSearch, func(o *testServerOpts) {
		o.authPerMinute = 1
		o.authBurst = 2
	})

	body := map[string]any{"uname": "zed", "password": "nope nope"}
	requireError(t, ts.api.Post("/api/v1/auth/signin", body), http.StatusUnauthorized, "INVALID_CREDENTIALS")
	requireError(t, ts.api.Post("/api/v1/auth/signin", body), http.StatusUnauthorized, "INVALID_CREDENTIALS")
	requireError(t, ts.api.Post("/api/v1/auth/signin", body), http.StatusTooManyRequests, "RATE_LIMITED")

	// Another client has its own bucket.
	resp := ts.api.Post("/api/v1/auth/signin", "X-Forwarded-For: 203.0.113.7", body)
	requireError(t, resp, http.StatusUnauthorized, "INVALID_CREDENTIALS")
}

func TestCheckUName(t *testing.T) {
	ts := setupTestServer(t, noSearch)
	ts.signup(t, "ann")

	taken := decodeData[CheckUNameResponse](t, ts.api.Get("/api/v1/auth/check/ann"), http.StatusOK)
	assert.False(t, taken.Available)

	free := decodeData[CheckUNameResponse](t, ts.api.Get("/api/v1/auth/check/bob"), http.StatusOK)
	assert.True(t, free.Available)
}

func TestMe(t *testing.T) {
	ts := setupTestServer(t, noSearch)
	auth := ts.signup(t, "ann")

	me := decodeData[domain.User](t, ts.api.Get("/api/v1/auth/me", auth), http.StatusOK)
	assert.Equal(t, "ann", me.UName)

	requireError(t, ts.api.Get("/api/v1/auth/me"), http.StatusUnauthorized, "UNAUTHENTICATED")
	// A bad token is treated as no token.
	requireError(t, ts.api.Get("/api/v1/auth/me", bearer("v4.local.garbage")), http.StatusUnauthorized, "UNAUTHENTICATED")
}

func TestUsers_EmailVisibleToOwnerOnly(t *testing.T) {
	ts := setupTestServer(t, noSearch)
	ann := ts.signup(t, "ann")
	bob := ts.signup(t, "bob")

	updated := decodeData[domain.User](t, ts.api.Patch("/api/v1/users/me", ann, map[string]any{
		"email": "ann@example.com",
		"intro": "reads a lot",
	}), http.StatusOK)
	require.Equal(t, "ann@example.com", updated.Email)

	own := decodeData[domain.User](t, ts.api.Get("/api/v1/users/"+updated.ID, ann), http.StatusOK)
	assert.Equal(t, "ann@example.com", own.Email)

	other := decodeData[domain.User](t, ts.api.Get("/api/v1/users/"+updated.ID, bob), http.StatusOK)
	assert.Empty(t, other.Email)
	assert.Equal(t, "reads a lot", other.Intro)

	requireError(t, ts.api.Get("/api/v1/users/missing"), http.StatusNotFound, "NOT_FOUND")
}
