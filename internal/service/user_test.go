package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rutapp/rut-server/internal/auth"
	"github.com/rutapp/rut-server/internal/color"
	domainerrors "github.com/rutapp/rut-server/internal/errors"
	"github.com/rutapp/rut-server/internal/validation"
)

func signup(t *testing.T, h *harness, uname string) *AuthResponse {
	t.Helper()
	resp, err := h.users.Signup(context.Background(), SignupRequest{
		UName:    uname,
		Password: "correct horse",
		Confirm:  "correct horse",
	})
	require.NoError(t, err)
	return resp
}

func TestSignupAndSignin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp := signup(t, h, "ann")
	assert.Equal(t, "ann", resp.User.UName)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.NotEmpty(t, resp.AccessToken)
	assert.True(t, strings.HasPrefix(resp.User.PasswordHash, "$argon2id$"))
	assert.Equal(t, color.ForUName("ann"), resp.User.Color)

	in, err := h.users.Signin(ctx, SigninRequest{UName: " ann ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, in.User.ID)
	assert.NotEmpty(t, in.AccessToken)
}

func TestSignup_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	signup(t, h, "ann")

	_, err := h.users.Signup(ctx, SignupRequest{UName: "ann", Password: "another pass", Confirm: "another pass"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))

	tests := []struct {
		name string
		req  SignupRequest
	}{
		{"short uname", SignupRequest{UName: "ab", Password: "password1", Confirm: "password1"}},
		{"uname with spaces", SignupRequest{UName: "a b c", Password: "password1", Confirm: "password1"}},
		{"short password", SignupRequest{UName: "carol", Password: "short", Confirm: "short"}},
		{"confirm mismatch", SignupRequest{UName: "carol", Password: "password1", Confirm: "password2"}},
		{"bad email", SignupRequest{UName: "carol", Password: "password1", Confirm: "password1", Email: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.users.Signup(ctx, tt.req)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)
		})
	}
}

func TestSignin_RejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	signup(t, h, "ann")

	_, wrongPass := h.users.Signin(ctx, SigninRequest{UName: "ann", Password: "incorrect"})
	_, unknown := h.users.Signin(ctx, SigninRequest{UName: "nobody", Password: "correct horse"})

	for _, err := range []error{wrongPass, unknown} {
		require.Error(t, err)
		assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))
	}
	assert.Equal(t, wrongPass.Error(), unknown.Error())
}

func TestSignin_RehashesAtNewCost(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp := signup(t, h, "ann")
	assert.Contains(t, resp.User.PasswordHash, "$m=64,t=1,p=1$")

	stronger, err := auth.NewHasher(auth.Argon2Params{MemoryKiB: 128, Iterations: 2, Parallelism: 1})
	require.NoError(t, err)
	upgraded := NewUserService(h.store, h.tokens, stronger, validation.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err = upgraded.Signin(ctx, SigninRequest{UName: "ann", Password: "correct horse"})
	require.NoError(t, err)

	stored, err := h.store.GetUserByUName(ctx, "ann")
	require.NoError(t, err)
	assert.Contains(t, stored.PasswordHash, "$m=128,t=2,p=1$")
	assert.NotEqual(t, resp.User.PasswordHash, stored.PasswordHash)

	// The old cost still verifies the upgraded hash.
	_, err = h.users.Signin(ctx, SigninRequest{UName: "ann", Password: "correct horse"})
	require.NoError(t, err)

	_, err = upgraded.Signin(ctx, SigninRequest{UName: "ann", Password: "wrong horse"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))
}

func TestCheckUName(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	signup(t, h, "ann")

	free, err := h.users.CheckUName(ctx, "ann")
	require.NoError(t, err)
	assert.False(t, free)

	free, err = h.users.CheckUName(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, free)

	_, err = h.users.CheckUName(ctx, "x")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := signup(t, h, "ann")
	p := ann
	p.UserID = resp.User.ID

	intro := "  reader of old books "
	avatar := "https://img.example/ann.png"
	user, err := h.users.UpdateProfile(ctx, p, ProfileUpdate{Intro: &intro, Avatar: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "reader of old books", user.Intro)
	assert.Equal(t, avatar, user.Avatar)

	got, err := h.users.GetUser(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "reader of old books", got.Intro)
	assert.Empty(t, got.Email)

	bad := "avatar.png"
	_, err = h.users.UpdateProfile(ctx, p, ProfileUpdate{Avatar: &bad})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = h.users.UpdateProfile(ctx, bob, ProfileUpdate{Intro: &intro})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}
