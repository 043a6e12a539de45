package auth

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rutapp/rut-server/internal/domain"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, keyLength)
}

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(testKey(7), time.Hour)
	require.NoError(t, err)
	return svc
}

func TestNewTokenService_KeyLength(t *testing.T) {
	_, err := NewTokenService([]byte("short"), time.Hour)
	assert.Error(t, err)
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newTestTokenService(t)
	user := &domain.User{ID: "u-1", UName: "ann"}

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.Contains(t, token, "v4.local.")

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "ann", claims.UName)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.TokenID)
	assert.Equal(t, domain.Principal{UserID: "u-1", UName: "ann"}, claims.Principal())
}

func TestTokenService_Expired(t *testing.T) {
	svc := newTestTokenService(t)
	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }

	token, err := svc.GenerateAccessToken(&domain.User{ID: "u-1", UName: "ann"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_WrongKey(t *testing.T) {
	svc := newTestTokenService(t)
	token, err := svc.GenerateAccessToken(&domain.User{ID: "u-1", UName: "ann"})
	require.NoError(t, err)

	other, err := NewTokenService(testKey(9), time.Hour)
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Authenticate(t *testing.T) {
	svc := newTestTokenService(t)
	token, err := svc.GenerateAccessToken(&domain.User{ID: "u-1", UName: "ann"})
	require.NoError(t, err)

	p, err := svc.Authenticate("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "ann", p.UName)

	for name, header := range map[string]string{
		"missing":   "",
		"no scheme": token,
		"basic":     "Basic Zm9vOmJhcg==",
		"garbage":   "Bearer v4.local.garbage",
		"tampered":  "Bearer " + token[:len(token)-2] + "xx",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Authenticate(header)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := t.TempDir()

	first, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, first, keyLength)

	second, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecodeKey(t *testing.T) {
	_, err := DecodeKey("abcd")
	assert.Error(t, err)

	_, err = DecodeKey(string(bytes.Repeat([]byte("zz"), keyLength)))
	assert.Error(t, err)

	key, err := DecodeKey(string(bytes.Repeat([]byte("0a"), keyLength)))
	require.NoError(t, err)
	assert.Equal(t, testKey(10), key)
}
