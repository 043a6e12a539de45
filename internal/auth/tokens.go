package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/rutapp/rut-server/internal/domain"
	"github.com/rutapp/rut-server/internal/id"
)

const (
	tokenIssuer   = "rut-server"
	tokenAudience = "rut-client"

	// BearerPrefix starts an Authorization header value.
	BearerPrefix = "Bearer "
)

// ErrInvalidToken is returned for any token that fails to decrypt, parse or validate.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims is the claim set carried in a v4.local token.
type AccessClaims struct {
	UName string `json:"uname"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"` // User id
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// Principal converts the claims to the identity handed to services.
func (c *AccessClaims) Principal() domain.Principal {
	return domain.Principal{UserID: c.Subject, UName: c.UName}
}

// TokenService issues and verifies PASETO v4.local access tokens.
type TokenService struct {
	symmetricKey        paseto.V4SymmetricKey
	accessTokenDuration time.Duration
	now                 func() time.Time
}

// NewTokenService creates a token service from a raw 32-byte key.
func NewTokenService(key []byte, accessDuration time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey:        symmetricKey,
		accessTokenDuration: accessDuration,
		now:                 time.Now,
	}, nil
}

// GenerateAccessToken creates an encrypted token for the user.
func (s *TokenService) GenerateAccessToken(user *domain.User) (string, error) {
	now := s.now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(user.ID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.accessTokenDuration))

	tokenID, err := id.Generate("tok")
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	//nolint:errcheck // Token.Set only errors on unmarshalable values
	_ = token.Set("uname", user.UName)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// VerifyAccessToken decrypts and validates a token.
// Every failure wraps ErrInvalidToken.
func (s *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	now := s.now()

	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(now))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var claims AccessClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.UName == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &claims, nil
}

// Authenticate turns an Authorization header value into a principal.
// Absent, malformed, forged and expired tokens all fail with ErrInvalidToken.
func (s *TokenService) Authenticate(header string) (domain.Principal, error) {
	if header == "" {
		return domain.Principal{}, fmt.Errorf("%w: missing authorization header", ErrInvalidToken)
	}
	raw, ok := strings.CutPrefix(header, BearerPrefix)
	if !ok {
		return domain.Principal{}, fmt.Errorf("%w: expected bearer scheme", ErrInvalidToken)
	}

	claims, err := s.VerifyAccessToken(strings.TrimSpace(raw))
	if err != nil {
		return domain.Principal{}, err
	}
	return claims.Principal(), nil
}

// AccessTokenDuration returns the configured access token lifetime.
func (s *TokenService) AccessTokenDuration() time.Duration {
	return s.accessTokenDuration
}
