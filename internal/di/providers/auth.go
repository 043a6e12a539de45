package providers

import (
	"github.com/samber/do/v2"

	"github.com/rutapp/rut-server/internal/auth"
	"github.com/rutapp/rut-server/internal/config"
	"github.com/rutapp/rut-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the authentication key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.App.DataPath)
	if err != nil {
		return nil, err
	}

	// Update config with the loaded key
	cfg.Auth.AccessTokenKey = key

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(authKey), cfg.Auth.AccessTokenDuration)
}

// ProvidePasswordHasher provides the argon2id password hasher at the configured cost.
func ProvidePasswordHasher(i do.Injector) (*auth.Hasher, error) {
	cfg := do.MustInvoke[*config.Config](i)

	//nolint:gosec // bounds checked by config.Validate
	return auth.NewHasher(auth.Argon2Params{
		MemoryKiB:   uint32(cfg.Auth.Argon2MemoryKiB),
		Iterations:  uint32(cfg.Auth.Argon2Iterations),
		Parallelism: uint8(cfg.Auth.Argon2Parallelism),
	})
}
