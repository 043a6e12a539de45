package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltLength = 16
	hashLength = 32

	// Upper bound on input to hashing.
	maxPasswordLength = 1024
)

// Argon2Params are the argon2id cost parameters used for new hashes.
type Argon2Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultArgon2Params is the production cost.
var DefaultArgon2Params = Argon2Params{MemoryKiB: 64 * 1024, Iterations: 3, Parallelism: 4}

// Validate reports whether every cost parameter is usable.
func (p Argon2Params) Validate() error {
	if p.MemoryKiB < 8*uint32(p.Parallelism) || p.Iterations == 0 || p.Parallelism == 0 {
		return fmt.Errorf("invalid argon2 params m=%d,t=%d,p=%d", p.MemoryKiB, p.Iterations, p.Parallelism)
	}
	return nil
}

// Hasher hashes and verifies user passwords.
// Hashes carry their own parameters, so changing the cost never locks out existing users.
type Hasher struct {
	params Argon2Params
}

// NewHasher returns a hasher producing hashes at the given cost.
func NewHasher(params Argon2Params) (*Hasher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Hasher{params: params}, nil
}

// Params returns the cost used for new hashes.
func (h *Hasher) Params() Argon2Params {
	return h.params
}

// Hash creates an argon2id hash of the password in PHC string format.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	if len(password) > maxPasswordLength {
		return "", errors.New("password exceeds maximum length")
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	p := h.params
	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.MemoryKiB, p.Parallelism, hashLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.MemoryKiB, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks a password against an encoded hash using the hash's own parameters.
// A malformed hash is a mismatch, not an error.
func (h *Hasher) Verify(encoded, password string) bool {
	if len(password) > maxPasswordLength {
		return false
	}
	d, err := decodeHash(encoded)
	if err != nil {
		return false
	}
	//nolint:gosec // key length comes from a decoded 32 byte hash
	got := argon2.IDKey([]byte(password), d.salt, d.params.Iterations, d.params.MemoryKiB, d.params.Parallelism, uint32(len(d.key)))
	return subtle.ConstantTimeCompare(d.key, got) == 1
}

// NeedsRehash reports whether an encoded hash was made at a different cost than the hasher's.
func (h *Hasher) NeedsRehash(encoded string) bool {
	d, err := decodeHash(encoded)
	if err != nil {
		return true
	}
	return d.params != h.params
}

type decodedHash struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

func decodeHash(encoded string) (*decodedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, errors.New("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return nil, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("incompatible version: %d", version)
	}

	d := &decodedHash{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &d.params.MemoryKiB, &d.params.Iterations, &d.params.Parallelism); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if err := d.params.Validate(); err != nil {
		return nil, err
	}

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("invalid salt encoding: %w", err)
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("invalid hash encoding: %w", err)
	}
	if len(d.key) == 0 {
		return nil, errors.New("empty hash")
	}
	return d, nil
}
