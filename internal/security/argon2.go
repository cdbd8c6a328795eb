package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/walletledger/backend/internal/config"
	"golang.org/x/crypto/argon2"
)

// Argon2 hashes and verifies login passwords and transaction PINs with Argon2id.
// Encoded form: base64(salt)$base64(hash).
type Argon2 struct {
	time       uint32
	memory     uint32
	threads    uint8
	keyLength  uint32
	saltLength int
}

func NewArgon2(cfg *config.Argon2Config) *Argon2 {
	return &Argon2{
		time:       cfg.Time,
		memory:     cfg.Memory,
		threads:    cfg.Threads,
		keyLength:  cfg.KeyLength,
		saltLength: cfg.SaltLength,
	}
}

// HashSecret derives a salted Argon2id hash of secret.
func (a *Argon2) HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret is empty")
	}

	salt := make([]byte, a.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(secret), salt, a.time, a.memory, a.threads, a.keyLength)
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

// VerifySecret reports whether candidate matches the stored hash.
// A malformed stored hash is an error, not a mismatch.
func (a *Argon2) VerifySecret(hashed, candidate string) (bool, error) {
	parts := strings.Split(hashed, "$")
	if len(parts) != 2 {
		return false, errors.New("invalid secret hash format")
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false, fmt.Errorf("invalid secret hash salt: %w", err)
	}

	stored, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, fmt.Errorf("invalid secret hash: %w", err)
	}

	computed := argon2.IDKey([]byte(candidate), salt, a.time, a.memory, a.threads, uint32(len(stored)))
	return subtle.ConstantTimeCompare(computed, stored) == 1, nil
}
