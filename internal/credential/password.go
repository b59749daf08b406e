package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Hasher is a one-way, salted password hash.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

// Argon2id hashes passwords with argon2id. The parameters are stored in the
// encoded hash so they can be raised without invalidating existing rows.
type Argon2id struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// DefaultArgon2id returns parameters following OWASP recommendations.
func DefaultArgon2id() Argon2id {
	return Argon2id{
		Time:    1,
		Memory:  64 * 1024, // 64 MiB
		Threads: 4,
		KeyLen:  32,
		SaltLen: 16,
	}
}

const argonScheme = "argon2id"

// Hash generates an argon2id hash with a random salt.
// Format: argon2id$time$memory$threads$hex(salt)$hex(key)
func (a Argon2id) Hash(password string) (string, error) {
	salt := make([]byte, a.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("credential.Argon2id.Hash: generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, a.Time, a.Memory, a.Threads, a.KeyLen)

	return strings.Join([]string{
		argonScheme,
		strconv.FormatUint(uint64(a.Time), 10),
		strconv.FormatUint(uint64(a.Memory), 10),
		strconv.FormatUint(uint64(a.Threads), 10),
		hex.EncodeToString(salt),
		hex.EncodeToString(key),
	}, "$"), nil
}

// Verify checks a password against an encoded argon2id hash.
func (a Argon2id) Verify(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != argonScheme {
		return false
	}

	t, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return false
	}
	m, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return false
	}
	p, err := strconv.ParseUint(parts[3], 10, 8)
	if err != nil || p == 0 {
		return false
	}
	salt, err := hex.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return false
	}
	expected, err := hex.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, uint32(t), uint32(m), uint8(p), uint32(len(expected))) //nolint:gosec // parsed with matching bit sizes

	return subtle.ConstantTimeCompare(computed, expected) == 1
}
