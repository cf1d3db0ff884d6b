// Package cryptox implements salted password hashing with argon2id.
//
// Encoded hashes have the form "argon2id$<salt hex>$<key hex>" so the salt
// travels with the hash and no plaintext is ever stored.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	scheme  = "argon2id"
	saltLen = 16
)

// ErrMalformedHash is returned when a stored hash cannot be decoded.
var ErrMalformedHash = errors.New("malformed password hash")

func deriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// HashPassword returns the encoded argon2id hash of password with a fresh
// random salt.
func HashPassword(password string) string {
	salt := common.GenerateRandByteArray(saltLen)
	key := deriveKey([]byte(password), salt)
	return scheme + "$" + hex.EncodeToString(salt) + "$" + hex.EncodeToString(key)
}

// VerifyPassword reports whether password matches the encoded hash. The key
// comparison is constant time.
func VerifyPassword(encoded, password string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != scheme {
		return false, ErrMalformedHash
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil {
		return false, ErrMalformedHash
	}
	got := deriveKey([]byte(password), salt)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}
