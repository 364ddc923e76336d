package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

func generateHex(bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashPassword derives a salted digest for storage alongside the salt.
func HashPassword(password string) (hash string, salt string, err error) {
	if password == "" {
		return "", "", fmt.Errorf("password must not be empty")
	}
	salt, err = generateHex(16)
	if err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	return digest(password, salt), salt, nil
}

// VerifyPassword checks a candidate password against a stored hash and salt.
func VerifyPassword(password, salt, hash string) bool {
	if password == "" || salt == "" || hash == "" {
		return false
	}
	candidate := digest(password, salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hash)) == 1
}

func digest(password, salt string) string {
	sum := sha256.Sum256([]byte(salt + ":" + password))
	return hex.EncodeToString(sum[:])
}
