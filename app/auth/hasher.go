package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations matches the work factor Werkzeug uses for pbkdf2.
	DefaultIterations = 600000

	saltChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	saltLength = 16
)

// PasswordHasher produces and checks salted PBKDF2 digests in the
// "pbkdf2:<hash>:<iterations>$<salt>$<hex>" format, which is what Werkzeug
// writes, so existing password columns keep verifying.
type PasswordHasher struct {
	iterations int
}

// NewPasswordHasher returns a hasher using iterations rounds of
// PBKDF2-HMAC-SHA256. Values below 1 select DefaultIterations.
func NewPasswordHasher(iterations int) *PasswordHasher {
	if iterations < 1 {
		iterations = DefaultIterations
	}
	return &PasswordHasher{iterations: iterations}
}

// Hash returns a digest of password under a fresh random salt.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt, err := generateSalt(saltLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	sum := pbkdf2.Key([]byte(password), []byte(salt), h.iterations, sha256.Size, sha256.New)
	return fmt.Sprintf("pbkdf2:sha256:%d$%s$%s", h.iterations, salt, hex.EncodeToString(sum)), nil
}

// Verify reports whether password matches digest. Malformed digests never match.
func (h *PasswordHasher) Verify(digest, password string) bool {
	parts := strings.SplitN(digest, "$", 3)
	if len(parts) != 3 {
		return false
	}
	method, salt, expectedHex := parts[0], parts[1], parts[2]

	newHash, keyLen, iterations, ok := parseMethod(method)
	if !ok {
		return false
	}
	expected, err := hex.DecodeString(expectedHex)
	if err != nil || len(expected) != keyLen {
		return false
	}
	sum := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLen, newHash)
	return hmac.Equal(sum, expected)
}

func parseMethod(method string) (func() hash.Hash, int, int, bool) {
	fields := strings.Split(method, ":")
	if len(fields) < 2 || len(fields) > 3 || fields[0] != "pbkdf2" {
		return nil, 0, 0, false
	}

	iterations := DefaultIterations
	if len(fields) == 3 {
		n, err := strconv.Atoi(fields[2])
		if err != nil || n < 1 {
			return nil, 0, 0, false
		}
		iterations = n
	}

	switch fields[1] {
	case "sha256":
		return sha256.New, sha256.Size, iterations, true
	case "sha512":
		return sha512.New, sha512.Size, iterations, true
	}
	return nil, 0, 0, false
}

func generateSalt(n int) (string, error) {
	max := big.NewInt(int64(len(saltChars)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(saltChars[idx.Int64()])
	}
	return b.String(), nil
}
