package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// GenerateVerificationCode returns a zero-padded numeric code of the given
// length, e.g. "042913" for length 6.
func GenerateVerificationCode(length int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < length; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}

// GenerateSessionID produces an unguessable 256-bit session identifier by
// digesting the owning user id together with a uuid, the wall clock and 32
// bytes of secure randomness.
func GenerateSessionID(userID uint64) (string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", err
	}

	h := sha256.New()
	fmt.Fprintf(h, "%d_%s_%d_", userID, uuid.NewString(), time.Now().UnixNano())
	h.Write(secret)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// GenerateCSRFToken returns a 256-bit hex secret, independent of the
// session id it is stored with.
func GenerateCSRFToken() (string, error) {
	return randomHex(32)
}

// GenerateResetToken returns a 256-bit hex password-reset token.
func GenerateResetToken() (string, error) {
	return randomHex(32)
}

func randomHex(n int) (string, error) {
	secret := make([]byte, n)
	if _, err := rand.Read(secret); err != nil {
		return "", err
	}
	return hex.EncodeToString(secret), nil
}
