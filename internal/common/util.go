package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// MakeRandHexString returns size random bytes encoded as hex, so the result is
// twice as long as size. It backs the ephemeral signing secret and the dummy
// password used for timing-safe logins.
func MakeRandHexString(size int) (string, error) {
	if size < 0 {
		return "", fmt.Errorf("%w: negative size %d", ErrorValidation, size)
	}
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray zeroes b in place. Used for passwords read from a terminal.
func WipeByteArray(b []byte) {
	clear(b)
}
