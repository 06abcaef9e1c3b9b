package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// ShortenString cuts s after l runes and marks the cut with "...". A length
// of 0 leaves s untouched.
func ShortenString(s string, l int) string {
	if l <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == l {
			return fmt.Sprintf("%s...", s[:i])
		}
		n++
	}
	return s
}

// RandomString appends a dash and 16 random hex characters to base.
func RandomString(base string) (string, error) {
	return randomString(rand.Reader, base)
}

func randomString(r io.Reader, base string) (string, error) {
	b := make([]byte, 8)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("error while reading random bytes: %w", err)
	}
	return fmt.Sprintf("%s-%s", base, hex.EncodeToString(b)), nil
}
