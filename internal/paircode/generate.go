// Package paircode generates pairing code values and owns their storage contract.
package paircode

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Alphabet is the code alphabet: uppercase alphanumeric with the confusable
// glyphs I, O, 0, 1 removed. 32 symbols, so a 6-character code has a ~10^9
// value space.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// DefaultLength is the default number of characters in a code.
const DefaultLength = 6

// Generate returns a random code of the given length drawn from Alphabet
// using crypto/rand. length must be positive.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("paircode: length must be positive, got %d", length)
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := make([]byte, length)
	for i := range b {
		// 256 is a multiple of the 32-symbol alphabet, so the modulo is unbiased.
		s[i] = Alphabet[b[i]%byte(len(Alphabet))]
	}
	return string(s), nil
}

// Normalize uppercases a client-typed code so redemption is case-insensitive.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
