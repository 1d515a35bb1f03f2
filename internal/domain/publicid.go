package domain

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// PublicIDAlphabet holds the 32 symbols a public order code may use:
// uppercase letters and digits with 0, O, 1 and I removed so codes
// survive being read aloud or copied from a printed receipt.
const PublicIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// PublicIDLength gives 32^8 possible codes, enough that collisions
// are re-rolled rather than designed around.
const PublicIDLength = 8

// NewPublicID draws a random 8-character code from the alphabet.
func NewPublicID() (string, error) {
	buf := make([]byte, PublicIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate public id: %w", err)
	}
	for i, b := range buf {
		buf[i] = PublicIDAlphabet[int(b)%len(PublicIDAlphabet)]
	}
	return string(buf), nil
}

// NormalizePublicID folds a customer-supplied code to the stored
// uppercase form. Lookups are case-insensitive.
func NormalizePublicID(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
