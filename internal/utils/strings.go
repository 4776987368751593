package utils

import (
	"crypto/rand"
	"strings"
)

// TrimOrEmpty normalizes user input without turning nil into "nil".
func TrimOrEmpty(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail lowercases and trims for comparison purposes.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

const refCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ReferenceCodeLen is the human-facing booking code length.
const ReferenceCodeLen = 8

// NewReferenceCode mints an 8-char [A-Z0-9] code using crypto/rand.
// Uniqueness tetap dijaga oleh unique key di tabel bookings.
func NewReferenceCode() string {
	buf := make([]byte, ReferenceCodeLen)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = refCodeAlphabet[int(b)%len(refCodeAlphabet)]
	}
	return string(buf)
}
