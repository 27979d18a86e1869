package domain

import (
	"crypto/rand"
	"strings"
)

// CodeAlphabet is the 32-symbol set join codes are drawn from: uppercase
// letters and digits with the visually ambiguous I, O, 0 and 1 removed.
// 32 symbols keeps the modulo reduction below bias-free.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the fixed length of a trip join code.
const CodeLength = 8

// NewJoinCode returns a fresh random join code. Randomness comes from
// crypto/rand; with 32^8 possible codes a collision against the trips
// table is handled by the caller's retry loop, not here.
func NewJoinCode() string {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails if the OS entropy source is broken,
		// at which point the process has bigger problems.
		panic("domain.NewJoinCode: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = CodeAlphabet[int(b)%len(CodeAlphabet)]
	}
	return string(buf)
}

// NormalizeJoinCode maps user-typed input to canonical code form:
// surrounding whitespace stripped, letters uppercased.
func NormalizeJoinCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidJoinCode reports whether s has the exact shape of a join code.
// Callers use it to reject malformed codes before any database lookup.
// s must already be normalized.
func ValidJoinCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(CodeAlphabet, rune(s[i])) {
			return false
		}
	}
	return true
}
