package fingerprint

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Environment is the client-reported data a fingerprint is derived from.
type Environment struct {
	UserAgent        string
	Language         string
	ScreenResolution string
	// TimezoneOffset is the offset from UTC in minutes, as reported by the client.
	TimezoneOffset  int
	CanvasSignature string
}

// components returns the normalized inputs in hashing order.
// The order is part of the fingerprint format and must not change.
func (e Environment) components() []string {
	return []string{
		norm.NFC.String(strings.TrimSpace(e.UserAgent)),
		norm.NFC.String(strings.TrimSpace(e.Language)),
		strings.TrimSpace(e.ScreenResolution),
		strconv.Itoa(e.TimezoneOffset),
		e.CanvasSignature,
	}
}

// IsZero reports whether no environment data was collected.
func (e Environment) IsZero() bool {
	return e == Environment{}
}

// Generate returns the fingerprint for env as 8 lowercase hex characters.
// Equal environments always produce equal fingerprints.
func Generate(env Environment) string {
	return fmt.Sprintf("%08x", uint32(rollingHash(strings.Join(env.components(), "|"))))
}

// Validate reports whether env produces the stored fingerprint.
func Validate(env Environment, stored string) bool {
	return stored != "" && Generate(env) == stored
}

// rollingHash is h = h*31 + c over the UTF-16 code units of s, wrapped to int32.
func rollingHash(s string) int32 {
	var h int32
	for _, r := range s {
		if r >= 0x10000 {
			// encode as surrogate pair to match UTF-16 code unit hashing
			r -= 0x10000
			h = (h << 5) - h + int32(0xD800+(r>>10))
			h = (h << 5) - h + int32(0xDC00+(r&0x3FF))
			continue
		}
		h = (h << 5) - h + int32(r)
	}
	return h
}
