// Package hex wraps the standard hexadecimal encoder with the short names
// used throughout the codebase.
package hex

import (
	"encoding/hex"
)

// Enc encodes a byte slice as a hexadecimal string.
func Enc(b []byte) string { return hex.EncodeToString(b) }

// Dec decodes a hexadecimal string to raw bytes.
func Dec(s string) (b []byte, err error) { return hex.DecodeString(s) }

// Valid reports whether s is well formed hexadecimal.
func Valid(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}
