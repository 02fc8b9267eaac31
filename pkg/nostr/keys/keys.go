// Package keys generates and derives the simulated keypairs used by the
// mock relay substrate.
//
// Keys here are not real secp256k1 material. The public key is a
// deterministic hash of the secret key so that signing is reproducible and
// cheap, while every length and format invariant of real nostr keys holds,
// so validation code paths downstream are exercised faithfully.
package keys

import (
	"strings"

	"github.com/gitnostr/simulatr/pkg/hex"
	"github.com/minio/sha256-simd"
	"lukechampine.com/frand"
)

// GeneratePrivateKey returns a random 32 byte secret key in hexadecimal.
func GeneratePrivateKey() string {
	return hex.Enc(frand.Bytes(32))
}

// GetPublicKey derives the 64 character public key for a secret key.
func GetPublicKey(sk string) (string, error) {
	b, err := hex.Dec(sk)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(b)
	return hex.Enc(h[:]), nil
}

// IsValid32ByteHex reports whether pk is a lower case 64 character
// hexadecimal string.
func IsValid32ByteHex(pk string) bool {
	if strings.ToLower(pk) != pk {
		return false
	}
	dec, _ := hex.Dec(pk)
	return len(dec) == 32
}
