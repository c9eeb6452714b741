// Package sessioncrypto provides the cryptographic primitives the
// handshake and request engine are built from: RSA-2048 keypair generation
// and segmented encryption, the AES-256-CBC channel cipher, and the shared
// request-padding quirk. crypto/rsa, crypto/aes, crypto/cipher, and
// crypto/hmac are themselves the idiomatic choice for these three
// primitives — no third-party library in the Go ecosystem better serves
// RSA PKCS#1 v1.5 or AES-CBC than the standard library does.
package sessioncrypto

import (
	"crypto/rand"
	"io"

	qerrors "github.com/tetherlink/tetherlink/internal/errors"
)

// SecureRandomBytes returns n cryptographically secure random bytes sourced
// from the OS CSPRNG.
func SecureRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, qerrors.NewHandshakeError("random", err)
	}
	return b, nil
}

// ConstantTimeCompare compares two byte slices in constant time, to avoid
// leaking a partial match through timing when comparing secrets or
// acknowledgements.
func ConstantTimeCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var result byte
	for i := range a {
		result |= a[i] ^ b[i]
	}
	return result == 0
}

// Zeroize overwrites b with zeros. Sensitive key material should be
// zeroized as soon as it is no longer needed (the first client keypair
// after step 2, the AES key/IV on Close).
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroizeMultiple zeroizes every slice given.
func ZeroizeMultiple(slices ...[]byte) {
	for _, s := range slices {
		Zeroize(s)
	}
}
