package sessioncrypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"errors"

	"github.com/tetherlink/tetherlink/internal/constants"
	qerrors "github.com/tetherlink/tetherlink/internal/errors"
)

var (
	errUnexpectedExponent      = errors.New("sessioncrypto: unexpected RSA public exponent")
	errSegmentOutOfRange       = errors.New("sessioncrypto: segment range exceeds plaintext length")
	errUnexpectedCiphertextLen = errors.New("sessioncrypto: unexpected ciphertext length")
)

// GenerateClientKeypair generates a fresh 2048-bit RSA keypair with public
// exponent 65537 (Go's crypto/rsa always uses 65537; RSAPublicExponent is
// asserted only to document the requirement, §3).
func GenerateClientKeypair() (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, constants.RSAKeyBits)
	if err != nil {
		return nil, qerrors.NewHandshakeError("keygen", err)
	}
	if key.PublicKey.E != constants.RSAPublicExponent {
		return nil, qerrors.NewHandshakeError("keygen", errUnexpectedExponent)
	}
	return key, nil
}

// EncodePublicKeyDER marshals pub to its PKCS#1 RSAPublicKey DER encoding —
// the bare modulus/exponent SEQUENCE, not the PKIX SubjectPublicKeyInfo
// wrapper — since that bare form is exactly RSAPublicKeyDERLen (270) bytes
// for a 2048-bit/65537 key, matching the fixed wire split the handshake
// assumes (§4.2, §9 Design Note b). This is the form sent raw in step 1 and
// reconstructed from in step 2.
func EncodePublicKeyDER(pub *rsa.PublicKey) []byte {
	return x509.MarshalPKCS1PublicKey(pub)
}

// ParsePublicKeyDER reconstructs an RSA public key from a PKCS#1
// RSAPublicKey DER blob.
func ParsePublicKeyDER(der []byte) (*rsa.PublicKey, error) {
	pub, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return nil, qerrors.NewHandshakeError("parse-key", err)
	}
	return pub, nil
}

// EncryptSegmented splits plaintext across the given byte-range segments
// and RSA-encrypts each under pub, returning the concatenated ciphertexts
// (one RSASize-byte block per segment). The segment ranges are a wire
// constant (internal/constants.ClientAuthSplit / AuthSplit) and are never
// resized to fit — a plaintext that doesn't match the expected length is a
// handshake-level incompatibility to surface, not silently repair.
func EncryptSegmented(pub *rsa.PublicKey, plaintext []byte, segments [][2]int) ([]byte, error) {
	out := make([]byte, 0, len(segments)*constants.RSASize)
	for _, seg := range segments {
		if seg[1] > len(plaintext) {
			return nil, qerrors.NewHandshakeError("encrypt-segment", errSegmentOutOfRange)
		}
		ct, err := rsa.EncryptPKCS1v15(rand.Reader, pub, plaintext[seg[0]:seg[1]])
		if err != nil {
			return nil, qerrors.NewHandshakeError("encrypt-segment", err)
		}
		if len(ct) != constants.RSASize {
			return nil, qerrors.NewHandshakeError("encrypt-segment", errUnexpectedCiphertextLen)
		}
		out = append(out, ct...)
	}
	return out, nil
}

// DecryptSegmented splits ciphertext into RSASize-byte blocks, decrypts
// each under priv, and concatenates the recovered plaintexts in order.
func DecryptSegmented(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%constants.RSASize != 0 {
		return nil, qerrors.NewHandshakeError("decrypt-segment", errUnexpectedCiphertextLen)
	}
	var out []byte
	for off := 0; off < len(ciphertext); off += constants.RSASize {
		block := ciphertext[off : off+constants.RSASize]
		pt, err := rsa.DecryptPKCS1v15(rand.Reader, priv, block)
		if err != nil {
			return nil, qerrors.NewHandshakeError("decrypt-segment", err)
		}
		out = append(out, pt...)
	}
	return out, nil
}

// SignPreSharedSecret signs SHA-256(PreSharedSecret) with priv, the
// authentication step every client performs twice (steps 3 and 5).
func SignPreSharedSecret(priv *rsa.PrivateKey) ([]byte, error) {
	digest := sha256.Sum256([]byte(constants.PreSharedSecret))
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	if err != nil {
		return nil, qerrors.NewHandshakeError("sign", err)
	}
	return sig, nil
}
