// Package constants defines the wire and cryptographic parameters shared by
// every layer of the tetherlink client: transport timing, RSA/AES/HMAC
// sizes, the handshake's fixed segment splits, and the command/response
// status and command codes.
package constants

import "time"

// Transport parameters (§6).
const (
	// BaudRate is the fixed serial line rate the transport opens at.
	BaudRate = 115200

	// DefaultReadTimeout bounds how long a single Read may block before the
	// transport considers the link dead.
	DefaultReadTimeout = time.Second
)

// RSA parameters (§3, §4.2).
const (
	// RSAKeyBits is the modulus size of every generated client keypair.
	RSAKeyBits = 2048

	// RSAPublicExponent is the fixed public exponent used for key generation.
	RSAPublicExponent = 65537

	// RSASize is the byte length of one RSA-2048 block — every ciphertext
	// segment produced or consumed by the handshake is exactly this long.
	RSASize = 256

	// RSAPublicKeyDERLen is the exact length of a PKCS#1 RSAPublicKey DER
	// encoding (bare modulus/exponent SEQUENCE, not the PKIX
	// SubjectPublicKeyInfo wrapper) for a 2048-bit/65537 key: a 257-byte
	// zero-extended modulus INTEGER plus a 5-byte exponent INTEGER, each
	// with ASN.1 headers, sealed in an outer SEQUENCE header — 270 bytes
	// total. This is the raw blob both the client's ephemeral key (step 1)
	// and the server's key (step 2) are sent as.
	RSAPublicKeyDERLen = 270
)

// Symmetric channel parameters (§3).
const (
	// AESKeySize is the length of the AES-256 key delivered in step 5.
	AESKeySize = 32

	// AESBlockSize is also the CBC IV length.
	AESBlockSize = 16

	// SessionIDSize is the length of the opaque session token.
	SessionIDSize = 8
)

// HMACDigestSize is the SHA-256 digest size used by the framing layer's
// keyed accumulator.
const HMACDigestSize = 32

// PreSharedSecret is the only long-term trust anchor shared by both peers
// out of band. It is 32 ASCII bytes.
const PreSharedSecret = "Fj2-;wu3Ur=ARl2!Tqi6IuKM3nG]8z1+"

// Handshake message sizes on the wire (§6), pre-frame (i.e. before the
// trailing 32-byte digest framing adds).
const (
	// ServerKeyMessageSize is step 2: two concatenated 256-byte RSA
	// ciphertexts carrying the server's DER public key.
	ServerKeyMessageSize = 2 * RSASize

	// ClientAuthMessageSize is step 3: three concatenated 256-byte RSA
	// ciphertexts carrying the client's DER public key and PSK signature.
	ClientAuthMessageSize = 3 * RSASize

	// AckMessageSize is step 4: one 256-byte RSA ciphertext.
	AckMessageSize = RSASize

	// AuthMessageSize is step 5 (client→server): two concatenated 256-byte
	// RSA ciphertexts carrying the PSK signature.
	AuthMessageSize = 2 * RSASize

	// SessionMaterialMessageSize is step 5 (server→client): one 256-byte
	// RSA ciphertext carrying SessionID || IV || AES key.
	SessionMaterialMessageSize = RSASize

	// ClientAuthPlaintextLen is DER(270) + signature(256) before the
	// three-way segment split.
	ClientAuthPlaintextLen = 550

	// SessionMaterialPlaintextLen is SessionID(8) + IV(16) + AES key(32).
	SessionMaterialPlaintextLen = SessionIDSize + AESBlockSize + AESKeySize
)

// clientAuthSplit is the fixed three-way split of the 550-byte step-3
// payload into segments that each fit one RSA-2048 plaintext block. This is
// a wire constant, not a computed value: per the handshake's design note, a
// differently-sized RSA public key DER must not cause this split to be
// silently resized — that is an incompatibility to escalate, not "fix".
var clientAuthSplit = [3][2]int{
	{0, 184},
	{184, 368},
	{368, 550},
}

// ClientAuthSplit returns the fixed three-way byte-range split used to
// segment the step-3 client authentication payload.
func ClientAuthSplit() [3][2]int { return clientAuthSplit }

// authSplit is the fixed two-way split of the 256-byte step-5 signature.
var authSplit = [2][2]int{
	{0, 128},
	{128, 256},
}

// AuthSplit returns the fixed two-way byte-range split used to segment the
// step-5 PSK signature.
func AuthSplit() [2][2]int { return authSplit }

// serverKeySplit is the fixed two-way split of the 270-byte server DER
// public key across step 2's two RSA-2048 ciphertext blocks.
var serverKeySplit = [2][2]int{
	{0, 135},
	{135, 270},
}

// ServerKeySplit returns the fixed two-way byte-range split used to segment
// the step-2 server public key payload.
func ServerKeySplit() [2][2]int { return serverKeySplit }

// AckOkay is the literal acknowledgement the server sends in step 4.
const AckOkay = "SESSION_OKAY"

// AckPlaintextLen is the size of the single-block plaintext carrying
// AckOkay, zero-padded out to one RSA-2048 PKCS#1v1.5 payload.
const AckPlaintextLen = 64

// Command codes (§4.3). The request engine does not enforce this set — any
// byte is transmissible — these are merely the two well-known commands.
const (
	CmdToggleIndicator byte = 0x02
	CmdReadTemperature byte = 0x03
)

// Response status codes (§4.3).
const (
	StatusOkay           byte = 0x00
	StatusError          byte = 0x01
	StatusExpired        byte = 0x02
	StatusHashError      byte = 0x03
	StatusBadRequest     byte = 0x04
	StatusInvalidSession byte = 0x05
)
