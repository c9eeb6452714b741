package sessioncrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"sync"

	"github.com/tetherlink/tetherlink/internal/constants"
	qerrors "github.com/tetherlink/tetherlink/internal/errors"
)

// ChannelCipher is the AES-256-CBC state delivered by the server in step 5
// and used for every request/response thereafter. Like the teacher's AEAD
// wrapper, it is a single stateful object guarded by a mutex: CBC's
// chaining IV advances block-by-block exactly like a nonce counter would,
// so calls must be serialized in the order their ciphertext crosses the
// wire (the session owns and serializes this — see pkg/session).
type ChannelCipher struct {
	mu        sync.Mutex
	block     cipher.Block
	encryptIV []byte
	decryptIV []byte
}

// NewChannelCipher builds the channel cipher from the 32-byte AES key and
// 16-byte IV delivered in step 5. Both the send and receive directions
// start from the same IV and then diverge as each direction's CBC chain
// advances independently, matching how the server mirrors this state.
func NewChannelCipher(key, iv []byte) (*ChannelCipher, error) {
	if len(key) != constants.AESKeySize {
		return nil, qerrors.NewHandshakeError("channel-cipher", errBadKeySize)
	}
	if len(iv) != constants.AESBlockSize {
		return nil, qerrors.NewHandshakeError("channel-cipher", errBadIVSize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, qerrors.NewHandshakeError("channel-cipher", err)
	}
	encryptIV := append([]byte(nil), iv...)
	decryptIV := append([]byte(nil), iv...)
	return &ChannelCipher{block: block, encryptIV: encryptIV, decryptIV: decryptIV}, nil
}

// Encrypt CBC-encrypts plaintext, which must be a whole number of AES
// blocks, advancing the send-direction IV to the tail of the produced
// ciphertext.
func (c *ChannelCipher) Encrypt(plaintext []byte) ([]byte, error) {
	if len(plaintext)%aes.BlockSize != 0 {
		return nil, qerrors.NewHandshakeError("channel-encrypt", errNotBlockAligned)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ciphertext := make([]byte, len(plaintext))
	mode := cipher.NewCBCEncrypter(c.block, c.encryptIV)
	mode.CryptBlocks(ciphertext, plaintext)
	c.encryptIV = append([]byte(nil), ciphertext[len(ciphertext)-aes.BlockSize:]...)
	return ciphertext, nil
}

// Decrypt CBC-decrypts ciphertext, advancing the receive-direction IV to
// the tail of the consumed ciphertext.
func (c *ChannelCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, qerrors.NewHandshakeError("channel-decrypt", errNotBlockAligned)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	plaintext := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(c.block, c.decryptIV)
	mode.CryptBlocks(plaintext, ciphertext)
	c.decryptIV = append([]byte(nil), ciphertext[len(ciphertext)-aes.BlockSize:]...)
	return plaintext, nil
}

// Zeroize wipes the key schedule's IV state. The aes.Block's internal
// round-key schedule is not reachable for zeroizing from outside the
// standard library; dropping the ChannelCipher value lets the GC reclaim
// it.
func (c *ChannelCipher) Zeroize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	Zeroize(c.encryptIV)
	Zeroize(c.decryptIV)
}

var (
	errBadKeySize      = keySizeError("sessioncrypto: AES key must be 32 bytes")
	errBadIVSize       = keySizeError("sessioncrypto: AES IV must be 16 bytes")
	errNotBlockAligned = keySizeError("sessioncrypto: plaintext/ciphertext must be a multiple of the AES block size")
)

type keySizeError string

func (e keySizeError) Error() string { return string(e) }

// PadRequestPlaintext pads b to a multiple of the AES block size using the
// wire's shared padding quirk: each pad byte carries the value of the
// *pre-pad* length of b, not the pad length itself (unlike standard
// PKCS#7). This must be reproduced exactly byte-for-byte to stay
// wire-compatible with the peer.
func PadRequestPlaintext(b []byte) []byte {
	padLen := aes.BlockSize - (len(b) % aes.BlockSize)
	if padLen == 0 {
		padLen = aes.BlockSize
	}
	padByte := byte(len(b))
	out := make([]byte, len(b), len(b)+padLen)
	copy(out, b)
	for i := 0; i < padLen; i++ {
		out = append(out, padByte)
	}
	return out
}
