package sessioncrypto_test

import (
	"bytes"
	"testing"

	"github.com/tetherlink/tetherlink/internal/constants"
	"github.com/tetherlink/tetherlink/pkg/sessioncrypto"
)

func TestRSAKeypairDEREncodeDecodeRoundTrip(t *testing.T) {
	key, err := sessioncrypto.GenerateClientKeypair()
	if err != nil {
		t.Fatalf("GenerateClientKeypair: %v", err)
	}

	der := sessioncrypto.EncodePublicKeyDER(&key.PublicKey)
	if len(der) != constants.RSAPublicKeyDERLen {
		t.Fatalf("got DER len %d, want %d", len(der), constants.RSAPublicKeyDERLen)
	}

	pub, err := sessioncrypto.ParsePublicKeyDER(der)
	if err != nil {
		t.Fatalf("ParsePublicKeyDER: %v", err)
	}
	if pub.N.Cmp(key.PublicKey.N) != 0 {
		t.Fatalf("decoded modulus does not match original")
	}
}

func TestEncryptSegmentedDecryptSegmentedRoundTrip(t *testing.T) {
	key, err := sessioncrypto.GenerateClientKeypair()
	if err != nil {
		t.Fatalf("GenerateClientKeypair: %v", err)
	}

	plaintext := make([]byte, constants.ClientAuthPlaintextLen)
	for i := range plaintext {
		plaintext[i] = byte(i)
	}

	splits := constants.ClientAuthSplit()
	segments := make([][2]int, len(splits))
	for i, s := range splits {
		segments[i] = s
	}

	ciphertext, err := sessioncrypto.EncryptSegmented(&key.PublicKey, plaintext, segments)
	if err != nil {
		t.Fatalf("EncryptSegmented: %v", err)
	}
	if len(ciphertext) != constants.ClientAuthMessageSize {
		t.Fatalf("got ciphertext len %d, want %d", len(ciphertext), constants.ClientAuthMessageSize)
	}

	recovered, err := sessioncrypto.DecryptSegmented(key, ciphertext)
	if err != nil {
		t.Fatalf("DecryptSegmented: %v", err)
	}
	if !bytes.Equal(recovered, plaintext) {
		t.Fatalf("round-trip mismatch")
	}
}

func TestSignPreSharedSecretVerifiable(t *testing.T) {
	key, err := sessioncrypto.GenerateClientKeypair()
	if err != nil {
		t.Fatalf("GenerateClientKeypair: %v", err)
	}
	sig, err := sessioncrypto.SignPreSharedSecret(key)
	if err != nil {
		t.Fatalf("SignPreSharedSecret: %v", err)
	}
	if len(sig) != constants.RSASize {
		t.Fatalf("got signature len %d, want %d", len(sig), constants.RSASize)
	}
}

func TestChannelCipherRoundTrip(t *testing.T) {
	key, err := sessioncrypto.SecureRandomBytes(constants.AESKeySize)
	if err != nil {
		t.Fatalf("SecureRandomBytes(key): %v", err)
	}
	iv, err := sessioncrypto.SecureRandomBytes(constants.AESBlockSize)
	if err != nil {
		t.Fatalf("SecureRandomBytes(iv): %v", err)
	}

	sender, err := sessioncrypto.NewChannelCipher(key, iv)
	if err != nil {
		t.Fatalf("NewChannelCipher(sender): %v", err)
	}
	receiver, err := sessioncrypto.NewChannelCipher(key, iv)
	if err != nil {
		t.Fatalf("NewChannelCipher(receiver): %v", err)
	}

	for i, plaintext := range [][]byte{
		bytes.Repeat([]byte{0xAA}, 16),
		bytes.Repeat([]byte{0x01}, 16),
		bytes.Repeat([]byte{0xFF}, 32),
	} {
		ciphertext, err := sender.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt[%d]: %v", i, err)
		}
		got, err := receiver.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("Decrypt[%d]: %v", i, err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("round-trip[%d] mismatch: got %x, want %x", i, got, plaintext)
		}
	}
}

func TestChannelCipherRejectsUnalignedInput(t *testing.T) {
	key, _ := sessioncrypto.SecureRandomBytes(constants.AESKeySize)
	iv, _ := sessioncrypto.SecureRandomBytes(constants.AESBlockSize)
	c, err := sessioncrypto.NewChannelCipher(key, iv)
	if err != nil {
		t.Fatalf("NewChannelCipher: %v", err)
	}
	if _, err := c.Encrypt([]byte("not sixteen")); err == nil {
		t.Fatalf("expected error for non-block-aligned plaintext")
	}
}

func TestPadRequestPlaintextUsesPrePadLengthAsPadByte(t *testing.T) {
	// command(1) + sessionID(8) = 9 bytes pre-pad, per spec the pad byte is
	// 9, not the pad length (7).
	body := make([]byte, 9)
	padded := sessioncrypto.PadRequestPlaintext(body)

	if len(padded) != 16 {
		t.Fatalf("got padded len %d, want 16", len(padded))
	}
	for i := 9; i < 16; i++ {
		if padded[i] != 9 {
			t.Fatalf("pad byte[%d] = %d, want 9 (the pre-pad length)", i, padded[i])
		}
	}
}

func TestConstantTimeCompare(t *testing.T) {
	a := []byte("session-okay")
	b := []byte("session-okay")
	c := []byte("session-fail")

	if !sessioncrypto.ConstantTimeCompare(a, b) {
		t.Fatalf("expected equal slices to compare equal")
	}
	if sessioncrypto.ConstantTimeCompare(a, c) {
		t.Fatalf("expected different slices to compare unequal")
	}
	if sessioncrypto.ConstantTimeCompare(a, []byte("short")) {
		t.Fatalf("expected different-length slices to compare unequal")
	}
}
