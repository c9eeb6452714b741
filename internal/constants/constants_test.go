package constants_test

import (
	"testing"

	"github.com/tetherlink/tetherlink/internal/constants"
)

func TestClientAuthSplitCoversPlaintextContiguously(t *testing.T) {
	splits := constants.ClientAuthSplit()
	want := 0
	for i, seg := range splits {
		if seg[0] != want {
			t.Fatalf("segment %d starts at %d, want %d", i, seg[0], want)
		}
		if seg[1] <= seg[0] {
			t.Fatalf("segment %d is empty or inverted: %v", i, seg)
		}
		if seg[1]-seg[0] > constants.RSASize {
			t.Fatalf("segment %d is %d bytes, larger than one RSA block (%d)", i, seg[1]-seg[0], constants.RSASize)
		}
		want = seg[1]
	}
	if want != constants.ClientAuthPlaintextLen {
		t.Fatalf("segments cover %d bytes, want %d", want, constants.ClientAuthPlaintextLen)
	}
}

func TestAuthSplitCoversOneRSABlock(t *testing.T) {
	splits := constants.AuthSplit()
	want := 0
	for i, seg := range splits {
		if seg[0] != want {
			t.Fatalf("segment %d starts at %d, want %d", i, seg[0], want)
		}
		want = seg[1]
	}
	if want != constants.RSASize {
		t.Fatalf("segments cover %d bytes, want %d", want, constants.RSASize)
	}
}

func TestServerKeySplitCoversPublicKeyDER(t *testing.T) {
	splits := constants.ServerKeySplit()
	want := 0
	for i, seg := range splits {
		if seg[0] != want {
			t.Fatalf("segment %d starts at %d, want %d", i, seg[0], want)
		}
		want = seg[1]
	}
	if want != constants.RSAPublicKeyDERLen {
		t.Fatalf("segments cover %d bytes, want %d", want, constants.RSAPublicKeyDERLen)
	}
}

func TestClientAuthPlaintextLenMatchesDERPlusSignature(t *testing.T) {
	if constants.ClientAuthPlaintextLen != constants.RSAPublicKeyDERLen+constants.RSASize {
		t.Fatalf("ClientAuthPlaintextLen = %d, want DER(%d) + signature(%d) = %d",
			constants.ClientAuthPlaintextLen, constants.RSAPublicKeyDERLen, constants.RSASize,
			constants.RSAPublicKeyDERLen+constants.RSASize)
	}
}

func TestSessionMaterialPlaintextLenMatchesComponentSizes(t *testing.T) {
	want := constants.SessionIDSize + constants.AESBlockSize + constants.AESKeySize
	if constants.SessionMaterialPlaintextLen != want {
		t.Fatalf("SessionMaterialPlaintextLen = %d, want %d", constants.SessionMaterialPlaintextLen, want)
	}
}

func TestMessageSizesAreWholeRSABlocks(t *testing.T) {
	sizes := map[string]int{
		"ServerKeyMessageSize":       constants.ServerKeyMessageSize,
		"ClientAuthMessageSize":      constants.ClientAuthMessageSize,
		"AckMessageSize":             constants.AckMessageSize,
		"AuthMessageSize":            constants.AuthMessageSize,
		"SessionMaterialMessageSize": constants.SessionMaterialMessageSize,
	}
	for name, size := range sizes {
		if size%constants.RSASize != 0 {
			t.Fatalf("%s = %d is not a whole multiple of RSASize (%d)", name, size, constants.RSASize)
		}
	}
}

func TestAckOkayFitsAckPlaintextLen(t *testing.T) {
	if len(constants.AckOkay) > constants.AckPlaintextLen {
		t.Fatalf("AckOkay is %d bytes, longer than AckPlaintextLen (%d)", len(constants.AckOkay), constants.AckPlaintextLen)
	}
	if constants.AckPlaintextLen > constants.RSASize {
		t.Fatalf("AckPlaintextLen (%d) exceeds one RSA block (%d)", constants.AckPlaintextLen, constants.RSASize)
	}
}

func TestPreSharedSecretLength(t *testing.T) {
	if len(constants.PreSharedSecret) != 32 {
		t.Fatalf("PreSharedSecret is %d bytes, want 32", len(constants.PreSharedSecret))
	}
}

func TestStatusCodesAreDistinct(t *testing.T) {
	codes := []byte{
		constants.StatusOkay,
		constants.StatusError,
		constants.StatusExpired,
		constants.StatusHashError,
		constants.StatusBadRequest,
		constants.StatusInvalidSession,
	}
	seen := make(map[byte]bool, len(codes))
	for _, c := range codes {
		if seen[c] {
			t.Fatalf("status code %#x reused", c)
		}
		seen[c] = true
	}
}
