// Package handshake implements the five-step client-side authentication
// state machine (§4.2): RSA key exchange bootstraps mutual trust in the
// pre-shared secret, and the server delivers a fresh AES-256-CBC channel
// plus session identifier at the end of it.
//
// Only the client side is implemented — the server runs a symmetric but
// distinct set of steps that is this package's peer, not its twin.
package handshake

import (
	"bytes"
	"context"
	"crypto/rsa"

	"github.com/tetherlink/tetherlink/internal/constants"
	qerrors "github.com/tetherlink/tetherlink/internal/errors"
	"github.com/tetherlink/tetherlink/pkg/framing"
	"github.com/tetherlink/tetherlink/pkg/sessioncrypto"
	"github.com/tetherlink/tetherlink/pkg/telemetry"
)

// State names a position in the handshake state machine.
type State int

const (
	StateIdle State = iota
	StateAwaitingServerKey
	StateAwaitingServerAck
	StateAwaitingSessionMaterial
	StateEstablished
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAwaitingServerKey:
		return "AwaitingServerKey"
	case StateAwaitingServerAck:
		return "AwaitingServerAck"
	case StateAwaitingSessionMaterial:
		return "AwaitingSessionMaterial"
	case StateEstablished:
		return "Established"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Result carries everything the session needs once the handshake
// completes: the opaque session token and the ready-to-use channel cipher.
type Result struct {
	SessionID [constants.SessionIDSize]byte
	Cipher    *sessioncrypto.ChannelCipher
}

// Run drives the full five-step client handshake over fr. On success it
// returns a Result with the state machine having passed through Established;
// on any failure it returns a *errors.HandshakeError (or an error from the
// framing layer, already fatal by construction) and the caller must treat
// the session as Failed — Run does not retry internally. The whole call is
// wrapped in a SpanHandshake span, with one SpanHandshakeStep child span per
// numbered step so a tracing backend can show where a failed handshake
// actually stopped.
func Run(ctx context.Context, fr *framing.Framer) (*Result, error) {
	ctx, endHandshake := telemetry.StartSpan(ctx, telemetry.SpanHandshake)
	var err error
	defer func() { endHandshake(err) }()

	var priv1, priv2 *rsa.PrivateKey
	var serverPub *rsa.PublicKey
	var result Result

	// --- Step 1: offer the transient public key ---
	err = traceStep(ctx, 1, func() error {
		var genErr error
		priv1, genErr = sessioncrypto.GenerateClientKeypair()
		if genErr != nil {
			return qerrors.NewHandshakeError("client-keypair-1", genErr)
		}
		der1 := sessioncrypto.EncodePublicKeyDER(&priv1.PublicKey)
		if len(der1) != constants.RSAPublicKeyDERLen {
			return qerrors.NewHandshakeError("client-keypair-1", errUnexpectedDERLen)
		}
		if sendErr := fr.Send(der1); sendErr != nil {
			return qerrors.NewHandshakeError("send-client-key", sendErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// --- Step 2: receive the server's public key ---
	err = traceStep(ctx, 2, func() error {
		serverKeyMsg, recvErr := fr.Recv(constants.ServerKeyMessageSize)
		if recvErr != nil {
			return qerrors.NewHandshakeError("recv-server-key", recvErr)
		}
		serverDER, decErr := sessioncrypto.DecryptSegmented(priv1, serverKeyMsg)
		if decErr != nil {
			return qerrors.NewHandshakeError("decrypt-server-key", decErr)
		}
		var pubErr error
		serverPub, pubErr = sessioncrypto.ParsePublicKeyDER(serverDER)
		if pubErr != nil {
			return qerrors.NewHandshakeError("parse-server-key", pubErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// --- Step 3: rotate the keypair and authenticate ---
	err = traceStep(ctx, 3, func() error {
		// ClientKeypair₁ is destroyed before ClientKeypair₂ is ever used or
		// sent anywhere (§3 invariant). rsa.PrivateKey has no single byte
		// buffer to overwrite; dropping the only reference is what this
		// language affords here — the teacher's own Zeroize notes the same
		// limitation for runtime-managed values.
		priv1 = nil

		var genErr error
		priv2, genErr = sessioncrypto.GenerateClientKeypair()
		if genErr != nil {
			return qerrors.NewHandshakeError("client-keypair-2", genErr)
		}
		der2 := sessioncrypto.EncodePublicKeyDER(&priv2.PublicKey)
		if len(der2) != constants.RSAPublicKeyDERLen {
			return qerrors.NewHandshakeError("client-keypair-2", errUnexpectedDERLen)
		}
		sig1, signErr := sessioncrypto.SignPreSharedSecret(priv2)
		if signErr != nil {
			return qerrors.NewHandshakeError("sign-step3", signErr)
		}

		clientAuthPayload := make([]byte, constants.ClientAuthPlaintextLen)
		copy(clientAuthPayload, der2)
		copy(clientAuthPayload[constants.RSAPublicKeyDERLen:], sig1)
		// Remaining tail bytes stay zero: the fixed 550-byte buffer is 24
		// bytes wider than DER(270)+signature(256)=526, a slack the source's
		// round three-way split (184|184|182) leaves unused on the wire.

		clientAuthSplits := constants.ClientAuthSplit()
		clientAuthSegments := make([][2]int, len(clientAuthSplits))
		for i, s := range clientAuthSplits {
			clientAuthSegments[i] = s
		}
		clientAuthCiphertext, encErr := sessioncrypto.EncryptSegmented(serverPub, clientAuthPayload, clientAuthSegments)
		if encErr != nil {
			return qerrors.NewHandshakeError("encrypt-client-auth", encErr)
		}
		if sendErr := fr.Send(clientAuthCiphertext); sendErr != nil {
			return qerrors.NewHandshakeError("send-client-auth", sendErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// --- Step 4: receive the acknowledgement ---
	err = traceStep(ctx, 4, func() error {
		ackMsg, recvErr := fr.Recv(constants.AckMessageSize)
		if recvErr != nil {
			return qerrors.NewHandshakeError("recv-ack", recvErr)
		}
		ackPlaintext, decErr := sessioncrypto.DecryptSegmented(priv2, ackMsg)
		if decErr != nil {
			return qerrors.NewHandshakeError("decrypt-ack", decErr)
		}
		if !ackIsOkay(ackPlaintext) {
			return qerrors.NewHandshakeError("ack", errAckMismatch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// --- Step 5: authenticate again and receive the channel material ---
	err = traceStep(ctx, 5, func() error {
		sig2, signErr := sessioncrypto.SignPreSharedSecret(priv2)
		if signErr != nil {
			return qerrors.NewHandshakeError("sign-step5", signErr)
		}
		authSplits := constants.AuthSplit()
		authSegments := make([][2]int, len(authSplits))
		for i, s := range authSplits {
			authSegments[i] = s
		}
		authCiphertext, encErr := sessioncrypto.EncryptSegmented(serverPub, sig2, authSegments)
		if encErr != nil {
			return qerrors.NewHandshakeError("encrypt-auth", encErr)
		}
		if sendErr := fr.Send(authCiphertext); sendErr != nil {
			return qerrors.NewHandshakeError("send-auth", sendErr)
		}

		materialMsg, recvErr := fr.Recv(constants.SessionMaterialMessageSize)
		if recvErr != nil {
			return qerrors.NewHandshakeError("recv-session-material", recvErr)
		}
		materialPlaintext, decErr := sessioncrypto.DecryptSegmented(priv2, materialMsg)
		if decErr != nil {
			return qerrors.NewHandshakeError("decrypt-session-material", decErr)
		}
		if len(materialPlaintext) != constants.SessionMaterialPlaintextLen {
			return qerrors.NewHandshakeError("session-material", errUnexpectedMaterialLen)
		}

		copy(result.SessionID[:], materialPlaintext[0:constants.SessionIDSize])
		iv := materialPlaintext[constants.SessionIDSize : constants.SessionIDSize+constants.AESBlockSize]
		key := materialPlaintext[constants.SessionIDSize+constants.AESBlockSize:]

		cipher, cipherErr := sessioncrypto.NewChannelCipher(key, iv)
		if cipherErr != nil {
			return qerrors.NewHandshakeError("channel-cipher", cipherErr)
		}
		result.Cipher = cipher
		return nil
	})
	if err != nil {
		return nil, err
	}

	priv2 = nil
	return &result, nil
}

// traceStep runs fn inside its own SpanHandshakeStep child span tagged with
// step, propagating fn's error to both the span and the caller.
func traceStep(ctx context.Context, step int, fn func() error) error {
	_, end := telemetry.StartSpan(ctx, telemetry.SpanHandshakeStep, telemetry.WithAttributes(map[string]interface{}{"step": step}))
	err := fn()
	end(err)
	return err
}

// ackIsOkay reports whether plaintext, trimmed at its first NUL byte,
// equals the literal acknowledgement string (§4.2 step 4).
func ackIsOkay(plaintext []byte) bool {
	if i := bytes.IndexByte(plaintext, 0); i >= 0 {
		plaintext = plaintext[:i]
	}
	return sessioncrypto.ConstantTimeCompare(plaintext, []byte(constants.AckOkay))
}

var (
	errUnexpectedDERLen      = handshakeErr("handshake: RSA public key DER length does not match the fixed wire split")
	errAckMismatch           = handshakeErr("handshake: acknowledgement was not SESSION_OKAY")
	errUnexpectedMaterialLen = handshakeErr("handshake: session material plaintext had unexpected length")
)

type handshakeErr string

func (e handshakeErr) Error() string { return string(e) }
