// Package testpeer is a minimal hand-built server counterpart to the
// client handshake and command protocol, used only by this module's own
// loopback tests over net.Pipe(). It is not a reference server
// implementation — it exists because the handshake is asymmetric and
// nothing else in this module plays the server role.
package testpeer

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"strconv"

	"github.com/tetherlink/tetherlink/internal/constants"
	qerrors "github.com/tetherlink/tetherlink/internal/errors"
	"github.com/tetherlink/tetherlink/pkg/framing"
	"github.com/tetherlink/tetherlink/pkg/sessioncrypto"
)

// IndicatorState mirrors the two-state toggle the real device exposes over
// CmdToggleIndicator.
type IndicatorState byte

const (
	IndicatorOff IndicatorState = iota
	IndicatorOn
)

// Server drives the five handshake steps from the server side and then
// answers fixed-format command requests until Close is called.
type Server struct {
	fr          *framing.Framer
	cipher      *sessioncrypto.ChannelCipher
	sessionID   [constants.SessionIDSize]byte
	indicator   IndicatorState
	temperature float64
}

// New builds a Server bound to fr. temperatureCelsius seeds the canned
// reading CmdReadTemperature returns.
func New(fr *framing.Framer, temperatureCelsius float64) *Server {
	return &Server{fr: fr, temperature: temperatureCelsius}
}

// Handshake runs the server side of the five-step exchange, mirroring the
// client in pkg/handshake step for step. On success the server holds the
// same channel cipher and session ID the client derived, and ServeOne can
// answer requests; it also returns them so tests can assert both sides
// agree.
func (s *Server) Handshake() (sessionID [constants.SessionIDSize]byte, aesKey, iv []byte, err error) {
	// Step 1: receive the client's first public key.
	clientDER1, err := s.fr.Recv(constants.RSAPublicKeyDERLen)
	if err != nil {
		return sessionID, nil, nil, err
	}
	clientPub1, err := sessioncrypto.ParsePublicKeyDER(clientDER1)
	if err != nil {
		return sessionID, nil, nil, err
	}

	// Step 2: send our own public key, segmented under the client's key.
	serverPriv, err := sessioncrypto.GenerateClientKeypair()
	if err != nil {
		return sessionID, nil, nil, err
	}
	serverDER := sessioncrypto.EncodePublicKeyDER(&serverPriv.PublicKey)

	serverKeySplits := constants.ServerKeySplit()
	serverKeySegments := make([][2]int, len(serverKeySplits))
	for i, sp := range serverKeySplits {
		serverKeySegments[i] = sp
	}
	serverKeyMsg, err := sessioncrypto.EncryptSegmented(clientPub1, serverDER, serverKeySegments)
	if err != nil {
		return sessionID, nil, nil, err
	}
	if err := s.fr.Send(serverKeyMsg); err != nil {
		return sessionID, nil, nil, err
	}

	// Step 3: receive the client's rotated key and PSK signature.
	clientAuthMsg, err := s.fr.Recv(constants.ClientAuthMessageSize)
	if err != nil {
		return sessionID, nil, nil, err
	}
	clientAuthPlaintext, err := sessioncrypto.DecryptSegmented(serverPriv, clientAuthMsg)
	if err != nil {
		return sessionID, nil, nil, err
	}
	clientDER2 := clientAuthPlaintext[:constants.RSAPublicKeyDERLen]
	clientSig1 := clientAuthPlaintext[constants.RSAPublicKeyDERLen : constants.RSAPublicKeyDERLen+constants.RSASize]
	clientPub2, err := sessioncrypto.ParsePublicKeyDER(clientDER2)
	if err != nil {
		return sessionID, nil, nil, err
	}
	if err := verifyPreSharedSecretSignature(clientPub2, clientSig1); err != nil {
		return sessionID, nil, nil, err
	}

	// Step 4: send the acknowledgement.
	ackPlaintext := make([]byte, constants.AckPlaintextLen)
	copy(ackPlaintext, constants.AckOkay)
	ackMsg, err := sessioncrypto.EncryptSegmented(clientPub2, ackPlaintext, [][2]int{{0, constants.AckPlaintextLen}})
	if err != nil {
		return sessionID, nil, nil, err
	}
	if err := s.fr.Send(ackMsg); err != nil {
		return sessionID, nil, nil, err
	}

	// Step 5: receive the second signature, then deliver channel material.
	authMsg, err := s.fr.Recv(constants.AuthMessageSize)
	if err != nil {
		return sessionID, nil, nil, err
	}
	clientSig2, err := sessioncrypto.DecryptSegmented(serverPriv, authMsg)
	if err != nil {
		return sessionID, nil, nil, err
	}
	if err := verifyPreSharedSecretSignature(clientPub2, clientSig2); err != nil {
		return sessionID, nil, nil, err
	}

	id, err := sessioncrypto.SecureRandomBytes(constants.SessionIDSize)
	if err != nil {
		return sessionID, nil, nil, err
	}
	key, err := sessioncrypto.SecureRandomBytes(constants.AESKeySize)
	if err != nil {
		return sessionID, nil, nil, err
	}
	ivBytes, err := sessioncrypto.SecureRandomBytes(constants.AESBlockSize)
	if err != nil {
		return sessionID, nil, nil, err
	}

	material := make([]byte, 0, constants.SessionMaterialPlaintextLen)
	material = append(material, id...)
	material = append(material, ivBytes...)
	material = append(material, key...)

	materialMsg, err := sessioncrypto.EncryptSegmented(clientPub2, material, [][2]int{{0, constants.SessionMaterialPlaintextLen}})
	if err != nil {
		return sessionID, nil, nil, err
	}
	if err := s.fr.Send(materialMsg); err != nil {
		return sessionID, nil, nil, err
	}

	copy(sessionID[:], id)
	s.sessionID = sessionID
	cipher, err := sessioncrypto.NewChannelCipher(key, ivBytes)
	if err != nil {
		return sessionID, nil, nil, err
	}
	s.cipher = cipher
	return sessionID, key, ivBytes, nil
}

// ServeOne reads one framed 16-byte ciphertext command, decodes it, applies
// the canned indicator/temperature state, and writes back one framed
// 16-byte ciphertext response. It returns io's error unmodified on
// transport failure so tests can assert on it directly.
func (s *Server) ServeOne() error {
	frame, err := s.fr.Recv(16)
	if err != nil {
		return err
	}
	plaintext, err := s.cipher.Decrypt(frame)
	if err != nil {
		return err
	}

	cmd := plaintext[0]
	gotSessionID := plaintext[1:9]
	var payload string
	status := constants.StatusOkay

	switch {
	case !sessioncrypto.ConstantTimeCompare(gotSessionID, s.sessionID[:]):
		status = constants.StatusInvalidSession
	case cmd == constants.CmdToggleIndicator:
		if s.indicator == IndicatorOff {
			s.indicator = IndicatorOn
		} else {
			s.indicator = IndicatorOff
		}
		if s.indicator == IndicatorOn {
			payload = "ON"
		} else {
			payload = "OFF"
		}
	case cmd == constants.CmdReadTemperature:
		payload = strconv.FormatFloat(s.temperature, 'f', 1, 64)
	default:
		status = constants.StatusBadRequest
	}

	respPlaintext := make([]byte, 16)
	respPlaintext[0] = status
	copy(respPlaintext[1:], payload)

	ciphertext, err := s.cipher.Encrypt(respPlaintext)
	if err != nil {
		return err
	}
	return s.fr.Send(ciphertext)
}

// Close closes the underlying transport.
func (s *Server) Close() error { return s.fr.Close() }

func verifyPreSharedSecretSignature(pub *rsa.PublicKey, sig []byte) error {
	digest := sha256.Sum256([]byte(constants.PreSharedSecret))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return qerrors.NewHandshakeError("verify-signature", err)
	}
	return nil
}
