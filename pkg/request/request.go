// Package request implements the fixed-size command/response exchange that
// runs over an established channel cipher (§4.3): every request and
// response is exactly one 16-byte AES block, command and status codes are
// single bytes, and a non-okay status is reported as a *errors.CommandError
// rather than folded into the returned payload.
package request

import (
	"strconv"
	"strings"

	"github.com/tetherlink/tetherlink/internal/constants"
	qerrors "github.com/tetherlink/tetherlink/internal/errors"
	"github.com/tetherlink/tetherlink/pkg/sessioncrypto"
)

// plaintextLen is the pre-pad length of a request body: one command byte
// plus the 8-byte session ID.
const plaintextLen = 1 + constants.SessionIDSize

// responseLen is the fixed size of one response block.
const responseLen = constants.AESBlockSize

// payloadLen is the number of response bytes (after the status byte) that
// carry the ASCII payload; the remaining bytes are unused padding.
const payloadLen = 6

// EncodeCommand builds the padded, block-aligned plaintext for cmd against
// sessionID, ready for ChannelCipher.Encrypt.
func EncodeCommand(cmd byte, sessionID [constants.SessionIDSize]byte) []byte {
	body := make([]byte, plaintextLen)
	body[0] = cmd
	copy(body[1:], sessionID[:])
	return sessioncrypto.PadRequestPlaintext(body)
}

// IndicatorState is the typed two-state reading CmdToggleIndicator returns,
// normalized from the wire's "ON"/"OFF" ASCII payload (supplementing
// spec.md's plain-string response with the enum several original client
// revisions normalize to before display).
type IndicatorState int

const (
	IndicatorUnknown IndicatorState = iota
	IndicatorOn
	IndicatorOff
)

// String returns a human-readable indicator name.
func (s IndicatorState) String() string {
	switch s {
	case IndicatorOn:
		return "On"
	case IndicatorOff:
		return "Off"
	default:
		return "Unknown"
	}
}

// Response is a decoded, status-checked response block.
type Response struct {
	Status byte
	// Payload is the NUL/whitespace-trimmed ASCII text of a STATUS_OKAY
	// response (spec.md §4.3 "anything else is returned as opaque text").
	Payload string
	// Raw holds the full post-status bytes verbatim, for callers that need
	// more than the trimmed Payload.
	Raw [15]byte
}

// DecodeResponse validates plaintext's length and status byte. A non-okay
// status yields a *errors.CommandError carrying the status; Response.Raw
// remains populated so the caller can still inspect the opaque bytes.
func DecodeResponse(plaintext []byte) (Response, error) {
	if len(plaintext) != responseLen {
		return Response{}, qerrors.NewDecodeError("response", errBadResponseLen)
	}
	var resp Response
	resp.Status = plaintext[0]
	copy(resp.Raw[:], plaintext[1:])
	resp.Payload = strings.Trim(string(resp.Raw[:payloadLen]), "\x00 \t")

	if resp.Status != constants.StatusOkay {
		return resp, qerrors.NewCommandError(resp.Status)
	}
	return resp, nil
}

// AsIndicator interprets Payload as the CmdToggleIndicator reading.
func (r Response) AsIndicator() (IndicatorState, error) {
	switch r.Payload {
	case "ON":
		return IndicatorOn, nil
	case "OFF":
		return IndicatorOff, nil
	default:
		return IndicatorUnknown, qerrors.NewDecodeError("indicator", errUnrecognizedIndicator)
	}
}

// AsTemperatureCelsius interprets Payload as a decimal Celsius reading, as
// CmdReadTemperature returns it.
func (r Response) AsTemperatureCelsius() (float64, error) {
	v, err := strconv.ParseFloat(r.Payload, 64)
	if err != nil {
		return 0, qerrors.NewDecodeError("temperature", err)
	}
	return v, nil
}

var (
	errBadResponseLen        = decodeErr("request: response plaintext has the wrong length")
	errUnrecognizedIndicator = decodeErr("request: payload is not \"ON\" or \"OFF\"")
)

type decodeErr string

func (e decodeErr) Error() string { return string(e) }
