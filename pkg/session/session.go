// Package session ties the transport, framing, handshake and request
// layers into the single client-facing entry point: Open drives the
// handshake, Request exchanges one command, Close tears the link down.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tetherlink/tetherlink/internal/constants"
	qerrors "github.com/tetherlink/tetherlink/internal/errors"
	"github.com/tetherlink/tetherlink/pkg/framing"
	"github.com/tetherlink/tetherlink/pkg/handshake"
	"github.com/tetherlink/tetherlink/pkg/request"
	"github.com/tetherlink/tetherlink/pkg/serialport"
	"github.com/tetherlink/tetherlink/pkg/sessioncrypto"
	"github.com/tetherlink/tetherlink/pkg/telemetry"
)

// State is the lifecycle of a Session.
type State int32

const (
	StateNew State = iota
	StateHandshaking
	StateEstablished
	StateClosed
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateNew:
		return "New"
	case StateHandshaking:
		return "Handshaking"
	case StateEstablished:
		return "Established"
	case StateClosed:
		return "Closed"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Session owns the transport and framing accumulator exclusively (§9
// design note): there is exactly one Framer per link, and every Send/Recv
// that crosses it — handshake and request alike — runs through this one
// Session so the keyed hash chain never desynchronises behind the caller's
// back.
type Session struct {
	mu        sync.Mutex
	state     atomic.Int32
	fr        *framing.Framer
	cipher    *sessioncrypto.ChannelCipher
	sessionID [constants.SessionIDSize]byte
	lastErr   error

	CreatedAt     time.Time
	EstablishedAt time.Time
}

// Open wraps port in a Framer, runs the five-step handshake over it, and
// returns an established Session. ctx bounds the handshake as a whole —
// its cancellation is observed between handshake steps, not inside a single
// blocking Recv, which remains governed by the transport's own read timeout
// (spec §5). On any handshake failure the returned error is already a
// *errors.HandshakeError (or a transport error) and the underlying
// transport has been closed.
func Open(ctx context.Context, port serialport.Port) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &Session{
		fr:        framing.New(port),
		CreatedAt: time.Now(),
	}
	s.state.Store(int32(StateHandshaking))

	result, err := handshake.Run(ctx, s.fr)
	if err != nil {
		s.fail(err)
		s.fr.Close()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		s.fail(err)
		s.fr.Close()
		return nil, err
	}

	s.mu.Lock()
	s.cipher = result.Cipher
	s.sessionID = result.SessionID
	s.EstablishedAt = time.Now()
	s.mu.Unlock()
	s.state.Store(int32(StateEstablished))

	return s, nil
}

// OpenDevice opens the named serial device at baud and runs Open over it —
// the convenience entry point a real caller (cmd/tetherlink) uses. Tests
// and anything driving the protocol over a non-device stream (e.g.
// net.Pipe) should build a serialport.Port directly and call Open instead.
func OpenDevice(ctx context.Context, name string, baud int, timeout time.Duration) (*Session, error) {
	d := &serialport.Dialer{}
	if err := d.Open(name, baud, timeout); err != nil {
		return nil, err
	}
	return Open(ctx, d)
}

// State returns the session's current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// LastError returns the error that moved the session into StateFailed, or
// nil if it never failed.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Request encodes cmd against the session ID, sends it over the framer,
// and decodes the response. It requires StateEstablished; any other state
// returns a *errors.ProtocolStateError without touching the transport.
func (s *Session) Request(cmd byte) (resp request.Response, err error) {
	_, end := telemetry.StartSpan(context.Background(), telemetry.SpanRequest,
		telemetry.WithAttributes(map[string]interface{}{"cmd": cmd}))
	defer func() { end(err) }()

	if State(s.state.Load()) != StateEstablished {
		err = qerrors.NewProtocolStateError(s.State().String(), StateEstablished.String())
		return request.Response{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	plaintext := request.EncodeCommand(cmd, s.sessionID)
	ciphertext, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		s.failLocked(err)
		return request.Response{}, err
	}
	if err := s.fr.Send(ciphertext); err != nil {
		s.failLocked(err)
		return request.Response{}, err
	}

	respCiphertext, err := s.fr.Recv(16)
	if err != nil {
		s.failLocked(err)
		return request.Response{}, err
	}
	respPlaintext, err := s.cipher.Decrypt(respCiphertext)
	if err != nil {
		s.failLocked(err)
		return request.Response{}, err
	}

	resp, err = request.DecodeResponse(respPlaintext)
	if err != nil {
		var cmdErr *qerrors.CommandError
		var decodeErr *qerrors.DecodeError
		if qerrors.As(err, &cmdErr) || qerrors.As(err, &decodeErr) {
			// A rejected command or a malformed-but-delivered response
			// leaves the session usable (§7).
			return resp, err
		}
		s.failLocked(err)
		return request.Response{}, err
	}
	return resp, nil
}

// Close tears down the transport. It is idempotent; calling Close on an
// already-closed or failed session is a no-op.
func (s *Session) Close() error {
	if State(s.state.Load()) == StateClosed {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Store(int32(StateClosed))
	if s.cipher != nil {
		s.cipher.Zeroize()
	}
	return s.fr.Close()
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLocked(err)
}

func (s *Session) failLocked(err error) {
	s.lastErr = err
	s.state.Store(int32(StateFailed))
}
