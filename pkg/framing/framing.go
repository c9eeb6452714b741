// Package framing implements the keyed-hash chain that protects every byte
// crossing the transport (§4.1). A single long-lived HMAC-SHA-256
// accumulator, seeded once with HmacKey = SHA-256(PreSharedSecret), is
// advanced by every Send and every Recv in the exact order they occur on
// the wire. There are no sequence numbers: a dropped, duplicated, or
// reordered frame desynchronises the accumulators and the very next Recv
// fails closed.
package framing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"hash"

	"github.com/tetherlink/tetherlink/internal/constants"
	qerrors "github.com/tetherlink/tetherlink/internal/errors"
	"github.com/tetherlink/tetherlink/pkg/serialport"
	"github.com/tetherlink/tetherlink/pkg/telemetry"
)

// FrameHasher is the keyed running accumulator. It is created once per
// session and never reset or re-keyed while the session lives.
type FrameHasher struct {
	h hash.Hash
}

// NewFrameHasher derives HmacKey = SHA-256(PreSharedSecret) and seeds a new
// accumulator with it.
func NewFrameHasher() *FrameHasher {
	sum := sha256.Sum256([]byte(constants.PreSharedSecret))
	return &FrameHasher{h: hmac.New(sha256.New, sum[:])}
}

// Absorb folds payload into the running digest.
func (f *FrameHasher) Absorb(payload []byte) {
	f.h.Write(payload)
}

// Digest returns the accumulator's current state without resetting it.
// hash.Hash.Sum never mutates internal state, so repeated calls between
// Absorbs are safe and return the same value.
func (f *FrameHasher) Digest() []byte {
	return f.h.Sum(nil)
}

// Framer pairs a Port with the session's FrameHasher and implements the
// Send/Recv contract of §4.1. Both sends and receives advance the same
// hasher in the order they actually happen on this side of the link; the
// peer must observe its own sends/receives in the mirrored order or the
// digests diverge.
type Framer struct {
	port   serialport.Port
	hasher *FrameHasher
}

// New builds a Framer over an already-open port, with a fresh hasher.
func New(port serialport.Port) *Framer {
	return &Framer{port: port, hasher: NewFrameHasher()}
}

// Hasher exposes the underlying accumulator, e.g. for tests that need to
// assert both peers' hasher states match.
func (fr *Framer) Hasher() *FrameHasher { return fr.hasher }

// Send absorbs payload into the hasher, then writes payload || digest as a
// single logical frame. A short write is fatal: the transport is closed and
// a *errors.TransportError returned.
func (fr *Framer) Send(payload []byte) (err error) {
	_, end := telemetry.StartSpan(context.Background(), telemetry.SpanFrameSend,
		telemetry.WithAttributes(map[string]interface{}{"bytes": len(payload)}))
	defer func() { end(err) }()

	fr.hasher.Absorb(payload)
	digest := fr.hasher.Digest()

	frame := make([]byte, 0, len(payload)+len(digest))
	frame = append(frame, payload...)
	frame = append(frame, digest...)

	n, writeErr := fr.port.Write(frame)
	if writeErr != nil {
		fr.port.Close()
		err = writeErr
		return err
	}
	if n != len(frame) {
		fr.port.Close()
		err = qerrors.NewTransportError("send", errShortWrite)
		return err
	}
	return nil
}

// Recv reads exactly n+32 bytes, absorbs the first n into the hasher, and
// compares the trailing 32 bytes against the hasher's now-current digest in
// constant time. A mismatch closes the transport and returns
// errors.IntegrityError; a short read closes the transport and returns a
// *errors.TransportError.
func (fr *Framer) Recv(n int) (payload []byte, err error) {
	_, end := telemetry.StartSpan(context.Background(), telemetry.SpanFrameRecv,
		telemetry.WithAttributes(map[string]interface{}{"bytes": n}))
	defer func() { end(err) }()

	frame, readErr := fr.port.Read(n + constants.HMACDigestSize)
	if readErr != nil {
		fr.port.Close()
		err = readErr
		return nil, err
	}

	payload = frame[:n]
	gotDigest := frame[n:]

	fr.hasher.Absorb(payload)
	wantDigest := fr.hasher.Digest()

	if subtle.ConstantTimeCompare(gotDigest, wantDigest) != 1 {
		fr.port.Close()
		err = qerrors.IntegrityError
		return nil, err
	}
	return payload, nil
}

// Close closes the underlying port.
func (fr *Framer) Close() error { return fr.port.Close() }

var errShortWrite = errors.New("framing: short write")
