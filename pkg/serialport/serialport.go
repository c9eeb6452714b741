// Package serialport defines the byte-oriented transport the secure session
// protocol is carried over, and a generic adapter for it.
//
// The serial device itself — enumerating ports, configuring the line at a
// given baud rate via termios or similar — is an external collaborator the
// core consumes through the narrow Port interface below; no serial-port
// driver library appears anywhere in the retrieval pack this module was
// built from, so this package gives the interface a concrete,
// dependency-free implementation over anything already shaped like a byte
// stream: a plain opened file for a real device node, or net.Pipe/net.Conn
// in tests.
package serialport

import (
	"io"
	"net"
	"os"
	"time"

	qerrors "github.com/tetherlink/tetherlink/internal/errors"
)

// Port is the transport contract the core consumes (§4, §6): open a named
// device at a fixed baud rate, write bytes, block for exactly n bytes, and
// close. Read is blocking with a bounded inactivity timeout; a timeout or
// short read is reported as a *errors.TransportError.
type Port interface {
	Open(name string, baud int, timeout time.Duration) error
	Write(b []byte) (int, error)
	Read(n int) ([]byte, error)
	Close() error
}

// ErrEnumerationUnsupported is returned by ListPorts. Device enumeration is
// an external collaborator (§1) this module does not implement.
var ErrEnumerationUnsupported = qerrors.NewTransportError("enumerate", io.ErrNoProgress)

// ListPorts is a seam for a real platform-specific implementation
// (enumerating /dev/ttyUSB*, a Windows COM port registry scan, and so on);
// this adapter has none to offer.
func ListPorts() ([]string, error) {
	return nil, ErrEnumerationUnsupported
}

// Dialer adapts a byte stream into a Port with a bounded read timeout. The
// zero value is a valid Dialer ready for Open; NewDialer wraps an
// already-open stream directly, which is how tests drive the protocol over
// net.Pipe() without a real device, and how a real termios-based driver
// (out of this module's scope) would hand off an already-configured handle.
type Dialer struct {
	rwc     io.ReadWriteCloser
	timeout time.Duration
}

// NewDialer wraps an already-open stream — a real serial driver's handle,
// or one half of net.Pipe() in tests.
func NewDialer(rwc io.ReadWriteCloser, timeout time.Duration) *Dialer {
	return &Dialer{rwc: rwc, timeout: timeout}
}

// Open implements Port by opening the named device file for read/write.
// baud is accepted but not applied here: configuring the line discipline
// (termios) at a given baud rate requires platform-specific code this
// module does not carry; on the OSes where a serial device is exposed as a
// file (Linux, BSD), the line typically must already be configured by the
// caller's environment or a prior `stty`.
func (d *Dialer) Open(name string, baud int, timeout time.Duration) error {
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return qerrors.NewTransportError("open", err)
	}
	d.rwc = f
	d.timeout = timeout
	return nil
}

// Write writes b in one call. A short write is the caller's concern to
// detect (the framing layer treats any written < len(b) as fatal).
func (d *Dialer) Write(b []byte) (int, error) {
	n, err := d.rwc.Write(b)
	if err != nil {
		return n, qerrors.NewTransportError("write", err)
	}
	return n, nil
}

// Read blocks until exactly n bytes have been read, or the timeout elapses,
// or the stream errors/EOFs. Any of those is reported as a TransportError.
func (d *Dialer) Read(n int) ([]byte, error) {
	if conn, ok := d.rwc.(net.Conn); ok && d.timeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(d.timeout)); err != nil {
			return nil, qerrors.NewTransportError("set-deadline", err)
		}
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(d.rwc, buf); err != nil {
		return nil, qerrors.NewTransportError("read", err)
	}
	return buf, nil
}

// Close closes the underlying stream. Idempotent if the stream's Close is.
func (d *Dialer) Close() error {
	if err := d.rwc.Close(); err != nil {
		return qerrors.NewTransportError("close", err)
	}
	return nil
}
