package errors_test

import (
	stderrors "errors"
	"testing"

	qerrors "github.com/tetherlink/tetherlink/internal/errors"
)

func TestTransportErrorUnwrap(t *testing.T) {
	cause := stderrors.New("eof")
	err := qerrors.NewTransportError("read", cause)

	if !stderrors.Is(err, cause) {
		t.Fatalf("expected Is to find wrapped cause")
	}
	if err.Error() == "" {
		t.Fatalf("expected non-empty error string")
	}
}

func TestHandshakeErrorAs(t *testing.T) {
	err := error(qerrors.NewHandshakeError("ack", qerrors.IntegrityError))

	var he *qerrors.HandshakeError
	if !stderrors.As(err, &he) {
		t.Fatalf("expected As to match *HandshakeError")
	}
	if he.Stage != "ack" {
		t.Fatalf("expected stage %q, got %q", "ack", he.Stage)
	}
	if !stderrors.Is(err, qerrors.IntegrityError) {
		t.Fatalf("expected wrapped IntegrityError to be found")
	}
}

func TestCommandErrorCarriesStatus(t *testing.T) {
	err := qerrors.NewCommandError(0x02)

	var ce *qerrors.CommandError
	if !stderrors.As(error(err), &ce) {
		t.Fatalf("expected As to match *CommandError")
	}
	if ce.Status != 0x02 {
		t.Fatalf("expected status 0x02, got 0x%02x", ce.Status)
	}
}

func TestProtocolStateError(t *testing.T) {
	err := qerrors.NewProtocolStateError("Failed", "Established")
	if err.Error() == "" {
		t.Fatalf("expected non-empty message")
	}
}

func TestDecodeErrorUnwrap(t *testing.T) {
	cause := stderrors.New("bad float")
	err := qerrors.NewDecodeError("temperature", cause)
	if !stderrors.Is(err, cause) {
		t.Fatalf("expected Is to find wrapped cause")
	}
}

func TestIntegrityErrorIsSentinel(t *testing.T) {
	if !qerrors.Is(qerrors.IntegrityError, qerrors.IntegrityError) {
		t.Fatalf("expected sentinel to match itself")
	}
}
