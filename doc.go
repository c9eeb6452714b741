// Package tetherlink implements a client that establishes a cryptographically
// authenticated session with an embedded peer over a point-to-point serial
// link, then issues short command/response exchanges (read temperature,
// toggle an indicator).
//
// # Quick Start
//
// For a complete session:
//
//	import "github.com/tetherlink/tetherlink/pkg/session"
//
//	s, err := session.OpenDevice(context.Background(), "/dev/ttyUSB0", 115200, time.Second)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer s.Close()
//
//	resp, err := s.Request(constants.CmdReadTemperature)
//
// # Package Structure
//
//   - pkg/serialport: byte-oriented transport adapter
//   - pkg/framing: keyed-hash chained framing over the transport
//   - pkg/sessioncrypto: RSA, AES-256-CBC, and the shared padding quirk
//   - pkg/handshake: the five-step client authentication state machine
//   - pkg/request: the command/response layer riding the AES channel
//   - pkg/session: lifecycle aggregate tying the above together
//   - pkg/telemetry: structured logging and optional tracing spans
//   - internal/constants: wire and cryptographic parameters
//   - internal/errors: the tagged error taxonomy
//
// # Security Properties
//
//   - Mutual authentication via a 2048-bit RSA handshake bound to a
//     pre-shared 32-byte secret (trust reduces to that secret — there is no
//     certificate chain).
//   - Per-session AES-256-CBC channel with key and IV delivered fresh by the
//     server at the end of the handshake.
//   - Every framed byte is covered by a running HMAC-SHA-256 accumulator
//     shared by both peers; any framing desync is fatal and not retried.
//
// Non-goals: multi-peer fan-out, concurrent sessions per transport,
// certificate/PKI trust chains, forward secrecy beyond the per-session
// ephemeral keys, and recovery from any framing integrity failure.
package tetherlink
