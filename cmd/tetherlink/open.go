package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tetherlink/tetherlink/pkg/session"
	"github.com/tetherlink/tetherlink/pkg/telemetry"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open a session against --port and drop into an interactive shell",
	Long: `Open runs the five-step handshake against --port and then reads commands
from stdin until EOF or "close":

  request <cmd>   issue one command, e.g. "request 0x02"
  close           close the session and exit
`,
	RunE: runOpen,
}

func runOpen(cmd *cobra.Command, args []string) error {
	if flagPort == "" {
		return fmt.Errorf("--port is required")
	}
	timeout, err := time.ParseDuration(flagTimeout)
	if err != nil {
		return fmt.Errorf("invalid --timeout: %w", err)
	}

	logger := telemetry.NewLogger(os.Stderr, flagLogFormat != "json")
	logger.Info("opening session", telemetry.Fields{"port": flagPort, "baud": flagBaud})

	sess, err := session.OpenDevice(context.Background(), flagPort, flagBaud, timeout)
	if err != nil {
		logger.Error("handshake failed", telemetry.Fields{"error": err.Error()})
		return err
	}
	logger.Info("session established", telemetry.Fields{"state": sess.State().String()})

	return repl(cmd.InOrStdin(), sess, logger)
}

func repl(in io.Reader, sess *session.Session, logger *telemetry.Logger) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "request":
			if len(fields) != 2 {
				fmt.Fprintln(os.Stderr, `usage: request <cmd>, e.g. "request 0x02"`)
				continue
			}
			cmdByte, err := parseCommandByte(fields[1])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			resp, err := sess.Request(cmdByte)
			if err != nil {
				logger.Error("request failed", telemetry.Fields{"error": err.Error()})
				continue
			}
			fmt.Printf("status=0x%02x payload=%q\n", resp.Status, resp.Payload)
		case "close":
			if err := sess.Close(); err != nil {
				logger.Error("close failed", telemetry.Fields{"error": err.Error()})
				return err
			}
			logger.Info("session closed", nil)
			return nil
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q (expected \"request <cmd>\" or \"close\")\n", fields[0])
		}
	}
	return sess.Close()
}

func parseCommandByte(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid command byte %q: %w", s, err)
	}
	return byte(v), nil
}
