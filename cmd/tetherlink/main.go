// Command tetherlink is a minimal operator CLI exercising the full client
// lifecycle — handshake, request, close — against a real serial device or,
// for demos and CI, a loopback pair.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tetherlink/tetherlink/pkg/telemetry"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	flagPort      string
	flagBaud      int
	flagTimeout   string
	flagLogLevel  string
	flagLogFormat string
	flagTrace     bool
)

var rootCmd = &cobra.Command{
	Use:   "tetherlink",
	Short: "Secure session client for the tethered serial link protocol",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagTrace {
			telemetry.SetTracer(telemetry.NewOTelTracer("tetherlink"))
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagPort, "port", "", "serial device path (e.g. /dev/ttyUSB0)")
	flags.IntVar(&flagBaud, "baud", 115200, "serial baud rate (informational; real device open is out of this module's scope)")
	flags.StringVar(&flagTimeout, "timeout", "1s", "per-read transport timeout")
	flags.StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.StringVar(&flagLogFormat, "log-format", "text", "log format: text or json")
	flags.BoolVar(&flagTrace, "trace", false, "install the OpenTelemetry tracer (requires the otel build tag for a real exporter-backed tracer)")

	rootCmd.AddCommand(openCmd)
}
