package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/presence-light/internal/service/presence"
	"github.com/oshokin/presence-light/internal/version"
)

var (
	// opts collects the flag values handed to the presence service.
	//nolint:gochecknoglobals // Required by Cobra CLI framework architecture.
	opts presence.Options

	// rootCmd mirrors the Teams presence status onto a light.
	//nolint:gochecknoglobals // Required by Cobra CLI framework architecture.
	rootCmd = &cobra.Command{
		Use:   "presence-light",
		Short: "Show your Microsoft Teams presence on a smart light.",
		Long: `Polls the Microsoft Teams log file, infers your current presence status and
colors an ESPHome light accordingly:

  red     Busy, DoNotDisturb, InAMeeting, Presenting, OnThePhone
  yellow  Away, BeRightBack
  green   anything else

The light is only contacted when the status changes. On Ctrl+C the light is
turned off before exiting.

Settings come from an optional YAML file, PRESENCE_LIGHT_* environment
variables and flags, in increasing order of precedence.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			opts.Out = cmd.OutOrStdout()

			return presence.Run(ctx, &opts)
		},
	}
)

// Execute runs the presence-light CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()

	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "path to configuration file (default presence-light.yaml if present)")
	flags.StringVar(&opts.DeviceAddress, "device", "", "light controller host or host:port")
	flags.StringVar(&opts.DeviceID, "device-id", "", "light identifier on the controller")
	flags.StringVar(&opts.LogFile, "log-file", "", "path to the Teams logs.txt")
	flags.DurationVar(&opts.PollInterval, "interval", 0, "pause between polls (default 30s)")
	flags.DurationVar(&opts.Timeout, "timeout", 0, "timeout for each light request (default 5s)")
	flags.StringVar(&opts.MetricsAddress, "metrics-addr", "", "serve Prometheus metrics on this address")
	flags.StringVar(&opts.LogLevel, "log-level", "", "diagnostic log level: debug, info, warn, error")

	// Hidden debug flag: poll once and exit.
	flags.BoolVarP(&opts.Debug, "debug", "d", false, "poll once with debug logging and exit")

	err := flags.MarkHidden("debug")
	if err != nil {
		panic(err)
	}
}
