package presence

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/oshokin/presence-light/internal/config"
	"github.com/oshokin/presence-light/internal/logger"
	"github.com/oshokin/presence-light/internal/metrics"
	"github.com/oshokin/presence-light/internal/platform/process"
	"github.com/oshokin/presence-light/internal/repository/teamslog"
	"github.com/oshokin/presence-light/internal/service/light"
)

// Options carries command line overrides on top of the configuration.
type Options struct {
	// ConfigPath specifies the settings YAML file; empty means the optional default.
	ConfigPath string
	// DeviceAddress overrides the light controller host.
	DeviceAddress string
	// DeviceID overrides the light identifier.
	DeviceID string
	// LogFile overrides the Teams log location.
	LogFile string
	// PollInterval overrides the pause between polls.
	PollInterval time.Duration
	// Timeout overrides the per-request timeout.
	Timeout time.Duration
	// MetricsAddress overrides the Prometheus listen address.
	MetricsAddress string
	// LogLevel overrides the diagnostic log level.
	LogLevel string
	// Debug runs a single poll and exits without touching the light,
	// unless interrupted before the poll completes.
	Debug bool
	// Out receives the console status lines; nil means stdout.
	Out io.Writer
	// Lookup resolves environment variables; nil means os.LookupEnv.
	Lookup func(string) (string, bool)
}

// defaultOffTimeout bounds the final turn-off when no timeout is configured.
const defaultOffTimeout = config.DefaultTimeout

// Run resolves the settings and runs the poll loop until ctx is canceled,
// then switches the light off once. It only fails on invalid settings.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "presence-light")

	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	if lvl, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(lvl)
	} else {
		logger.WarnKV(ctx, "Unknown log level, keeping info", "log_level", cfg.LogLevel)
	}

	if cfg.Debug {
		logger.SetLevel(zapcore.DebugLevel)
	}

	client, err := light.New(cfg.DeviceAddress, cfg.DeviceID, light.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("create light client: %w", err)
	}

	if cfg.MetricsAddress != "" {
		if _, _, err := metrics.Serve(ctx, cfg.MetricsAddress); err != nil {
			return fmt.Errorf("start metrics: %w", err)
		}
	}

	warnIfTeamsStopped(ctx)

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	extractor := teamslog.NewFileExtractor(cfg.LogFile)

	controller := NewController(extractor, client, out)
	controller.offTimeout = cfg.Timeout

	logger.InfoKV(ctx, "Watching Teams presence",
		"log_file", extractor.Path(),
		"light", client.BaseURL(),
		"interval", cfg.PollInterval.String(),
		"debug", cfg.Debug,
	)

	controller.Loop(ctx, cfg.PollInterval, cfg.Debug)

	// An interrupt still turns the light off in debug mode.
	if cfg.Debug && ctx.Err() == nil {
		return nil
	}

	controller.Shutdown(ctx)

	return nil
}

// resolveConfig layers defaults, the YAML file, environment and flags, then validates.
func resolveConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if err := config.ApplyEnv(cfg, opts.Lookup); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	if opts.DeviceAddress != "" {
		cfg.DeviceAddress = opts.DeviceAddress
	}

	if opts.DeviceID != "" {
		cfg.DeviceID = opts.DeviceID
	}

	if opts.LogFile != "" {
		cfg.LogFile = opts.LogFile
	}

	if opts.PollInterval > 0 {
		cfg.PollInterval = opts.PollInterval
	}

	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}

	if opts.MetricsAddress != "" {
		cfg.MetricsAddress = opts.MetricsAddress
	}

	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	if opts.Debug {
		cfg.Debug = true
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}

	return cfg, nil
}

// warnIfTeamsStopped logs a hint when no Teams client is running; the log
// will not change until one is.
func warnIfTeamsStopped(ctx context.Context) {
	running, err := process.Running(process.TeamsExecutables...)
	if err != nil {
		logger.DebugKV(ctx, "Process lookup failed", "error", err)

		return
	}

	if !running {
		logger.WarnKV(ctx, "Teams does not seem to be running, presence will not change until it starts")
	}
}
