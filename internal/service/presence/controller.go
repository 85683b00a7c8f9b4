package presence

import (
	"context"
	"fmt"
	"io"
	"time"

	domain "github.com/oshokin/presence-light/internal/domain/presence"
	"github.com/oshokin/presence-light/internal/logger"
	"github.com/oshokin/presence-light/internal/metrics"
	"github.com/oshokin/presence-light/internal/repository/teamslog"
)

// Light is the actuator the controller drives.
type Light interface {
	TurnOn(ctx context.Context, color domain.Color) error
	TurnOff(ctx context.Context) error
}

// clockFormat matches the wall-clock prefix of every status line.
const clockFormat = "15:04:05"

// Controller owns the session and performs poll cycles.
type Controller struct {
	// extractor reads the latest status from the log.
	extractor teamslog.Extractor
	// light receives color changes and the final turn-off.
	light Light
	// out receives the console status lines.
	out io.Writer
	// now returns the wall-clock time printed with each poll.
	now func() time.Time
	// offTimeout bounds the final turn-off, which runs after ctx is canceled.
	offTimeout time.Duration
	// session holds the status last acted upon.
	session domain.Session
}

// NewController wires an extractor and a light. A nil out discards console output.
func NewController(extractor teamslog.Extractor, light Light, out io.Writer) *Controller {
	if out == nil {
		out = io.Discard
	}

	return &Controller{
		extractor:  extractor,
		light:      light,
		out:        out,
		now:        time.Now,
		offTimeout: defaultOffTimeout,
	}
}

// Previous returns the status last acted upon.
func (c *Controller) Previous() domain.Status {
	return c.session.Previous()
}

// Poll runs one cycle and prints one status line. A read error reports the
// previous status with no log time, leaves the session untouched and is
// returned; a failed light command is logged and does not fail the cycle.
func (c *Controller) Poll(ctx context.Context) error {
	result, err := c.extractor.Extract(ctx)
	if err != nil {
		metrics.ObservePoll(metrics.PollReadError)

		_, _ = fmt.Fprintf(c.out, "[%s] MS Teams status: %s ()\n",
			c.now().Format(clockFormat), c.session.Previous())

		return fmt.Errorf("extract status: %w", err)
	}

	metrics.ObservePoll(metrics.PollOK)

	_, _ = fmt.Fprintf(c.out, "[%s] MS Teams status: %s (%s)\n",
		c.now().Format(clockFormat), result.Status, result.Timestamp)

	if !c.session.Changed(result.Status) {
		return nil
	}

	band := domain.Classify(result.Status)

	_, _ = fmt.Fprintf(c.out, "  Turning light %s...\n", band)
	metrics.ObserveStatusChange(band.String())

	if err := c.light.TurnOn(ctx, band.Color()); err != nil {
		logger.ErrorKV(ctx, "Light update failed", "status", result.Status, "band", band.String(), "error", err)
	} else {
		logger.InfoKV(ctx, "Light updated", "status", result.Status, "band", band.String())
	}

	// A failed delivery is not retried; only the next change sends again.
	c.session.Observe(result.Status)

	return nil
}

// Loop polls immediately and then every interval until ctx is done.
// With once set it returns after the first poll.
func (c *Controller) Loop(ctx context.Context, interval time.Duration, once bool) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		// Both cases may be ready at once; cancellation wins.
		if ctx.Err() != nil {
			return
		}

		if err := c.Poll(ctx); err != nil {
			logger.ErrorKV(ctx, "Poll failed", "error", err)
		}

		if once {
			return
		}

		timer.Reset(interval)
	}
}

// Shutdown sends the final turn-off. It runs on a context detached from ctx
// so a canceled parent does not abort it, and never fails.
func (c *Controller) Shutdown(ctx context.Context) {
	_, _ = fmt.Fprintln(c.out, "Exiting... turning off the light")

	offCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.offTimeout)
	defer cancel()

	if err := c.light.TurnOff(offCtx); err != nil {
		logger.ErrorKV(ctx, "Turning the light off failed", "error", err)

		return
	}

	logger.Info(ctx, "Light turned off")
}
