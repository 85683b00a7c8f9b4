package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oshokin/presence-light/internal/logger"
)

// shutdownTimeout bounds the graceful stop of the metrics listener.
const shutdownTimeout = 2 * time.Second

// Serve exposes /metrics on addr until ctx is done.
// It returns the bound address once listening; serving continues in the
// background and the returned channel is closed after the server has stopped.
func Serve(ctx context.Context, addr string) (string, <-chan struct{}, error) {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan struct{})

	go func() {
		defer close(done)

		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorKV(ctx, "Metrics listener failed", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	bound := lis.Addr().String()
	logger.InfoKV(ctx, "Metrics listening", "address", bound)

	return bound, done, nil
}
