package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/presence-light/internal/config"
	"github.com/oshokin/presence-light/internal/service/presence"
)

// lightServer is a fake ESPHome controller recording request URIs.
type lightServer struct {
	mu   sync.Mutex
	uris []string
}

func (s *lightServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.uris = append(s.uris, r.URL.RequestURI())
	s.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (s *lightServer) requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.uris...)
}

// appendLine adds a Teams state transition to the log at path.
func appendLine(t *testing.T, path, clock, from, to string) {
	t.Helper()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	require.NoError(t, err)

	_, err = f.WriteString("Fri Mar 01 2024 " + clock + " GMT+0100 (Central European Standard Time) <9> -- info -- " +
		"StatusIndicatorStateService: Added " + to + " (current state: " + from + " -> " + to + ")\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

// TestPresence_FollowsGrowingLog drives the whole service from a settings file
// against a log that grows while it runs.
func TestPresence_FollowsGrowingLog(t *testing.T) {
	t.Parallel()

	light := new(lightServer)

	srv := httptest.NewServer(light)
	defer srv.Close()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs.txt")
	cfgPath := filepath.Join(dir, "presence-light.yaml")

	require.NoError(t, config.Save(cfgPath, &config.Config{
		DeviceAddress: strings.TrimPrefix(srv.URL, "http://"),
		DeviceID:      "office",
		LogFile:       logPath,
		PollInterval:  20 * time.Millisecond,
		Timeout:       time.Second,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- presence.Run(ctx, &presence.Options{
			ConfigPath: cfgPath,
			Lookup: func(string) (string, bool) {
				return "", false
			},
		})
	}()

	waitFor := func(n int) {
		require.Eventually(t, func() bool {
			return len(light.requests()) == n
		}, 5*time.Second, 10*time.Millisecond)
	}

	// The log does not exist yet; the service keeps polling.
	time.Sleep(60 * time.Millisecond)
	require.Empty(t, light.requests())

	appendLine(t, logPath, "09:00:00", "Unknown", "Busy")
	waitFor(1)

	appendLine(t, logPath, "09:10:00", "Busy", "BeRightBack")
	waitFor(2)

	// Noise does not change the color.
	appendLine(t, logPath, "09:11:00", "BeRightBack", "NewActivity")
	time.Sleep(80 * time.Millisecond)
	require.Len(t, light.requests(), 2)

	appendLine(t, logPath, "09:20:00", "NewActivity", "Available")
	waitFor(3)

	cancel()
	require.NoError(t, <-done)

	require.Equal(t, []string{
		"/light/office/turn_on?r=255&g=0&b=0&brightness=255",
		"/light/office/turn_on?r=255&g=170&b=0&brightness=255",
		"/light/office/turn_on?r=0&g=255&b=0&brightness=255",
		"/light/office/turn_off",
	}, light.requests())
}
