package presence

import (
	"bytes"
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
	"go.uber.org/goleak"

	"github.com/oshokin/presence-light/internal/config"
)

// teamsLine renders a Teams state transition.
func teamsLine(clock, from, to string) string {
	return "Fri Mar 01 2024 " + clock + " GMT+0100 (Central European Standard Time) <7> -- info -- " +
		"StatusIndicatorStateService: Added " + to + " (current state: " + from + " -> " + to + ")\n"
}

// deviceRecorder is a fake light controller counting paths it was called on.
type deviceRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (d *deviceRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	d.calls = append(d.calls, r.Method+" "+r.URL.RequestURI())
	d.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (d *deviceRecorder) snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]string(nil), d.calls...)
}

// emptyEnv hides the process environment from Run.
func emptyEnv(string) (string, bool) {
	return "", false
}

// TestRun_InterruptTurnsLightOff covers the interrupt arriving mid-sleep:
// exactly one turn_off, no further polling, clean return.
func TestRun_InterruptTurnsLightOff(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreCurrent(),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)

	device := new(deviceRecorder)

	srv := httptest.NewServer(device)
	defer srv.Close()

	logPath := filepath.Join(t.TempDir(), "logs.txt")
	require.NoError(t, os.WriteFile(logPath, []byte(teamsLine("10:15:00", "Available", "Busy")), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		out  bytes.Buffer
		done = make(chan error, 1)
	)

	go func() {
		done <- Run(ctx, &Options{
			ConfigPath:    "",
			DeviceAddress: strings.TrimPrefix(srv.URL, "http://"),
			DeviceID:      "living_room_1",
			LogFile:       logPath,
			PollInterval:  time.Hour,
			Timeout:       time.Second,
			Out:           &out,
			Lookup:        emptyEnv,
		})
	}()

	require.Eventually(t, func() bool {
		return len(device.snapshot()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	// The loop is now sleeping for an hour.
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	require.Equal(t, []string{
		"POST /light/living_room_1/turn_on?r=255&g=0&b=0&brightness=255",
		"POST /light/living_room_1/turn_off",
	}, device.snapshot())

	require.Contains(t, out.String(), "MS Teams status: Busy (10:15:00)")
	require.Contains(t, out.String(), "  Turning light RED...")
	require.True(t, strings.HasSuffix(out.String(), "Exiting... turning off the light\n"))
}

// TestRun_DebugPollsOnce returns after one poll and leaves the light on.
func TestRun_DebugPollsOnce(t *testing.T) {
	t.Parallel()

	device := new(deviceRecorder)

	srv := httptest.NewServer(device)
	t.Cleanup(srv.Close)

	logPath := filepath.Join(t.TempDir(), "logs.txt")
	contents := teamsLine("09:00:00", "Available", "Away") + teamsLine("09:01:00", "Away", "NewActivity")
	require.NoError(t, os.WriteFile(logPath, []byte(contents), 0o600))

	var out bytes.Buffer

	err := Run(context.Background(), &Options{
		DeviceAddress: strings.TrimPrefix(srv.URL, "http://"),
		DeviceID:      "desk",
		LogFile:       logPath,
		Debug:         true,
		Out:           &out,
		Lookup:        emptyEnv,
	})
	require.NoError(t, err)

	require.Equal(t, []string{"POST /light/desk/turn_on?r=255&g=170&b=0&brightness=255"}, device.snapshot())
	require.Contains(t, out.String(), "MS Teams status: Away (09:01:00)")
}

// TestRun_DebugInterruptedTurnsLightOff still turns the light off when
// debug mode is interrupted before its poll.
func TestRun_DebugInterruptedTurnsLightOff(t *testing.T) {
	t.Parallel()

	device := new(deviceRecorder)

	srv := httptest.NewServer(device)
	t.Cleanup(srv.Close)

	logPath := filepath.Join(t.TempDir(), "logs.txt")
	require.NoError(t, os.WriteFile(logPath, []byte(teamsLine("09:00:00", "Available", "Busy")), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer

	err := Run(ctx, &Options{
		DeviceAddress: strings.TrimPrefix(srv.URL, "http://"),
		DeviceID:      "desk",
		LogFile:       logPath,
		Debug:         true,
		Out:           &out,
		Lookup:        emptyEnv,
	})
	require.NoError(t, err)

	require.Equal(t, []string{"POST /light/desk/turn_off"}, device.snapshot())
	require.Equal(t, "Exiting... turning off the light\n", out.String())
}

// TestRun_MissingLogKeepsRunning survives an absent log and still turns the light off.
func TestRun_MissingLogKeepsRunning(t *testing.T) {
	t.Parallel()

	device := new(deviceRecorder)

	srv := httptest.NewServer(device)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := Run(ctx, &Options{
		DeviceAddress: strings.TrimPrefix(srv.URL, "http://"),
		DeviceID:      "desk",
		LogFile:       filepath.Join(t.TempDir(), "missing.txt"),
		PollInterval:  10 * time.Millisecond,
		Lookup:        emptyEnv,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"POST /light/desk/turn_off"}, device.snapshot())
}

// TestRun_InvalidSettings fails fast before polling.
func TestRun_InvalidSettings(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{
		DeviceAddress: "10.0.80.21",
		DeviceID:      "a/b",
		Lookup:        emptyEnv,
	})
	require.Error(t, err)
}

// TestResolveConfig_Precedence applies file, then environment, then flags.
func TestResolveConfig_Precedence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(path, &config.Config{
		DeviceAddress: "192.168.0.10",
		DeviceID:      "from-file",
		LogFile:       "/file/logs.txt",
		PollInterval:  time.Minute,
	}))

	env := map[string]string{
		"PRESENCE_LIGHT_DEVICE_ID": "from-env",
		"PRESENCE_LIGHT_TIMEOUT":   "3",
	}

	cfg, err := resolveConfig(&Options{
		ConfigPath: path,
		LogFile:    "/flag/logs.txt",
		Lookup: func(key string) (string, bool) {
			v, ok := env[key]

			return v, ok
		},
	})
	require.NoError(t, err)

	require.Equal(t, "192.168.0.10", cfg.DeviceAddress)
	require.Equal(t, "from-env", cfg.DeviceID)
	require.Equal(t, "/flag/logs.txt", cfg.LogFile)
	require.Equal(t, time.Minute, cfg.PollInterval)
	require.Equal(t, 3*time.Second, cfg.Timeout)
	require.False(t, cfg.Debug)
}
