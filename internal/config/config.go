package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the device, log and scheduling settings.
type Config struct {
	// DeviceAddress is the host (optionally host:port) of the light controller.
	DeviceAddress string `yaml:"device_address"`
	// DeviceID is the logical light identifier in the controller's URL space.
	DeviceID string `yaml:"device_id"`
	// LogFile is the Teams log scanned on every poll.
	LogFile string `yaml:"log_file"`
	// PollInterval is the pause between two polls.
	PollInterval time.Duration `yaml:"poll_interval"`
	// Timeout bounds every request sent to the light.
	Timeout time.Duration `yaml:"timeout"`
	// MetricsAddress enables the Prometheus listener when not empty.
	MetricsAddress string `yaml:"metrics_address,omitempty"`
	// LogLevel is the diagnostic log level name.
	LogLevel string `yaml:"log_level,omitempty"`
	// Debug runs a single poll and exits.
	Debug bool `yaml:"debug,omitempty"`
}

const (
	// DefaultConfigFilename is looked up in the working directory when no path is given.
	DefaultConfigFilename = "presence-light.yaml"

	// DefaultDeviceAddress is the light controller used when nothing is configured.
	DefaultDeviceAddress = "10.0.80.21"

	// DefaultDeviceID is the light identifier used when nothing is configured.
	DefaultDeviceID = "living_room_1"

	// DefaultPollInterval is the pause between polls.
	DefaultPollInterval = 30 * time.Second

	// DefaultTimeout bounds each request to the light.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is used when saving settings.
	DefaultFilePermissions = 0o600

	// envPrefix prefixes every environment override.
	envPrefix = "PRESENCE_LIGHT_"
)

var (
	errConfigIsNotSet        = errors.New("configuration is not set")
	errDeviceAddressRequired = errors.New("device address must be provided")
	errDeviceIDRequired      = errors.New("device id must be provided")
	errInvalidDeviceID       = errors.New("device id must not contain '/'")
	errInvalidDeviceAddress  = errors.New("device address must be host or host:port")
	errNegativeDuration      = errors.New("duration must not be negative")
)

// Default returns settings populated with built-in defaults.
func Default() *Config {
	return &Config{
		DeviceAddress: DefaultDeviceAddress,
		DeviceID:      DefaultDeviceID,
		LogFile:       DefaultLogFile(),
		PollInterval:  DefaultPollInterval,
		Timeout:       DefaultTimeout,
	}
}

// DefaultLogFile returns the Teams log location of the current user.
// Teams keeps it under %APPDATA% on Windows; elsewhere the user config
// directory stands in for it.
func DefaultLogFile() string {
	base := os.Getenv("APPDATA")
	if base == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			base = dir
		}
	}

	return filepath.Join(base, "Microsoft", "Teams", "logs.txt")
}

// Load reads settings from path on top of the defaults.
// An empty path means DefaultConfigFilename, which may be absent.
// The result is not validated; call Validate after applying overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	optional := path == ""
	if optional {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	return cfg, nil
}

// Save validates cfg and writes it to path as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// ApplyEnv overlays PRESENCE_LIGHT_* variables found through lookup.
// Intervals accept either a Go duration ("45s") or plain seconds ("45").
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if lookup == nil {
		lookup = os.LookupEnv
	}

	get := func(key string) (string, bool) {
		v, ok := lookup(envPrefix + key)
		v = strings.TrimSpace(v)

		return v, ok && v != ""
	}

	if v, ok := get("DEVICE_ADDRESS"); ok {
		cfg.DeviceAddress = v
	}

	if v, ok := get("DEVICE_ID"); ok {
		cfg.DeviceID = v
	}

	if v, ok := get("LOG_FILE"); ok {
		cfg.LogFile = v
	}

	if v, ok := get("METRICS_ADDRESS"); ok {
		cfg.MetricsAddress = v
	}

	if v, ok := get("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}

	if v, ok := get("POLL_INTERVAL"); ok {
		d, err := ParseSeconds(v)
		if err != nil {
			return fmt.Errorf("%sPOLL_INTERVAL: %w", envPrefix, err)
		}

		cfg.PollInterval = d
	}

	if v, ok := get("TIMEOUT"); ok {
		d, err := ParseSeconds(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", envPrefix, err)
		}

		cfg.Timeout = d
	}

	if v, ok := get("DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sDEBUG: %w", envPrefix, err)
		}

		cfg.Debug = b
	}

	return nil
}

// ParseSeconds parses a Go duration or a bare number of seconds.
func ParseSeconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}

	return d, nil
}

// Validate checks required fields and fills zero durations with defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.DeviceAddress == "" {
		return errDeviceAddressRequired
	}

	u, err := url.Parse("http://" + cfg.DeviceAddress)
	if err != nil {
		return fmt.Errorf("invalid device address: %w", err)
	}

	if u.Host == "" || u.Path != "" || u.RawQuery != "" || u.User != nil {
		return fmt.Errorf("%w: %q", errInvalidDeviceAddress, cfg.DeviceAddress)
	}

	if cfg.DeviceID == "" {
		return errDeviceIDRequired
	}

	if strings.Contains(cfg.DeviceID, "/") {
		return errInvalidDeviceID
	}

	if cfg.PollInterval < 0 || cfg.Timeout < 0 {
		return errNegativeDuration
	}

	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogFile()
	}

	return nil
}
