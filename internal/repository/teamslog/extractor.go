package teamslog

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/oshokin/presence-light/internal/domain/presence"
	"github.com/oshokin/presence-light/internal/logger"
	"github.com/oshokin/presence-light/internal/metrics"
)

// Extractor produces the latest presence status known to the log.
type Extractor interface {
	Extract(ctx context.Context) (presence.PollResult, error)
}

// stateMarker is present on every line describing a presence transition.
const stateMarker = "(current state: "

// maxLineSize caps a single log line; Teams occasionally dumps large payloads.
// Longer lines are dropped whole and counted as malformed.
const maxLineSize = 1 << 20

var (
	// ErrLogUnavailable is returned when the log cannot be opened or read.
	ErrLogUnavailable = errors.New("teams log unavailable")
	// ErrMalformedLine is returned by ParseLine for lines that carry the
	// state marker but do not match the expected layout.
	ErrMalformedLine = errors.New("malformed state line")

	errNoTimestamp  = errors.New("no timestamp before GMT")
	errNoTransition = errors.New("no state transition")
)

var (
	// timestampPattern picks the token right before the last " GMT" preceded by four fields.
	timestampPattern = regexp.MustCompile(`^(.+) (.+) (.+) (.+) (.+) GMT`)
	// transitionPattern captures "(current state: From -> To)".
	transitionPattern = regexp.MustCompile(`\(current state: (.+?) -> ([^)]+)\)`)
)

// FileExtractor reads the log at path from the beginning on every call.
type FileExtractor struct {
	// path is the location of the Teams log file.
	path string
}

// NewFileExtractor creates an extractor for the log at path.
func NewFileExtractor(path string) *FileExtractor {
	return &FileExtractor{
		path: filepath.Clean(path),
	}
}

// Path returns the log location.
func (e *FileExtractor) Path() string {
	return e.path
}

// Extract scans the whole file and returns the latest status.
func (e *FileExtractor) Extract(ctx context.Context) (presence.PollResult, error) {
	f, err := os.Open(e.path)
	if err != nil {
		return presence.PollResult{}, fmt.Errorf("%w: %w", ErrLogUnavailable, err)
	}

	defer func() {
		_ = f.Close()
	}()

	return Scan(ctx, f)
}

// Scan walks r line by line. The timestamp follows every well-formed state
// line; the status follows only lines whose destination is not a noise tag.
// Malformed and oversized lines are skipped with a warning.
// A log with no state lines yields an empty PollResult.
func Scan(ctx context.Context, r io.Reader) (presence.PollResult, error) {
	var (
		result presence.PollResult
		reader = bufio.NewReader(r)
		lineNo int
	)

	for {
		raw, oversized, err := readLine(reader)
		if errors.Is(err, io.EOF) {
			return result, nil
		}

		if err != nil {
			return presence.PollResult{}, fmt.Errorf("%w: %w", ErrLogUnavailable, err)
		}

		lineNo++

		if oversized {
			metrics.ObserveMalformedLine()
			logger.WarnKV(ctx, "Skipping oversized line", "line", lineNo, "limit", maxLineSize)

			continue
		}

		line := string(raw)
		if !strings.Contains(line, stateMarker) {
			continue
		}

		entry, err := ParseLine(line)
		if err != nil {
			metrics.ObserveMalformedLine()
			logger.WarnKV(ctx, "Skipping state line", "line", lineNo, "error", err)

			continue
		}

		result.Timestamp = entry.Timestamp

		if status, ok := presence.Normalize(string(entry.To)); ok {
			result.Status = status
		}

		logger.DebugKV(ctx, "State line",
			"line", lineNo,
			"found_date", entry.Timestamp,
			"found_status", entry.To,
			"set_status", result.Status,
		)
	}
}

// readLine returns the next line without its terminator. A line longer than
// maxLineSize is consumed to its end and reported as oversized with no content.
// io.EOF is returned only when nothing is left to read.
func readLine(reader *bufio.Reader) ([]byte, bool, error) {
	var (
		line      []byte
		oversized bool
	)

	for {
		chunk, err := reader.ReadSlice('\n')

		if !oversized {
			if len(line)+len(chunk) > maxLineSize {
				oversized = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case err == nil:
			return trimLineEnd(line), oversized, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(line) == 0 && !oversized {
				return nil, false, io.EOF
			}

			return trimLineEnd(line), oversized, nil
		default:
			return nil, false, err
		}
	}
}

func trimLineEnd(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))

	return bytes.TrimSuffix(line, []byte("\r"))
}

// ParseLine extracts the timestamp and the transition from a state line.
func ParseLine(line string) (presence.LogEntry, error) {
	ts := timestampPattern.FindStringSubmatch(line)
	if ts == nil {
		return presence.LogEntry{}, fmt.Errorf("%w: %w", ErrMalformedLine, errNoTimestamp)
	}

	tr := transitionPattern.FindStringSubmatch(line)
	if tr == nil {
		return presence.LogEntry{}, fmt.Errorf("%w: %w", ErrMalformedLine, errNoTransition)
	}

	return presence.LogEntry{
		Timestamp: ts[5],
		From:      presence.Status(strings.TrimSpace(tr[1])),
		To:        presence.Status(strings.TrimSpace(tr[2])),
	}, nil
}
