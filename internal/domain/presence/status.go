package presence

// Status is a presence tag as written by Teams into its log.
type Status string

// StatusNone is the "no status" sentinel used before anything is known
// and for destinations we do not recognize.
const StatusNone Status = ""

// Canonical statuses.
const (
	StatusAvailable    Status = "Available"
	StatusBusy         Status = "Busy"
	StatusDoNotDisturb Status = "DoNotDisturb"
	StatusInAMeeting   Status = "InAMeeting"
	StatusPresenting   Status = "Presenting"
	StatusOnThePhone   Status = "OnThePhone"
	StatusAway         Status = "Away"
	StatusBeRightBack  Status = "BeRightBack"
)

// Noise tags. Teams emits them transiently; they never replace a real status.
const (
	StatusNewActivity     Status = "NewActivity"
	StatusConnectionError Status = "ConnectionError"
	StatusUnknown         Status = "Unknown"
)

// CanonicalStatuses lists every status a session may hold, besides StatusNone.
func CanonicalStatuses() []Status {
	return []Status{
		StatusAvailable,
		StatusBusy,
		StatusDoNotDisturb,
		StatusInAMeeting,
		StatusPresenting,
		StatusOnThePhone,
		StatusAway,
		StatusBeRightBack,
	}
}

// IsNoise reports whether s is one of the transient tags.
func (s Status) IsNoise() bool {
	switch s {
	case StatusNewActivity, StatusConnectionError, StatusUnknown:
		return true
	default:
		return false
	}
}

// IsCanonical reports whether s is one of the eight real presence values.
func (s Status) IsCanonical() bool {
	switch s {
	case StatusAvailable, StatusBusy, StatusDoNotDisturb, StatusInAMeeting,
		StatusPresenting, StatusOnThePhone, StatusAway, StatusBeRightBack:
		return true
	default:
		return false
	}
}

// Normalize maps a raw log value onto a Status.
// Noise tags return false and must be ignored by the caller.
// Anything unrecognized collapses to StatusNone.
func Normalize(raw string) (Status, bool) {
	s := Status(raw)

	switch {
	case s.IsNoise():
		return StatusNone, false
	case s.IsCanonical():
		return s, true
	default:
		return StatusNone, true
	}
}

// LogEntry is one state-transition line of the Teams log.
type LogEntry struct {
	// Timestamp is the wall-clock token as Teams wrote it, e.g. "10:15:00".
	Timestamp string
	// From is the raw status the transition started from.
	From Status
	// To is the raw destination status, possibly a noise tag.
	To Status
}

// PollResult is the outcome of one extraction pass.
type PollResult struct {
	// Status is the last non-noise status seen.
	Status Status
	// Timestamp belongs to the last transition line seen, noise or not.
	Timestamp string
}
