package presence

// Band is the color class a status is shown as.
type Band int

// Bands, ordered from free to occupied.
const (
	BandGreen Band = iota
	BandYellow
	BandRed
)

// Classify maps every status, including StatusNone, onto exactly one band.
func Classify(s Status) Band {
	switch s {
	case StatusBusy, StatusDoNotDisturb, StatusInAMeeting, StatusPresenting, StatusOnThePhone:
		return BandRed
	case StatusAway, StatusBeRightBack:
		return BandYellow
	default:
		return BandGreen
	}
}

// String returns the upper-case band name used in console output.
func (b Band) String() string {
	switch b {
	case BandRed:
		return "RED"
	case BandYellow:
		return "YELLOW"
	default:
		return "GREEN"
	}
}

// Color is an RGB value plus brightness, each 0-255.
type Color struct {
	Red        uint8
	Green      uint8
	Blue       uint8
	Brightness uint8
}

// Color returns the light color for the band.
func (b Band) Color() Color {
	switch b {
	case BandRed:
		return Color{Red: 255, Green: 0, Blue: 0, Brightness: 255}
	case BandYellow:
		return Color{Red: 255, Green: 170, Blue: 0, Brightness: 255}
	default:
		return Color{Red: 0, Green: 255, Blue: 0, Brightness: 255}
	}
}
