package presence

// Session remembers the status last acted upon for the life of the process.
// The zero value starts at StatusNone.
type Session struct {
	previous Status
}

// Previous returns the status last stored.
func (s *Session) Previous() Status {
	return s.previous
}

// Changed reports whether next differs from the stored status.
func (s *Session) Changed(next Status) bool {
	return next != s.previous
}

// Observe stores next and reports whether it differed from the previous value.
// Noise tags and unrecognized values are stored as StatusNone.
func (s *Session) Observe(next Status) bool {
	if !next.IsCanonical() {
		next = StatusNone
	}

	changed := next != s.previous
	s.previous = next

	return changed
}
