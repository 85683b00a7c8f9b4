// Package presence contains the core domain types: the Teams presence
// Status, the color Band it maps to, and the Session holding the last status
// acted upon.
package presence
