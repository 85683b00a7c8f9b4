// Package presence runs the poll loop: read the Teams log, print the status,
// recolor the light when the status changes, and switch the light off when
// the process is asked to stop.
package presence
