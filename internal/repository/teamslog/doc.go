// Package teamslog extracts the latest presence status from the Teams log.
//
// The FileExtractor rescans the whole file on every call and exposes an
// Extractor interface that the presence controller depends on, so the
// parsing strategy can change without touching the controller.
package teamslog
