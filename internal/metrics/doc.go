// Package metrics defines the Prometheus collectors of presence-light and an
// optional HTTP listener exposing them.
package metrics
