// Package config defines the runtime settings of presence-light and helpers
// to load them from YAML, overlay environment variables, validate and save.
package config
