// Package config loads, validates, and normalizes the TOML configuration for
// the fieldsync daemon and CLI.
package config
