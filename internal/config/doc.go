// Package config loads, validates, and normalizes galleria's TOML
// configuration. Values resolve in order: file, environment fallbacks
// for secrets, then repository defaults.
package config
