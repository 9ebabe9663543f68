// Package api defines the wire DTOs shared by the daemon's HTTP API and
// the CLI's IPC surface, plus conversions from the internal domain
// types.
package api
