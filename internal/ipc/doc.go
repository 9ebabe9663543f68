// Package ipc exposes daemon control over a Unix domain socket using
// JSON-RPC. The galleria CLI is the primary consumer.
package ipc
