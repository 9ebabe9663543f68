// Package main hosts the Galleria CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC
// calls against the daemon: gallery registration and maintenance, status
// and health reporting, and configuration scaffolding. It centralizes
// configuration resolution and socket discovery so subcommands can focus
// on user experience instead of wiring.
package main
