// Package daemon wires the pipeline together: it runs the state
// tracker, scheduler, and stage workers, enforces single-instance
// execution, replays persisted registrations at startup, sweeps stale
// leases, and serves the HTTP API.
package daemon
