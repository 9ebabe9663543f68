// Package storage persists gallery registrations in SQLite so the
// daemon can rebuild the tracker and scheduler after a restart. Stage
// payloads in flight are deliberately not persisted; a restart begins
// every gallery from its registration.
package storage
