// Package pipeline defines the per-gallery stage payloads and the pure
// transition functions between them. Nothing here performs I/O or checks
// that a transition is legal for the gallery's current registry state —
// that verification belongs to the state tracker; transitions assume they
// run on a payload already taken at the correct stage.
package pipeline
