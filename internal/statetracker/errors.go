package statetracker

import "errors"

var (
	// ErrGalleryAlreadyExists reports a registration for a gallery that
	// already has a slot, Present or Taken.
	ErrGalleryAlreadyExists = errors.New("gallery already exists")
	// ErrGalleryNotFound reports an operation on a gallery with no slot.
	ErrGalleryNotFound = errors.New("gallery not found")
	// ErrGalleryStateTaken reports a check or take on a gallery whose
	// payload is currently leased out.
	ErrGalleryStateTaken = errors.New("gallery state is taken")
	// ErrStateMismatch reports a stage tag differing from the payload's
	// actual stage.
	ErrStateMismatch = errors.New("gallery state mismatch")
	// ErrGalleryStateNotTaken reports an update without a prior take.
	ErrGalleryStateNotTaken = errors.New("gallery state is not taken")
)
