// Package statetracker is the single authoritative registry of which
// pipeline stage each gallery is in, and whether any task currently owns
// its payload. All mutation funnels through one message-processing loop;
// the actor boundary is the lock. Exclusive access to a payload is
// granted as a lease: TakeGalleryState moves the payload out to the
// caller and leaves a Taken marker, UpdateGalleryState hands it back.
package statetracker
