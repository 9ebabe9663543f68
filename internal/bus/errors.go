package bus

import "errors"

var (
	// ErrClosed reports that the receiving module's inbox is gone.
	ErrClosed = errors.New("bus: receiver closed")
	// ErrNoReply reports that a reply never arrived before the caller
	// gave up waiting.
	ErrNoReply = errors.New("bus: no reply")
	// ErrAlreadyReplied reports a second reply attempt on a call.
	ErrAlreadyReplied = errors.New("bus: reply already sent")
)
