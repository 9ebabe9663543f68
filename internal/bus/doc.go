// Package bus provides the typed message-passing primitives every
// pipeline module communicates through: buffered many-senders/one-receiver
// pipes for module inboxes, and single-use request/reply calls layered on
// top of them.
//
// Transport failures (receiver gone, reply never produced) surface as
// ErrClosed and ErrNoReply and are kept distinct from the domain errors a
// module returns inside a reply.
package bus
