// Package network defines the minimal broadcast-channel capability the node
// driver loop needs over any transport: blocking/timed receive, non-blocking
// consume, and fire-and-forget send to every other peer.
package network

import "time"

// Network is a typed broadcast channel. Implementations must guarantee that
// Send never delivers a message back to its own caller.
type Network[T any] interface {
	// AwaitEvents blocks until at least one message is available to Recv, or
	// until timeout elapses. A nil timeout blocks indefinitely.
	AwaitEvents(timeout *time.Duration)

	// Recv consumes the next buffered message, if any. It never blocks; a
	// message latched by a prior AwaitEvents call is returned here.
	Recv() (T, bool)

	// Send broadcasts msg to every other peer.
	Send(msg T)
}
