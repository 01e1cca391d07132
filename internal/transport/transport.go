// SPDX-License-Identifier: MIT
// Package transport publishes ensemble decisions to external consumers
// (the visual layer): websocket JSON broadcast and a UDP binary
// publisher. Implementations must be thread-safe and must never block
// the audio path.
package transport

// Transport is a generic sink for processed data or events.
type Transport interface {
	Send(data any) error
	Close() error
}
