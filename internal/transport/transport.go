// SPDX-License-Identifier: MIT
//
// Package transport publishes analysis results to the visualisation side.
package transport

// Transport defines a generic interface for sending reports or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}
