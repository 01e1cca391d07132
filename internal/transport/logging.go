// SPDX-License-Identifier: MIT
package transport

import "emberlight/internal/log"

// LoggingTransport logs payloads at debug level. Used as the default
// sink when no network transport is configured.
type LoggingTransport struct{}

// NewLoggingTransport returns a logging transport.
func NewLoggingTransport() *LoggingTransport {
	return &LoggingTransport{}
}

// Send logs the payload; it never fails.
func (lt *LoggingTransport) Send(data any) error {
	log.Debugf("transport: %+v", data)
	return nil
}

// Close is a no-op.
func (lt *LoggingTransport) Close() error { return nil }

var _ Transport = (*LoggingTransport)(nil)
