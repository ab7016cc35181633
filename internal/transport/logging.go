// SPDX-License-Identifier: MIT
package transport

import (
	applog "lipsync/internal/log"
	"lipsync/internal/viseme"
)

// LoggingTransport implements the Transport interface by logging data at
// debug level.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received data.
func (lt *LoggingTransport) Send(data any) error {
	switch ev := data.(type) {
	case viseme.Event:
		applog.Debugf("LoggingTransport: #%d %s at %d", ev.Seq, ev.Viseme, ev.Timestamp)
	default:
		applog.Debugf("LoggingTransport: Received (%T): %+v", data, data)
	}
	return nil // Logging transport never fails to "send"
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("LoggingTransport: Close called.")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
