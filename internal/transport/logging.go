// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"

	"notetrack/internal/log"
	"notetrack/internal/segment"
)

// LoggingTransport writes every payload to the application log. Note events
// get one line each; anything else is logged as JSON at debug level.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	log.Debugf("Transport: using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received data.
func (lt *LoggingTransport) Send(data any) error {
	if src, ok := data.(interface{ NoteEvents() []segment.NoteEvent }); ok {
		for _, e := range src.NoteEvents() {
			log.Infof("Transport: %s", e)
		}
		return nil
	}
	if log.GetLevel() > log.LevelDebug {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		log.Debugf("Transport: received (%T): %+v", data, data)
		return nil
	}
	log.Debugf("Transport: received (%T): %s", data, b)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
