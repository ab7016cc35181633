// SPDX-License-Identifier: MIT
package viseme

// Event is the wire form of one label change, as sent to remote renderers.
type Event struct {
	Viseme    Label  `json:"viseme"`
	Seq       uint64 `json:"seq"`
	Timestamp int64  `json:"timestamp"`         // Unix milliseconds.
	Session   string `json:"session,omitempty"` // Id of the session that produced the change, empty after a stop.
}
