// SPDX-License-Identifier: MIT
package transport

import (
	"time"

	applog "lipsync/internal/log"
	"lipsync/internal/viseme"
)

// EventRenderer turns label changes into sequenced viseme.Event values and
// hands them to a Transport. It is driven from the animation thread.
type EventRenderer struct {
	transport Transport
	session   func() string
	now       func() time.Time
	seq       uint64
}

// NewEventRenderer wraps t. session, if non-nil, stamps each event with the
// active session's id.
func NewEventRenderer(t Transport, session func() string) *EventRenderer {
	return &EventRenderer{
		transport: t,
		session:   session,
		now:       time.Now,
	}
}

// RenderViseme sends one event. Send failures are logged, never returned:
// a slow client must not stall the animation.
func (r *EventRenderer) RenderViseme(label viseme.Label) {
	r.seq++
	ev := viseme.Event{
		Viseme:    label,
		Seq:       r.seq,
		Timestamp: r.now().UnixMilli(),
	}
	if r.session != nil {
		ev.Session = r.session()
	}
	if err := r.transport.Send(ev); err != nil {
		applog.Warnf("EventRenderer: send failed for event %d: %v", ev.Seq, err)
	}
}
