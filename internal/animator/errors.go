// SPDX-License-Identifier: MIT
package animator

import "errors"

var (
	// ErrAcquisition wraps any failure to obtain the audio source for a new
	// audio session.
	ErrAcquisition = errors.New("audio source acquisition failed")

	// ErrCancelled is recorded on a session that was replaced or stopped
	// before it finished on its own.
	ErrCancelled = errors.New("session cancelled")
)
