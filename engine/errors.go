// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	// ErrDevice means the output stream could not be opened or closed.
	ErrDevice = errors.New("audio device error")
	// ErrDecode means a file could not be opened or decoded. Other voices
	// are unaffected.
	ErrDecode = errors.New("decode error")
	// ErrInvalidHandle is returned for released, stale or unknown handles.
	ErrInvalidHandle  = errors.New("invalid voice handle")
	ErrNotInitialized = errors.New("engine is not initialized")
)
