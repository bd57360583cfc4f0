// SPDX-License-Identifier: EPL-2.0

package flac

import "errors"

var (
	// ErrNotFlacFile indicates the stream has no valid FLAC signature or STREAMINFO
	ErrNotFlacFile = errors.New("not a FLAC file")

	// ErrChannelMismatch indicates a frame whose subframe count differs from STREAMINFO
	ErrChannelMismatch = errors.New("FLAC frame channel count mismatch")
)
