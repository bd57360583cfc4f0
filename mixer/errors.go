// SPDX-License-Identifier: EPL-2.0

package mixer

import "errors"

var (
	ErrInvalidChannels = errors.New("mixer channel count must be positive")
	ErrChannelMismatch = errors.New("voice channel count does not match mixer")
	ErrNoSource        = errors.New("voice has no source")
)
