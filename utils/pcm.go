// SPDX-License-Identifier: EPL-2.0

// Package utils holds the sample-level arithmetic shared by the decoders,
// the resampler and the file writers.
package utils

// IntToFloat32 scales a signed integer PCM sample of the given bit depth
// to [-1, 1). Depths outside 1..32 are treated as 16-bit.
func IntToFloat32(v int, bitDepth int) float32 {
	if bitDepth < 1 || bitDepth > 32 {
		bitDepth = 16
	}

	maxVal := float32(int64(1) << (bitDepth - 1))
	return float32(v) / maxVal
}

// Float32ToInt16 clamps x to [-1, 1] and scales it by 32767, so both
// extremes map symmetrically. NaN maps to 0.
func Float32ToInt16(x float32) int16 {
	switch {
	case x != x:
		return 0
	case x > 1:
		x = 1
	case x < -1:
		x = -1
	}

	return int16(x * 32767)
}

// AppendInt16 converts src with Float32ToInt16 and appends it to dst.
func AppendInt16(dst []int16, src []float32) []int16 {
	dst = append(dst, make([]int16, len(src))...)
	out := dst[len(dst)-len(src):]
	for i, x := range src {
		out[i] = Float32ToInt16(x)
	}

	return dst
}
