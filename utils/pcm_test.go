// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestIntToFloat32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    int
		bitDepth int
		want     float32
	}{
		{name: "zero", input: 0, bitDepth: 16, want: 0},
		{name: "16-bit min", input: math.MinInt16, bitDepth: 16, want: -1},
		{name: "16-bit half", input: 16384, bitDepth: 16, want: 0.5},
		{name: "8-bit min", input: -128, bitDepth: 8, want: -1},
		{name: "8-bit quarter", input: 32, bitDepth: 8, want: 0.25},
		{name: "24-bit half", input: 1 << 22, bitDepth: 24, want: 0.5},
		{name: "32-bit min", input: math.MinInt32, bitDepth: 32, want: -1},
		{name: "zero depth falls back to 16", input: -32768, bitDepth: 0, want: -1},
		{name: "oversized depth falls back to 16", input: 16384, bitDepth: 48, want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IntToFloat32(tt.input, tt.bitDepth); got != tt.want {
				t.Errorf("IntToFloat32(%d, %d) = %v, want %v", tt.input, tt.bitDepth, got, tt.want)
			}
		})
	}
}

func TestIntToFloat32_BelowOne(t *testing.T) {
	t.Parallel()

	for _, depth := range []int{8, 16, 24} {
		top := 1<<(depth-1) - 1
		if got := IntToFloat32(top, depth); got >= 1 || got <= 0.99 {
			t.Errorf("IntToFloat32(%d, %d) = %v, want just below 1", top, depth, got)
		}
	}
}

func TestFloat32ToInt16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input float32
		want  int16
	}{
		{"zero", 0, 0},
		{"full scale", 1, math.MaxInt16},
		{"negative full scale", -1, -math.MaxInt16},
		{"half", 0.5, 16383},
		{"negative half", -0.5, -16383},
		{"small", 0.001, 32},
		{"over", 1.5, math.MaxInt16},
		{"under", -100, -math.MaxInt16},
		{"+Inf", float32(math.Inf(1)), math.MaxInt16},
		{"NaN", float32(math.NaN()), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Float32ToInt16(tt.input); got != tt.want {
				t.Errorf("Float32ToInt16(%v) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestAppendInt16(t *testing.T) {
	t.Parallel()

	dst := []int16{7}
	dst = AppendInt16(dst, []float32{1, -1, 0.5})
	dst = AppendInt16(dst, nil)

	want := []int16{7, 32767, -32767, 16383}
	if len(dst) != len(want) {
		t.Fatalf("len = %d, want %d", len(dst), len(want))
	}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], want[i])
		}
	}
}

func BenchmarkAppendInt16(b *testing.B) {
	src := make([]float32, 2048)
	for i := range src {
		src[i] = float32(i%200-100) / 100
	}
	dst := make([]int16, 0, len(src))

	b.ReportAllocs()
	for b.Loop() {
		dst = AppendInt16(dst[:0], src)
	}
}
