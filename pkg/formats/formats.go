// Package formats provides parsers for Aurora-engine binary asset formats.
package formats

import "bytes"

// fixedString extracts a fixed-width, null-padded ASCII string.
func fixedString(data []byte) string {
	if idx := bytes.IndexByte(data, 0); idx >= 0 {
		return string(data[:idx])
	}
	return string(data)
}

// clampF32 clamps v to [min, max].
func clampF32(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// clampU16 clamps v to [min, max].
func clampU16(v, min, max uint16) uint16 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
