// Package convert provides bounds-checked integer conversions.
package convert

import "fmt"

// IntToUint converts v to uint, returning an error if it is negative.
func IntToUint(v int) (uint, error) {
	if v < 0 {
		return 0, fmt.Errorf("cannot convert negative int to uint: %d", v)
	}
	return uint(v), nil
}

// UintClamped converts v to uint, clamping it into [0, ceiling].
func UintClamped(v int, ceiling uint) uint {
	u, err := IntToUint(v)
	if err != nil {
		return 0
	}
	return min(u, ceiling)
}
