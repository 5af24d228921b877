package conv

import (
	"fmt"
	"math"
)

// IntToInt32 converts int to int32 safely.
func IntToInt32(v int) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int32", v)
	}
	return int32(v), nil
}

// NonNegativeInt32 converts a length or count to int32, rejecting negatives.
func NonNegativeInt32(v int) (int32, error) {
	if v < 0 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int32 (negative)", v)
	}
	return IntToInt32(v)
}

// Int32ToLen converts a decoded int32 length to int, rejecting negatives.
func Int32ToLen(v int32) (int, error) {
	if v < 0 {
		return 0, fmt.Errorf("invalid length: %d is negative", v)
	}
	return int(v), nil
}

// IntToUint32 converts int to uint32 safely.
func IntToUint32(v int) (uint32, error) {
	if v < 0 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint32 (negative)", v)
	}
	if uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint32 (too large)", v)
	}
	return uint32(v), nil
}

// Uint64ToInt converts uint64 to int safely.
func Uint64ToInt(v uint64) (int, error) {
	if v > uint64(math.MaxInt) {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int (too large)", v)
	}
	return int(v), nil
}
