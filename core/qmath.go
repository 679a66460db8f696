package core

// Fixed-point helpers for the motion profile generator
// All motion quantities are signed Q format with FractBits fractional bits

// FractBits is the number of fractional bits in the Q-format motion
// quantities (position, velocity, acceleration)
const FractBits = 15

// fractMask keeps only the fractional part of a Q-format position
const fractMask = (int64(1) << FractBits) - 1

// isqrt64 computes the integer square root of v (largest r with r*r <= v)
// Bit-by-bit method so the sample interrupt never touches floating point
func isqrt64(v uint64) uint32 {
	var r uint64
	// Highest power-of-four at or below v
	bit := uint64(1) << 62
	for bit > v {
		bit >>= 2
	}

	for bit != 0 {
		if v >= r+bit {
			v -= r + bit
			r = (r >> 1) + bit
		} else {
			r >>= 1
		}
		bit >>= 2
	}
	return uint32(r)
}

// clipInt32 saturates a 64-bit intermediate to the int32 range
func clipInt32(v int64) int32 {
	if v > int64(int32max) {
		return int32max
	}
	if v < int64(int32min) {
		return int32min
	}
	return int32(v)
}

const (
	int32max = int32(^uint32(0) >> 1)
	int32min = -int32max - 1
)
