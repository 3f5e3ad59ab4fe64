package math

import "math"

// Angle constants in float32.
const (
	Pi    float32 = math.Pi
	TwoPi float32 = 2 * math.Pi
)

// ParallelEpsilon is the |perp dot| below which two directions count as parallel.
const ParallelEpsilon = 1e-6

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Abs returns |x|.
func Abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// Sqrt returns the square root of x.
func Sqrt(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// Sin returns the sine of x.
func Sin(x float32) float32 {
	return float32(math.Sin(float64(x)))
}

// NormalizeAngle maps a into (-Pi, Pi].
func NormalizeAngle(a float32) float32 {
	r := float32(math.Mod(float64(a), 2*math.Pi))
	if r <= -Pi {
		r += TwoPi
	} else if r > Pi {
		r -= TwoPi
	}
	return r
}

// PositiveAngle maps a into [0, 2Pi).
func PositiveAngle(a float32) float32 {
	r := float32(math.Mod(float64(a), 2*math.Pi))
	if r < 0 {
		r += TwoPi
	}
	if r >= TwoPi {
		r -= TwoPi
	}
	return r
}

// Min returns the smaller of a and b.
func Min(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
