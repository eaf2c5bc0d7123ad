package parameter

import (
	"strconv"
	"strings"
)

// Check tests a raw value
type Check func(value string) bool

func number(value string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return v, err == nil
}

// Range accepts numbers in [min, max]. The bounds may be given in either order.
func Range(min, max float64) Check {
	if min > max {
		min, max = max, min
	}
	return func(value string) bool {
		v, ok := number(value)
		return ok && v >= min && v <= max
	}
}

// LowerThan accepts numbers strictly below threshold
func LowerThan(threshold float64) Check {
	return func(value string) bool {
		v, ok := number(value)
		return ok && v < threshold
	}
}

// GreaterThan accepts numbers strictly above threshold
func GreaterThan(threshold float64) Check {
	return func(value string) bool {
		v, ok := number(value)
		return ok && v > threshold
	}
}

// Equals accepts exactly want
func Equals(want string) Check {
	return func(value string) bool { return value == want }
}
