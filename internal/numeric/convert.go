package numeric

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/jpl-au/sqlitepdo/internal/value"
)

// Safe-integer bounds: the widest integers a float64 (and so a JSON number
// read by most consumers) holds exactly.
const (
	MaxSafeInteger int64 = 1<<53 - 1
	MinSafeInteger int64 = -MaxSafeInteger
)

// ErrNotNumeric is returned when ToSafe receives something other than an
// int64 or float64.
var ErrNotNumeric = errors.New("value is not numeric")

// IsSafe reports whether n lies inside the safe-integer bounds, inclusive.
func IsSafe(n int64) bool {
	return n >= MinSafeInteger && n <= MaxSafeInteger
}

// FromInt64 returns n as an Int when it is safe, otherwise as a BigInt.
func FromInt64(n int64) value.Value {
	if IsSafe(n) {
		return value.NewInt(n)
	}
	return value.NewBigInt(big.NewInt(n))
}

// FromBig narrows n to an Int when it is safe, otherwise keeps it as a BigInt.
func FromBig(n *big.Int) value.Value {
	if n.IsInt64() && IsSafe(n.Int64()) {
		return value.NewInt(n.Int64())
	}
	return value.NewBigInt(n)
}

// ToSafe converts a raw engine number into its lossless representation.
//
// Non-integral floats and every value outside the integer family become exact
// decimal text. Integral values in the integer family become an Int when
// safe and a BigInt otherwise; integral floats are widened from their exact
// binary value, never from a rounded intermediate.
func ToSafe(raw any, integerFamily bool) (value.Value, error) {
	switch n := raw.(type) {
	case int64:
		if !integerFamily {
			return value.NewDecimal(strconv.FormatInt(n, 10)), nil
		}
		return FromInt64(n), nil
	case float64:
		if !integerFamily || !isIntegral(n) {
			return value.NewDecimal(FormatFloat(n)), nil
		}
		exact, _ := new(big.Float).SetFloat64(n).Int(nil)
		return FromBig(exact), nil
	default:
		return value.Value{}, fmt.Errorf("%w: %T", ErrNotNumeric, raw)
	}
}

// FormatFloat renders f with the fewest digits that parse back to the same
// float64, without exponent notation. Infinities render as "Infinity" and
// "-Infinity"; NaN renders as "NaN".
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func isIntegral(f float64) bool {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return false
	}
	return f == math.Trunc(f)
}
