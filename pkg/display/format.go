package display

import (
	"math"
	"strconv"
	"strings"

	"rpncalc/core-go/pkg/runtime"
)

// Digits is the number of significant digits shown for reals.
const Digits = 12

// FormatReal renders x with up to Digits significant digits and an
// upper-case exponent, e.g. "1.41421356237" or "-2.5E-12".
func FormatReal(x float64) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Inf"
	case math.IsInf(x, -1):
		return "-Inf"
	}
	s := strconv.FormatFloat(x, 'g', Digits, 64)
	if i := strings.IndexByte(s, 'e'); i >= 0 {
		mant, exp := s[:i], s[i+1:]
		exp = strings.TrimPrefix(exp, "+")
		neg := strings.HasPrefix(exp, "-")
		exp = strings.TrimLeft(strings.TrimPrefix(exp, "-"), "0")
		if neg {
			exp = "-" + exp
		}
		return mant + "E" + exp
	}
	return s
}

// FormatValue renders any value for a stack or variable listing.
func FormatValue(v runtime.Value) string {
	switch val := v.(type) {
	case nil:
		return "<empty>"
	case runtime.RealValue:
		return FormatReal(val.Val)
	case runtime.ComplexValue:
		if val.Im < 0 {
			return FormatReal(val.Re) + " -i" + FormatReal(-val.Im)
		}
		return FormatReal(val.Re) + " i" + FormatReal(val.Im)
	case runtime.StringValue:
		return `"` + val.String() + `"`
	case *runtime.RealMatrixValue:
		return "[ " + strconv.Itoa(val.Rows) + "x" + strconv.Itoa(val.Cols) + " Matrix ]"
	case *runtime.ComplexMatrixValue:
		return "[ " + strconv.Itoa(val.Rows) + "x" + strconv.Itoa(val.Cols) + " Cpx Matrix ]"
	case *runtime.ListValue:
		return "{ " + strconv.Itoa(len(val.Items)) + "-Elem List }"
	default:
		return "?"
	}
}
