package gorod

import (
	"math"
	"strconv"
	"strings"
)

// readings are only meaningful to two decimal places
const compareTolerance = 0.01

func normalizeValue(v string) string {
	return strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
}

// CompareValues reports whether two displayed reading values are the
// same. The portal renders decimals with either a comma or a point
// depending on locale, so both operands are normalized before a numeric
// compare with a 0.01 tolerance. Non-numeric values fall back to exact
// string equality of the normalized forms.
func CompareValues(a, b string) bool {
	na := normalizeValue(a)
	nb := normalizeValue(b)

	fa, errA := strconv.ParseFloat(na, 64)
	fb, errB := strconv.ParseFloat(nb, 64)
	if errA != nil || errB != nil {
		return na == nb
	}

	return math.Abs(fa-fb) < compareTolerance
}
