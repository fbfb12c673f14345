package engine

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Summary is a display form of a large value.
type Summary struct {
	// Full is the complete decimal text when it fits, empty otherwise.
	Full string
	// Head and Tail are the leading and trailing digits when Full is empty.
	Head string
	Tail string
	// Digits is the decimal length of the value.
	Digits int
}

// Summarize describes v in at most maxDigits characters of digits. Values
// that do not fit are reduced to their leading and trailing maxDigits/2
// digits, so the full decimal conversion is skipped for huge values.
func Summarize(v *big.Int, maxDigits int) Summary {
	if maxDigits < 2 {
		maxDigits = 2
	}
	if v.Sign() == 0 {
		return Summary{Full: "0", Digits: 1}
	}

	a := new(big.Int).Abs(v)
	upper := int(float64(a.BitLen())*math.Log10(2)) + 1
	if upper <= maxDigits {
		s := a.Text(10)
		return Summary{Full: s, Digits: len(s)}
	}

	half := maxDigits / 2
	head, digits := leadingDigits(a, half)
	return Summary{
		Head:   head,
		Tail:   trailingDigits(a, half),
		Digits: digits,
	}
}

// leadingDigits returns the first n decimal digits of a and its decimal length.
func leadingDigits(a *big.Int, n int) (string, int) {
	prec := uint(a.BitLen())
	if max := uint(64 + 4*n); prec > max {
		prec = max
	}
	f := new(big.Float).SetPrec(prec).SetInt(a)
	// Extra digits keep rounding away from the ones we keep.
	s := f.Text('e', n+4)

	mant, exp, ok := strings.Cut(s, "e")
	if !ok {
		return "", 0
	}
	e, err := strconv.Atoi(exp)
	if err != nil {
		return "", 0
	}
	mant = strings.Replace(mant, ".", "", 1)
	if len(mant) > n {
		mant = mant[:n]
	}
	return mant, e + 1
}

func trailingDigits(a *big.Int, n int) string {
	m := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	t := new(big.Int).Mod(a, m).Text(10)
	if len(t) < n {
		t = strings.Repeat("0", n-len(t)) + t
	}
	return t
}
