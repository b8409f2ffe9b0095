package frame

import (
	"fmt"
	"math"
	"math/big"
	"time"
)

// Rational is a scale factor converting tick counts to seconds (a timebase).
type Rational struct {
	Num int
	Den int
}

func NewRational(num, den int) Rational {
	return Rational{Num: num, Den: den}
}

func (r Rational) IsZero() bool {
	return r.Num == 0 || r.Den == 0
}

func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// ToDuration converts a timestamp expressed in ticks of this timebase
// into a wall-clock duration, rounded to the nearest nanosecond.
func (r Rational) ToDuration(ts int64) time.Duration {
	return time.Duration(r.mulDiv(ts, int64(time.Second), true))
}

// Seconds returns the number of whole seconds in ts ticks of this
// timebase (truncated toward zero).
func (r Rational) Seconds(ts int64) int64 {
	return r.mulDiv(ts, 1, false)
}

// mulDiv computes ts*Num*unit/Den exactly, saturating at the int64 range.
func (r Rational) mulDiv(ts int64, unit int64, round bool) int64 {
	if r.Den == 0 {
		return 0
	}
	num := big.NewInt(ts)
	num.Mul(num, big.NewInt(int64(r.Num)))
	num.Mul(num, big.NewInt(unit))
	den := big.NewInt(int64(r.Den))
	if den.Sign() < 0 {
		num.Neg(num)
		den.Neg(den)
	}
	if round {
		half := new(big.Int).Quo(den, big.NewInt(2))
		if num.Sign() >= 0 {
			num.Add(num, half)
		} else {
			num.Sub(num, half)
		}
	}
	result := num.Quo(num, den)
	if !result.IsInt64() {
		if result.Sign() < 0 {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return result.Int64()
}
