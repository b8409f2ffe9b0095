package types

import (
	"math"
	"math/big"

	"github.com/xaionaro-go/ave/pkg/frame"
)

const (
	// TimeBase is the number of container time units in a second.
	TimeBase = 1000000

	// NoPTS marks an undefined timestamp.
	NoPTS = int64(math.MinInt64)
)

var TimeBaseQ = frame.NewRational(1, TimeBase)

// RescaleQ converts ts from timebase "from" to timebase "to",
// rounding to the nearest value (halfway cases away from zero).
func RescaleQ(ts int64, from, to frame.Rational) int64 {
	if ts == NoPTS {
		return NoPTS
	}
	if from.Den == 0 || to.Num == 0 {
		return 0
	}

	num := big.NewInt(ts)
	num.Mul(num, big.NewInt(int64(from.Num)))
	num.Mul(num, big.NewInt(int64(to.Den)))
	den := big.NewInt(int64(from.Den))
	den.Mul(den, big.NewInt(int64(to.Num)))
	if den.Sign() < 0 {
		num.Neg(num)
		den.Neg(den)
	}

	half := new(big.Int).Quo(den, big.NewInt(2))
	if num.Sign() >= 0 {
		num.Add(num, half)
	} else {
		num.Sub(num, half)
	}
	result := num.Quo(num, den)
	if !result.IsInt64() {
		if result.Sign() < 0 {
			return math.MinInt64 + 1
		}
		return math.MaxInt64
	}
	return result.Int64()
}

// BestEffortTimestamp picks the presentation timestamp of a decoded frame,
// falling back to the DTS of the packet it came from.
func BestEffortTimestamp(pts, pktDts int64) int64 {
	if pts != NoPTS {
		return pts
	}
	return pktDts
}
