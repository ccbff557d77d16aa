package charts

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// SymLog is a symmetric log scale: linear within ±LinThresh and logarithmic
// beyond, so zero and negative karma stay on the axis.
type SymLog struct {
	LinThresh float64
}

func (s SymLog) transform(x float64) float64 {
	c := s.LinThresh
	if c <= 0 {
		c = 1
	}
	return math.Copysign(math.Log10(1+math.Abs(x)/c), x)
}

// Normalize implements plot.Normalizer.
func (s SymLog) Normalize(min, max, x float64) float64 {
	lo, hi := s.transform(min), s.transform(max)
	if hi == lo {
		return 0.5
	}
	return (s.transform(x) - lo) / (hi - lo)
}

// SymLogTicks places major ticks at 0 and at signed powers of ten.
type SymLogTicks struct{}

// Ticks implements plot.Ticker.
func (SymLogTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	if min <= 0 && max >= 0 {
		ticks = append(ticks, plot.Tick{Value: 0, Label: "0"})
	}
	for exp := 0; exp <= 9; exp++ {
		v := math.Pow10(exp)
		if v > max && -v < min {
			break
		}
		if -v >= min && -v <= max {
			ticks = append(ticks, plot.Tick{Value: -v, Label: tickLabel(-v)})
		}
		if v >= min && v <= max {
			ticks = append(ticks, plot.Tick{Value: v, Label: tickLabel(v)})
		}
	}
	return ticks
}

func tickLabel(v float64) string {
	if math.Abs(v) < 1e4 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	exp := int(math.Round(math.Log10(math.Abs(v))))
	if v < 0 {
		return "-1e" + strconv.Itoa(exp)
	}
	return "1e" + strconv.Itoa(exp)
}
