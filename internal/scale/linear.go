package scale

import (
	"math"
	"strconv"
)

// Linear maps a numeric domain linearly onto a pixel range.
type Linear struct {
	d0, d1 float64
	r0, r1 float64
}

// NewLinear creates a linear scale mapping [d0, d1] onto [r0, r1].
func NewLinear(d0, d1, r0, r1 float64) Linear {
	return Linear{d0: d0, d1: d1, r0: r0, r1: r1}
}

// Domain returns the value domain.
func (s Linear) Domain() (float64, float64) { return s.d0, s.d1 }

// Map converts a value to a pixel position.
func (s Linear) Map(v float64) float64 {
	if s.d1 == s.d0 {
		return (s.r0 + s.r1) / 2
	}
	return s.r0 + (v-s.d0)/(s.d1-s.d0)*(s.r1-s.r0)
}

// Invert converts a pixel position back to a value.
func (s Linear) Invert(px float64) float64 {
	if s.r1 == s.r0 {
		return s.d0
	}
	return s.d0 + (px-s.r0)/(s.r1-s.r0)*(s.d1-s.d0)
}

// Ticks returns about n evenly spaced values on 1-2-5 multiples inside the domain.
func (s Linear) Ticks(n int) []Tick {
	lo, hi := math.Min(s.d0, s.d1), math.Max(s.d0, s.d1)
	st := tickStep(lo, hi, n)
	if st <= 0 {
		return nil
	}
	prec := precision(st)
	var ticks []Tick
	for i := math.Ceil(lo / st); i*st <= hi+st*1e-9; i++ {
		v := i * st
		ticks = append(ticks, Tick{Pos: s.Map(v), Label: strconv.FormatFloat(v, 'f', prec, 64)})
	}
	return ticks
}

func tickStep(lo, hi float64, n int) float64 {
	if n <= 0 || hi <= lo {
		return 0
	}
	raw := (hi - lo) / float64(n)
	power := math.Pow(10, math.Floor(math.Log10(raw)))
	e := raw / power
	switch {
	case e >= math.Sqrt(50):
		power *= 10
	case e >= math.Sqrt(10):
		power *= 5
	case e >= math.Sqrt(2):
		power *= 2
	}
	return power
}

func precision(step float64) int {
	p := -int(math.Floor(math.Log10(step) + 1e-9))
	if p < 0 {
		return 0
	}
	return p
}
