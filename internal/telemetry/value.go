package telemetry

import (
	"encoding/json"
	"math"
)

// Value is a float64 with an explicit validity flag, mirroring
// sql.NullFloat64. Gated or degenerate samples are represented as
// Valid=false rather than a NaN sentinel so gaps can never leak into
// arithmetic or be mistaken for zero.
type Value struct {
	Float64 float64
	Valid   bool
}

// F returns a valid Value. Non-finite inputs produce an invalid Value so a
// NaN can never be laundered into a "defined" sample.
func F(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{Float64: v, Valid: true}
}

// MarshalJSON emits null for invalid values so JSON consumers see gaps as
// gaps, never as zeroes.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float64)
}

// UnmarshalJSON accepts null as the invalid value.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Value{Float64: f, Valid: true}
	return nil
}

// Channel is a per-sample derived signal aligned index-for-index with the
// session's sample slice.
type Channel []Value

// NewChannel returns an all-invalid channel of length n.
func NewChannel(n int) Channel { return make(Channel, n) }

// DenseChannel wraps a fully-defined signal as a Channel.
func DenseChannel(x []float64) Channel {
	ch := make(Channel, len(x))
	for i, v := range x {
		ch[i] = F(v)
	}
	return ch
}

// AnyValid reports whether at least one element is defined.
func (c Channel) AnyValid() bool {
	for _, v := range c {
		if v.Valid {
			return true
		}
	}
	return false
}

// HoldLastValid densifies a gappy channel for causal filtering: samples
// before the first valid element take that first value, and every later gap
// holds the previous valid value. Gaps are never interpolated backward in
// time. Returns ok=false (and a nil slice) when nothing is valid.
//
// This is the shared gap-handling step for the heading, slip, and RPM
// channels; each re-masks to its own validity after smoothing.
func (c Channel) HoldLastValid() (dense []float64, ok bool) {
	first := -1
	for i, v := range c {
		if v.Valid {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, false
	}
	dense = make([]float64, len(c))
	last := c[first].Float64
	for i, v := range c {
		if v.Valid {
			last = v.Float64
		}
		dense[i] = last
	}
	return dense, true
}

// MaskLike re-applies a gate: the result carries dense[i] exactly where
// like[i] is valid. Smoothing a forward-filled signal and re-masking with
// the original gate keeps filter state continuous across gaps without
// manufacturing defined values inside them.
func MaskLike(dense []float64, like Channel) Channel {
	ch := make(Channel, len(like))
	for i, v := range like {
		if v.Valid {
			ch[i] = F(dense[i])
		}
	}
	return ch
}
