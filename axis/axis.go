/*
Copyright © 2026 the gridserve authors.
This file is part of gridserve.

gridserve is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

gridserve is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with gridserve.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package axis provides one-dimensional coordinate axes: strictly ascending
// sequences of coordinate values that support exact and nearest-neighbor
// index lookups. Longitude axes treat values that differ by multiples of
// 360 degrees as equivalent.
package axis

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidAxis is returned when axis values are empty or are not
	// strictly ascending.
	ErrInvalidAxis = errors.New("invalid axis")

	// ErrIndexOutOfRange is returned when an index is outside of [0, Len()).
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Axis is an immutable, strictly ascending sequence of coordinate values.
//
// MinValue and MaxValue bound the domain of NearestIndex: they lie half a
// cell beyond the first and last values, respectively. Lookups of values
// outside of the domain return false rather than an error.
type Axis interface {
	// Len returns the number of coordinate values.
	Len() int

	// IsLongitude reports whether values are longitudes in degrees.
	IsLongitude() bool

	// CoordinateValue returns the value at index, or ErrIndexOutOfRange.
	CoordinateValue(index int) (float64, error)

	// Values returns the coordinate values. The returned slice is shared
	// and must not be modified.
	Values() []float64

	// MinValue and MaxValue return the bounds of the lookup domain.
	MinValue() float64
	MaxValue() float64

	// ExactIndex returns the index whose value equals value.
	ExactIndex(value float64) (int, bool)

	// NearestIndex returns the index whose value is closest to value,
	// preferring the lower index when two values are equally close.
	NearestIndex(value float64) (int, bool)
}

// searcher is the part of an axis that differs between implementations.
type searcher interface {
	exactIndex(v float64) (int, bool)
	nearestIndex(v float64) (int, bool)
}

// domain holds the validated contract shared by all axis implementations.
type domain struct {
	values    []float64
	min, max  float64
	longitude bool
}

func newDomain(values []float64, longitude bool) (domain, error) {
	if err := checkAscending(values); err != nil {
		return domain{}, err
	}
	d := domain{values: values, longitude: longitude}
	n := len(values)
	if n == 1 {
		d.min, d.max = values[0], values[0]
		return d, nil
	}
	d.min = values[0] - (values[1]-values[0])/2
	d.max = values[n-1] + (values[n-1]-values[n-2])/2
	return d, nil
}

func checkAscending(values []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("axis: %w: no values", ErrInvalidAxis)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("axis: %w: value %d is %g", ErrInvalidAxis, i, v)
		}
		if i > 0 && v <= values[i-1] {
			return fmt.Errorf("axis: %w: value %d (%g) is not greater than value %d (%g)",
				ErrInvalidAxis, i, v, i-1, values[i-1])
		}
	}
	return nil
}

func (d *domain) Len() int            { return len(d.values) }
func (d *domain) IsLongitude() bool   { return d.longitude }
func (d *domain) Values() []float64   { return d.values }
func (d *domain) MinValue() float64   { return d.min }
func (d *domain) MaxValue() float64   { return d.max }
func (d *domain) inRange(i int) bool  { return i >= 0 && i < len(d.values) }
func (d *domain) value(i int) float64 { return d.values[i] }

func (d *domain) CoordinateValue(index int) (float64, error) {
	if !d.inRange(index) {
		return math.NaN(), fmt.Errorf("axis: %w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(d.values))
	}
	return d.values[index], nil
}

func (d *domain) exact(s searcher, v float64) (int, bool) {
	if math.IsNaN(v) {
		return -1, false
	}
	if d.longitude {
		v = NextEquivalentLongitude(d.values[0], v)
	}
	return s.exactIndex(v)
}

func (d *domain) nearest(s searcher, v float64) (int, bool) {
	if math.IsNaN(v) {
		return -1, false
	}
	if d.longitude {
		v = NextEquivalentLongitude(d.min, v)
	}
	if v < d.min || v > d.max {
		return -1, false
	}
	return s.nearestIndex(v)
}

// FromValues returns a Regular axis if values are evenly spaced to within
// a relative tolerance of 1e-6 of the spacing, and an Irregular axis
// otherwise.
func FromValues(values []float64, longitude bool) (Axis, error) {
	if err := checkAscending(values); err != nil {
		return nil, err
	}
	n := len(values)
	if n < 3 {
		return NewIrregular(values, longitude)
	}
	spacing := (values[n-1] - values[0]) / float64(n-1)
	for i := 1; i < n; i++ {
		if math.Abs(values[i]-values[i-1]-spacing) > 1e-6*spacing {
			return NewIrregular(values, longitude)
		}
	}
	return NewRegular(values[0], spacing, n, longitude)
}
