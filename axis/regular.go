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

package axis

import (
	"fmt"
	"math"
)

// Regular is an axis with evenly spaced values. Lookups take constant time.
type Regular struct {
	domain
	first, spacing float64
}

// NewRegular creates an axis with n values starting at first and
// increasing by spacing.
func NewRegular(first, spacing float64, n int, longitude bool) (*Regular, error) {
	if n < 1 {
		return nil, fmt.Errorf("axis: %w: regular axis must have at least one value, not %d", ErrInvalidAxis, n)
	}
	if !(spacing > 0) || math.IsInf(spacing, 0) {
		return nil, fmt.Errorf("axis: %w: regular axis spacing must be positive, not %g", ErrInvalidAxis, spacing)
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = first + float64(i)*spacing
	}
	d, err := newDomain(values, longitude)
	if err != nil {
		return nil, err
	}
	if n == 1 {
		d.min, d.max = first-spacing/2, first+spacing/2
	}
	return &Regular{domain: d, first: first, spacing: spacing}, nil
}

// First returns the first coordinate value.
func (r *Regular) First() float64 { return r.first }

// Spacing returns the distance between adjacent values.
func (r *Regular) Spacing() float64 { return r.spacing }

// ExactIndex implements Axis.
func (r *Regular) ExactIndex(value float64) (int, bool) { return r.exact(r, value) }

// NearestIndex implements Axis.
func (r *Regular) NearestIndex(value float64) (int, bool) { return r.nearest(r, value) }

// steps returns the floor of the number of steps from the first value.
func (r *Regular) steps(v float64) int {
	f := math.Floor((v - r.first) / r.spacing)
	n := float64(len(r.values))
	if f < -1 {
		return -2
	} else if f > n {
		return len(r.values) + 1
	}
	return int(f)
}

// exactIndex checks the two bracketing candidates against the stored
// values, since the division may be off by rounding.
func (r *Regular) exactIndex(v float64) (int, bool) {
	lo := r.steps(v)
	for i := lo; i <= lo+1; i++ {
		if r.inRange(i) && r.value(i) == v {
			return i, true
		}
	}
	return -1, false
}

func (r *Regular) nearestIndex(v float64) (int, bool) {
	lo := r.steps(v)
	best, bestDist := -1, math.Inf(1)
	for i := lo - 1; i <= lo+2; i++ {
		if !r.inRange(i) {
			continue
		}
		if d := math.Abs(r.value(i) - v); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		// v is within the domain but the candidates fell outside of the
		// index range; clamp to the nearest end.
		if lo < 0 {
			return 0, true
		}
		return len(r.values) - 1, true
	}
	return best, true
}
