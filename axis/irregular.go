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

import "sort"

// Irregular is an axis with arbitrarily spaced values. Lookups use binary
// search.
type Irregular struct {
	domain
}

// NewIrregular creates an axis from values, which must be strictly
// ascending. values is copied.
func NewIrregular(values []float64, longitude bool) (*Irregular, error) {
	v := make([]float64, len(values))
	copy(v, values)
	d, err := newDomain(v, longitude)
	if err != nil {
		return nil, err
	}
	return &Irregular{domain: d}, nil
}

// ExactIndex implements Axis.
func (a *Irregular) ExactIndex(value float64) (int, bool) { return a.exact(a, value) }

// NearestIndex implements Axis.
func (a *Irregular) NearestIndex(value float64) (int, bool) { return a.nearest(a, value) }

func (a *Irregular) exactIndex(v float64) (int, bool) {
	i := sort.SearchFloat64s(a.values, v)
	if i < len(a.values) && a.values[i] == v {
		return i, true
	}
	return -1, false
}

func (a *Irregular) nearestIndex(v float64) (int, bool) {
	i := sort.SearchFloat64s(a.values, v)
	switch {
	case i == 0:
		return 0, true
	case i == len(a.values):
		return i - 1, true
	}
	// The upper neighbor wins only if it is strictly closer.
	if a.values[i]-v < v-a.values[i-1] {
		return i, true
	}
	return i - 1, true
}
