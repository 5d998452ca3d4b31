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
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
)

func mustRegular(t *testing.T, first, spacing float64, n int, lon bool) *Regular {
	t.Helper()
	a, err := NewRegular(first, spacing, n, lon)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func mustIrregular(t *testing.T, values []float64, lon bool) *Irregular {
	t.Helper()
	a, err := NewIrregular(values, lon)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

// testAxes returns a set of axes covering both implementations.
func testAxes(t *testing.T) map[string]Axis {
	return map[string]Axis{
		"regular":            mustRegular(t, 0.1, 0.2, 17, false),
		"regular_negative":   mustRegular(t, -50, 2.5, 9, false),
		"regular_single":     mustRegular(t, 3, 1, 1, false),
		"irregular":          mustIrregular(t, []float64{-3, -2.5, 0, 0.1, 4, 9, 9.5, 30}, false),
		"irregular_pair":     mustIrregular(t, []float64{1, 2}, false),
		"irregular_single":   mustIrregular(t, []float64{7}, false),
		"longitude_global":   mustRegular(t, -180, 90, 4, true),
		"longitude_regional": mustIrregular(t, []float64{10, 12, 15, 20, 30}, true),
	}
}

func TestInvalidAxis(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{name: "empty", values: nil},
		{name: "repeated", values: []float64{1, 2, 2, 3}},
		{name: "single repeated", values: []float64{5, 5}},
		{name: "descending", values: []float64{3, 2, 1}},
		{name: "NaN", values: []float64{1, math.NaN(), 3}},
		{name: "Inf", values: []float64{1, 2, math.Inf(1)}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewIrregular(test.values, false)
			if !errors.Is(err, ErrInvalidAxis) {
				t.Errorf("have error %v, want %v", err, ErrInvalidAxis)
			}
			_, err = FromValues(test.values, false)
			if !errors.Is(err, ErrInvalidAxis) {
				t.Errorf("FromValues: have error %v, want %v", err, ErrInvalidAxis)
			}
		})
	}
}

func TestInvalidRegular(t *testing.T) {
	tests := []struct {
		spacing float64
		n       int
	}{
		{spacing: 1, n: 0},
		{spacing: 1, n: -3},
		{spacing: 0, n: 3},
		{spacing: -1, n: 3},
		{spacing: math.NaN(), n: 3},
		{spacing: math.Inf(1), n: 3},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%g_%d", test.spacing, test.n), func(t *testing.T) {
			if _, err := NewRegular(0, test.spacing, test.n, false); !errors.Is(err, ErrInvalidAxis) {
				t.Errorf("have error %v, want %v", err, ErrInvalidAxis)
			}
		})
	}
}

func TestCoordinateValue(t *testing.T) {
	for name, a := range testAxes(t) {
		t.Run(name, func(t *testing.T) {
			for _, i := range []int{-1, a.Len(), a.Len() + 10} {
				if _, err := a.CoordinateValue(i); !errors.Is(err, ErrIndexOutOfRange) {
					t.Errorf("index %d: have error %v, want %v", i, err, ErrIndexOutOfRange)
				}
			}
			for i := 0; i < a.Len(); i++ {
				v, err := a.CoordinateValue(i)
				if err != nil {
					t.Fatal(err)
				}
				if v != a.Values()[i] {
					t.Errorf("index %d: %g != %g", i, v, a.Values()[i])
				}
				if i > 0 && !(a.Values()[i-1] < v) {
					t.Errorf("values are not ascending at %d", i)
				}
			}
		})
	}
}

func TestExactIndexRoundTrip(t *testing.T) {
	for name, a := range testAxes(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < a.Len(); i++ {
				v, _ := a.CoordinateValue(i)
				j, ok := a.ExactIndex(v)
				if !ok || j != i {
					t.Errorf("ExactIndex(%g): have (%d, %v), want (%d, true)", v, j, ok, i)
				}
			}
			if _, ok := a.ExactIndex(math.NaN()); ok {
				t.Error("NaN has an exact index")
			}
		})
	}
}

func TestExactIndexMiss(t *testing.T) {
	a := mustIrregular(t, []float64{1, 2, 4}, false)
	for _, v := range []float64{0, 1.5, 3, 4.0000001, 100} {
		if i, ok := a.ExactIndex(v); ok {
			t.Errorf("ExactIndex(%g) = %d, want no match", v, i)
		}
	}
	r := mustRegular(t, 0, 0.5, 4, false)
	for _, v := range []float64{-0.5, 0.25, 1.75, 2} {
		if i, ok := r.ExactIndex(v); ok {
			t.Errorf("regular ExactIndex(%g) = %d, want no match", v, i)
		}
	}
}

// bruteNearest returns the index minimizing the distance to v,
// preferring the lower index on ties.
func bruteNearest(values []float64, v float64) int {
	best, bestDist := -1, math.Inf(1)
	for i, x := range values {
		if d := math.Abs(x - v); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func TestNearestIndexBruteForce(t *testing.T) {
	for name, a := range testAxes(t) {
		if a.IsLongitude() {
			continue
		}
		t.Run(name, func(t *testing.T) {
			var samples []float64
			vals := a.Values()
			for i, v := range vals {
				samples = append(samples, v, math.Nextafter(v, math.Inf(1)), math.Nextafter(v, math.Inf(-1)))
				if i > 0 {
					mid := (vals[i-1] + v) / 2
					samples = append(samples, mid, math.Nextafter(mid, math.Inf(1)), math.Nextafter(mid, math.Inf(-1)))
				}
			}
			const n = 997
			for k := 0; k <= n; k++ {
				samples = append(samples, a.MinValue()+(a.MaxValue()-a.MinValue())*float64(k)/n)
			}
			for _, v := range samples {
				if v < a.MinValue() || v > a.MaxValue() {
					continue
				}
				i, ok := a.NearestIndex(v)
				if !ok {
					t.Errorf("NearestIndex(%g): no match inside domain [%g, %g]", v, a.MinValue(), a.MaxValue())
					continue
				}
				if want := bruteNearest(vals, v); i != want {
					t.Errorf("NearestIndex(%g) = %d, want %d", v, i, want)
				}
			}
		})
	}
}

func TestNearestIndexTies(t *testing.T) {
	a := mustIrregular(t, []float64{0, 1, 2, 4}, false)
	r := mustRegular(t, 0, 1, 3, false)
	for _, test := range []struct {
		ax   Axis
		v    float64
		want int
	}{
		{ax: a, v: 0.5, want: 0},
		{ax: a, v: 1.5, want: 1},
		{ax: a, v: 3, want: 2},
		{ax: r, v: 0.5, want: 0},
		{ax: r, v: 1.5, want: 1},
	} {
		if i, _ := test.ax.NearestIndex(test.v); i != test.want {
			t.Errorf("NearestIndex(%g) = %d, want %d", test.v, i, test.want)
		}
	}
}

func TestNearestIndexDomain(t *testing.T) {
	axes := testAxes(t)
	delete(axes, "longitude_global") // covers all longitudes.
	for name, a := range axes {
		t.Run(name, func(t *testing.T) {
			eps := 1e-9 * math.Max(1, a.MaxValue()-a.MinValue())
			if _, ok := a.NearestIndex(a.MinValue()); !ok {
				t.Errorf("no match for min value %g", a.MinValue())
			}
			if _, ok := a.NearestIndex(a.MaxValue()); !ok {
				t.Errorf("no match for max value %g", a.MaxValue())
			}
			if i, ok := a.NearestIndex(a.MinValue() - eps); ok {
				t.Errorf("match %d below min value %g", i, a.MinValue())
			}
			if i, ok := a.NearestIndex(a.MaxValue() + eps); ok {
				t.Errorf("match %d above max value %g", i, a.MaxValue())
			}
			if _, ok := a.NearestIndex(math.NaN()); ok {
				t.Error("match for NaN")
			}
		})
	}
}

func TestMinMaxValue(t *testing.T) {
	tests := []struct {
		a        Axis
		min, max float64
	}{
		{a: mustIrregular(t, []float64{0, 1, 3}, false), min: -0.5, max: 4},
		{a: mustRegular(t, 10, 2, 3, false), min: 9, max: 15},
		{a: mustRegular(t, 10, 2, 1, false), min: 9, max: 11},
		{a: mustIrregular(t, []float64{7}, false), min: 7, max: 7},
		{a: mustRegular(t, -180, 90, 4, true), min: -225, max: 135},
	}
	for i, test := range tests {
		if test.a.MinValue() != test.min || test.a.MaxValue() != test.max {
			t.Errorf("%d: have [%g, %g], want [%g, %g]", i, test.a.MinValue(), test.a.MaxValue(), test.min, test.max)
		}
	}
}

func TestLongitudeWraparound(t *testing.T) {
	for name, a := range testAxes(t) {
		if !a.IsLongitude() {
			continue
		}
		t.Run(name, func(t *testing.T) {
			for v := -540.0; v <= 540; v += 2.5 {
				i0, ok0 := a.NearestIndex(v)
				i1, ok1 := a.NearestIndex(v + 360)
				i2, ok2 := a.NearestIndex(v - 360)
				if i0 != i1 || i0 != i2 || ok0 != ok1 || ok0 != ok2 {
					t.Errorf("NearestIndex(%g) = (%d, %v), NearestIndex(%g) = (%d, %v), NearestIndex(%g) = (%d, %v)",
						v, i0, ok0, v+360, i1, ok1, v-360, i2, ok2)
				}
			}
		})
	}
}

func TestLongitudeEquivalence(t *testing.T) {
	a := mustRegular(t, -180, 90, 4, true)
	i, ok := a.NearestIndex(185)
	j, ok2 := a.NearestIndex(-175)
	if !ok || !ok2 || i != j || i != 0 {
		t.Errorf("NearestIndex(185) = (%d, %v), NearestIndex(-175) = (%d, %v), want 0", i, ok, j, ok2)
	}
	// The lower half-cell of the first value is reachable from both sides.
	if i, ok := a.NearestIndex(-200); !ok || i != 0 {
		t.Errorf("NearestIndex(-200) = (%d, %v), want (0, true)", i, ok)
	}
	if i, ok := a.NearestIndex(160); !ok || i != 0 {
		t.Errorf("NearestIndex(160) = (%d, %v), want (0, true)", i, ok)
	}
	if i, ok := a.ExactIndex(270); !ok || i != 1 {
		t.Errorf("ExactIndex(270) = (%d, %v), want (1, true)", i, ok)
	}
	if i, ok := a.ExactIndex(-450); !ok || i != 1 {
		t.Errorf("ExactIndex(-450) = (%d, %v), want (1, true)", i, ok)
	}

	regional := mustIrregular(t, []float64{10, 20, 30}, true)
	if i, ok := regional.NearestIndex(370); !ok || i != 0 {
		t.Errorf("NearestIndex(370) = (%d, %v), want (0, true)", i, ok)
	}
	if i, ok := regional.NearestIndex(180); ok {
		t.Errorf("NearestIndex(180) = %d, want no match", i)
	}
}

func TestNextEquivalentLongitude(t *testing.T) {
	tests := []struct{ ref, lon, want float64 }{
		{ref: -180, lon: 185, want: -175},
		{ref: -180, lon: -180, want: -180},
		{ref: -180, lon: 180, want: -180},
		{ref: 0, lon: -90, want: 270},
		{ref: 0, lon: 720, want: 0},
		{ref: 10, lon: 9, want: 369},
		{ref: -225, lon: 135, want: -225},
	}
	for _, test := range tests {
		if have := NextEquivalentLongitude(test.ref, test.lon); have != test.want {
			t.Errorf("NextEquivalentLongitude(%g, %g) = %g, want %g", test.ref, test.lon, have, test.want)
		}
	}
	if !math.IsNaN(NextEquivalentLongitude(0, math.NaN())) {
		t.Error("NaN longitude should stay NaN")
	}
}

func TestFromValues(t *testing.T) {
	a, err := FromValues([]float64{0, 0.25, 0.5, 0.75}, false)
	if err != nil {
		t.Fatal(err)
	}
	r, ok := a.(*Regular)
	if !ok {
		t.Fatalf("have %T, want *Regular", a)
	}
	if r.First() != 0 || r.Spacing() != 0.25 {
		t.Errorf("regular axis: first %g, spacing %g", r.First(), r.Spacing())
	}
	if !reflect.DeepEqual(r.Values(), []float64{0, 0.25, 0.5, 0.75}) {
		t.Errorf("values: %v", r.Values())
	}

	a, err = FromValues([]float64{0, 0.25, 0.6, 0.75}, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := a.(*Irregular); !ok {
		t.Errorf("have %T, want *Irregular", a)
	}
	if !a.IsLongitude() {
		t.Error("longitude flag lost")
	}
}

func TestIrregularCopiesValues(t *testing.T) {
	v := []float64{1, 2, 3}
	a := mustIrregular(t, v, false)
	v[0] = 100
	if a.Values()[0] != 1 {
		t.Error("axis shares caller's slice")
	}
}
