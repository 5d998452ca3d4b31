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


package grid

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/gridserve/axis"
	"gonum.org/v1/gonum/floats"
)

// rotatedGrid returns an ni x nj grid of cells with edge d degrees,
// rotated by theta radians around (lon0, lat0).
func rotatedGrid(t *testing.T, lon0, lat0, d, theta float64, ni, nj int) *CurvilinearGrid {
	t.Helper()
	lon := make([]float64, ni*nj)
	lat := make([]float64, ni*nj)
	for j := 0; j < nj; j++ {
		for i := 0; i < ni; i++ {
			x, y := float64(i)*d, float64(j)*d
			lon[j*ni+i] = lon0 + x*math.Cos(theta) - y*math.Sin(theta)
			lat[j*ni+i] = lat0 + x*math.Sin(theta) + y*math.Cos(theta)
		}
	}
	g, err := NewCurvilinearGrid(lon, lat, ni, nj)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// containing returns the cells of g that contain p.
func containing(g *CurvilinearGrid, p geom.Point) []*Cell {
	p.X = g.normalizeLon(p.X)
	var out []*Cell
	for _, c := range g.Cells() {
		if c.Contains(p) {
			out = append(out, c)
		}
	}
	return out
}

func TestCurvilinearCorners(t *testing.T) {
	g := rotatedGrid(t, 0.5, 0.5, 1, 0, 3, 2)
	c, ok := g.Cell(0, 0)
	if !ok {
		t.Fatal("missing cell")
	}
	want := geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}}}
	for k, p := range c.Polygon[0] {
		if !floats.EqualWithinAbs(p.X, want[0][k].X, 1e-12) || !floats.EqualWithinAbs(p.Y, want[0][k].Y, 1e-12) {
			t.Errorf("corner %d: have %v, want %v", k, p, want[0][k])
		}
	}
	if !floats.EqualWithinAbsOrRel(g.MeanCellArea(), 1, 1e-12, 1e-12) {
		t.Errorf("mean cell area: have %g, want 1", g.MeanCellArea())
	}
	ext := g.Extent()
	have := []float64{ext.Min.X, ext.Min.Y, ext.Max.X, ext.Max.Y}
	if !floats.EqualApprox(have, []float64{0, 0, 3, 2}, 1e-12) {
		t.Errorf("extent: %+v", ext)
	}
	if _, ok := g.Cell(3, 0); ok {
		t.Error("cell (3, 0) should not exist")
	}
}

func TestCurvilinearInvalid(t *testing.T) {
	if _, err := NewCurvilinearGrid([]float64{1, 2, 3}, []float64{1, 2, 3}, 3, 1); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("1-row grid: have error %v, want %v", err, ErrInvalidGrid)
	}
	if _, err := NewCurvilinearGrid([]float64{1, 2, 3, 4}, []float64{1, 2, 3}, 2, 2); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("short latitudes: have error %v, want %v", err, ErrDimensionMismatch)
	}
	if _, err := NewCurvilinearGrid([]float64{1, 2, math.NaN(), 4}, []float64{1, 2, 3, 4}, 2, 2); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("NaN position: have error %v, want %v", err, ErrInvalidGrid)
	}
}

func TestLookUpTableGridCentres(t *testing.T) {
	g, err := NewLookUpTableGrid(rotatedGrid(t, -100, 30, 0.5, 0.4, 10, 8))
	if err != nil {
		t.Fatal(err)
	}
	if r := g.LookUpTable().Resolution(); !floats.EqualWithinAbsOrRel(r, 0.5/3, 1e-9, 1e-9) {
		t.Errorf("resolution: have %g, want %g", r, 0.5/3)
	}
	ni, nj := g.Shape()
	for j := 0; j < nj; j++ {
		for i := 0; i < ni; i++ {
			p, ok := g.Transform(i, j)
			if !ok {
				t.Fatalf("no centre for (%d, %d)", i, j)
			}
			m, ok := g.FindNearestGridPoint(p.X, p.Y)
			if !ok || m.I != i || m.J != j || !m.Verified {
				t.Errorf("FindNearestGridPoint(centre of (%d, %d)) = (%+v, %v)", i, j, m, ok)
			}
		}
	}
	if _, ok := g.Transform(ni, 0); ok {
		t.Error("Transform outside of the grid should fail")
	}
}

func TestLookUpTableGridContainment(t *testing.T) {
	g, err := NewLookUpTableGrid(rotatedGrid(t, 10, -20, 1, -0.6, 9, 7))
	if err != nil {
		t.Fatal(err)
	}
	ext := g.Extent()
	var inside, unverified int
	for y := ext.Min.Y - 0.5; y <= ext.Max.Y+0.5; y += 0.137 {
		for x := ext.Min.X - 0.5; x <= ext.Max.X+0.5; x += 0.137 {
			p := geom.Point{X: x, Y: y}
			m, ok := g.Nearest(p)
			cells := containing(g.CurvilinearGrid, p)
			if len(cells) > 0 {
				inside++
				if !ok || !m.Verified {
					t.Errorf("%v is inside the grid but Nearest = (%+v, %v)", p, m, ok)
					continue
				}
			}
			if !ok {
				continue
			}
			c, _ := g.Cell(m.I, m.J)
			if m.Verified && !c.Contains(p) {
				t.Errorf("verified cell (%d, %d) does not contain %v", m.I, m.J, p)
			}
			if !m.Verified {
				unverified++
				if len(cells) != 0 {
					t.Errorf("unverified match for %v, which is in cell (%d, %d)", p, cells[0].I, cells[0].J)
				}
			}
		}
	}
	if inside == 0 {
		t.Error("no test points inside the grid")
	}
	t.Logf("%d points inside, %d unverified matches", inside, unverified)
}

func TestLookUpTableGridOutside(t *testing.T) {
	g, err := NewLookUpTableGrid(rotatedGrid(t, 0.5, 0.5, 1, 0, 4, 4))
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []geom.Point{{X: -1, Y: 2}, {X: 2, Y: 4.5}, {X: 2, Y: -0.1}, {X: math.NaN(), Y: 1}} {
		if m, ok := g.Nearest(p); ok {
			t.Errorf("Nearest(%v) = %+v, want no match", p, m)
		}
	}
}

func TestLookUpTableGridDateline(t *testing.T) {
	lon := []float64{
		178.5, 179.5, -179.5, -178.5,
		178.5, 179.5, -179.5, -178.5,
		178.5, 179.5, -179.5, -178.5,
	}
	lat := []float64{
		0.5, 0.5, 0.5, 0.5,
		1.5, 1.5, 1.5, 1.5,
		2.5, 2.5, 2.5, 2.5,
	}
	cg, err := NewCurvilinearGrid(lon, lat, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewLookUpTableGrid(cg)
	if err != nil {
		t.Fatal(err)
	}
	for _, lon := range []float64{-179.2, 180.8, 540.8} {
		m, ok := g.FindNearestGridPoint(lon, 1.2)
		if !ok || m.I != 2 || m.J != 1 || !m.Verified {
			t.Errorf("FindNearestGridPoint(%g, 1.2) = (%+v, %v), want cell (2, 1)", lon, m, ok)
		}
	}
	if m, ok := g.FindNearestGridPoint(179.9, 2.9); !ok || m.I != 1 || m.J != 2 {
		t.Errorf("FindNearestGridPoint(179.9, 2.9) = (%+v, %v), want cell (1, 2)", m, ok)
	}
	if m, ok := g.FindNearestGridPoint(177, 1); ok {
		t.Errorf("FindNearestGridPoint(177, 1) = %+v, want no match", m)
	}
}

// shearedGlobalGrid returns a 36x18 grid of 10 degree cells covering the
// globe, with each row shifted 0.3 degrees east of the one below and
// longitudes wrapped into [-180, 180).
func shearedGlobalGrid(t *testing.T) *CurvilinearGrid {
	t.Helper()
	const ni, nj = 36, 18
	lon := make([]float64, ni*nj)
	lat := make([]float64, ni*nj)
	for j := 0; j < nj; j++ {
		for i := 0; i < ni; i++ {
			lon[j*ni+i] = axis.NextEquivalentLongitude(-180, -175+10*float64(i)+0.3*float64(j))
			lat[j*ni+i] = -85 + 10*float64(j)
		}
	}
	g, err := NewCurvilinearGrid(lon, lat, ni, nj)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestLookUpTableGridGlobal(t *testing.T) {
	cg := shearedGlobalGrid(t)
	if ext := cg.Extent(); ext.Max.X-ext.Min.X <= 360 {
		t.Fatalf("grid extent %v should be wider than one turn", ext)
	}
	g, err := NewLookUpTableGrid(cg)
	if err != nil {
		t.Fatal(err)
	}
	if !g.LookUpTable().Wraps() {
		t.Error("lookup table of a global grid should wrap")
	}

	// Only the easternmost cell of row 13 covers this point, as 183.07.
	m, ok := g.FindNearestGridPoint(-176.93, 46.83)
	if !ok || m.I != 35 || m.J != 13 || !m.Verified {
		t.Errorf("FindNearestGridPoint(-176.93, 46.83) = (%+v, %v), want verified cell (35, 13)", m, ok)
	}

	rnd := rand.New(rand.NewSource(1))
	for k := 0; k < 20000; k++ {
		p := geom.Point{X: rnd.Float64()*360 - 180, Y: rnd.Float64()*179.8 - 89.9}
		m, ok := g.Nearest(p)
		if !ok || !m.Verified {
			t.Errorf("Nearest(%v) = (%+v, %v), want a verified match", p, m, ok)
			continue
		}
		c, _ := g.Cell(m.I, m.J)
		if !c.Contains(p) && !c.Contains(geom.Point{X: p.X + 360, Y: p.Y}) {
			t.Errorf("cell (%d, %d) does not contain %v", m.I, m.J, p)
		}
	}
}

func TestLookUpTableGridOuterEdges(t *testing.T) {
	g, err := NewLookUpTableGrid(rotatedGrid(t, 10.5, 10.5, 1, 0, 3, 3))
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []geom.Point{{X: 13, Y: 13}, {X: 13, Y: 11}, {X: 11, Y: 13}, {X: 10, Y: 10}, {X: 13, Y: 10}} {
		m, ok := g.Nearest(p)
		if !ok || !m.Verified {
			t.Errorf("Nearest(%v) = (%+v, %v), want a verified match", p, m, ok)
			continue
		}
		if c, _ := g.Cell(m.I, m.J); !c.Contains(p) {
			t.Errorf("cell (%d, %d) does not contain %v", m.I, m.J, p)
		}
	}
	if m, _ := g.Nearest(geom.Point{X: 13, Y: 13}); m.I != 2 || m.J != 2 {
		t.Errorf("corner (13, 13): have cell (%d, %d), want (2, 2)", m.I, m.J)
	}
	if m, ok := g.Nearest(geom.Point{X: 13.5, Y: 12}); ok {
		t.Errorf("Nearest beyond the eastern edge = %+v, want no match", m)
	}
}

func TestLookUpTableCacheMaxCells(t *testing.T) {
	cache := NewLookUpTableCache()
	cache.Log, _ = test.NewNullLogger()
	if cache.MaxCells != DefaultMaxLookUpTableCells {
		t.Errorf("default limit: have %d, want %d", cache.MaxCells, DefaultMaxLookUpTableCells)
	}
	cache.MaxCells = 10
	if _, err := cache.Get(rotatedGrid(t, 0, 0, 1, 0, 4, 4)); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("have error %v, want %v", err, ErrInvalidGrid)
	}
	if cache.Len() != 0 {
		t.Error("oversized table was cached")
	}
	cache.MaxCells = 0
	if _, err := cache.Get(rotatedGrid(t, 0, 0, 1, 0, 4, 4)); err != nil {
		t.Errorf("default limit: %v", err)
	}
}

func TestLookUpTableCacheConcurrent(t *testing.T) {
	logger, hook := test.NewNullLogger()
	cache := NewLookUpTableCache()
	cache.Log = logger
	g := rotatedGrid(t, 0, 0, 0.25, 0.3, 40, 30)

	const n = 2
	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make([]*LookUpTableGrid, n)
	errs := make([]error, n)
	for k := 0; k < n; k++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			<-start
			results[k], errs[k] = cache.Get(g)
		}(k)
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if cache.Builds() != 1 {
		t.Errorf("builds: have %d, want 1", cache.Builds())
	}
	if results[0] != results[1] {
		t.Error("callers received different tables")
	}
	if len(hook.Entries) != 2 {
		t.Errorf("log entries: have %d, want 2", len(hook.Entries))
	}

	// A grid with the same positions shares the cached table.
	same := rotatedGrid(t, 0, 0, 0.25, 0.3, 40, 30)
	r, err := cache.Get(same)
	if err != nil {
		t.Fatal(err)
	}
	if r != results[0] || cache.Builds() != 1 {
		t.Errorf("equal grid was rebuilt: builds = %d", cache.Builds())
	}

	other := rotatedGrid(t, 0, 0, 0.5, 0.3, 4, 3)
	if _, err := cache.Get(other); err != nil {
		t.Fatal(err)
	}
	if cache.Builds() != 2 || cache.Len() != 2 {
		t.Errorf("builds = %d, len = %d, want 2 and 2", cache.Builds(), cache.Len())
	}
}

func TestLookUpTableCacheZeroValue(t *testing.T) {
	var cache LookUpTableCache
	cache.Log, _ = test.NewNullLogger()
	g := rotatedGrid(t, 0, 0, 1, 0, 2, 2)
	a, err := cache.Get(g)
	if err != nil {
		t.Fatal(err)
	}
	b, err := cache.Get(g)
	if err != nil {
		t.Fatal(err)
	}
	if a != b || cache.Builds() != 1 {
		t.Errorf("zero-value cache: same = %v, builds = %d", a == b, cache.Builds())
	}
}

func TestLookUpTableCacheError(t *testing.T) {
	cache := NewLookUpTableCache()
	cache.Log, _ = test.NewNullLogger()
	g, err := NewCurvilinearGrid([]float64{5, 5, 5, 5}, []float64{1, 1, 1, 1}, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Get(g); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("have error %v, want %v", err, ErrInvalidGrid)
	}
	if cache.Len() != 0 || cache.Builds() != 0 {
		t.Errorf("failed build was cached")
	}
}

func TestResolve(t *testing.T) {
	cache := NewLookUpTableCache()
	cache.Log, _ = test.NewNullLogger()
	r := scenarioGrid(t)
	h, err := Resolve(r, cache)
	if err != nil {
		t.Fatal(err)
	}
	if h != HorizontalGrid(r) {
		t.Error("rectilinear grid should resolve to itself")
	}
	c := rotatedGrid(t, 0, 0, 1, 0, 3, 3)
	if _, err := Resolve(c, nil); err == nil {
		t.Error("curvilinear grid without a cache should fail")
	}
	h, err = Resolve(c, cache)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := h.(*LookUpTableGrid); !ok {
		t.Errorf("have %T, want *LookUpTableGrid", h)
	}
}
