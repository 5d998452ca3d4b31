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
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/spatialmodel/gridserve/axis"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// lutRefinement is the number of lookup table cells spanning the edge of
// a grid cell of mean size.
const lutRefinement = 3

// DefaultMaxLookUpTableCells is the largest lookup table that is built
// when no other limit is given. Each cell takes four bytes.
const DefaultMaxLookUpTableCells = 1 << 24

// LookUpTable is a coarse raster over the extent of a CurvilinearGrid
// holding, for each raster cell, the index of the grid cell whose centre
// is closest. Raster cells that no grid cell overlaps hold no index.
//
// When the grid spans 360 degrees of longitude or more, the table covers
// exactly one turn starting at the grid's western edge, and grid cells
// east of that turn are folded back onto it.
type LookUpTable struct {
	origin geom.Point
	max    geom.Point
	res    float64
	nx, ny int
	ni     int     // number of grid cells in the i direction
	index  []int32 // grid cell index j*ni+i per raster cell, or -1
	wrap   bool
}

// GenerateLookUpTable creates a lookup table for g with at most maxCells
// raster cells. If maxCells is not positive, DefaultMaxLookUpTableCells
// is used.
func GenerateLookUpTable(g *CurvilinearGrid, maxCells int) (*LookUpTable, error) {
	if maxCells <= 0 {
		maxCells = DefaultMaxLookUpTableCells
	}
	res := math.Sqrt(g.MeanCellArea()) / lutRefinement
	if !(res > 0) || math.IsInf(res, 0) {
		return nil, fmt.Errorf("grid: %w: can't build lookup table with resolution %g", ErrInvalidGrid, res)
	}
	ext := g.Extent()
	width := ext.Max.X - ext.Min.X
	wrap := width >= 360
	if wrap {
		width = 360
	}
	nx := int(math.Ceil(width / res))
	ny := int(math.Ceil((ext.Max.Y - ext.Min.Y) / res))
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}
	if float64(nx)*float64(ny) > float64(maxCells) {
		return nil, fmt.Errorf("grid: %w: lookup table would have %dx%d cells, more than the limit of %d",
			ErrInvalidGrid, nx, ny, maxCells)
	}
	ni, _ := g.Shape()
	t := &LookUpTable{
		origin: ext.Min,
		max:    ext.Max,
		res:    res,
		nx:     nx,
		ny:     ny,
		ni:     ni,
		index:  make([]int32, nx*ny),
		wrap:   wrap,
	}
	// Positions east of the first turn are also searched one turn to the
	// west, and the reverse.
	shifts := []float64{0}
	if wrap {
		shifts = append(shifts, 360, -360)
	}

	index := rtree.NewTree(25, 50)
	centres := make(centrePoints, len(g.Cells()))
	for k, c := range g.Cells() {
		index.Insert(c)
		centres[k] = centrePoint{X: c.Centre.X, Y: c.Centre.Y, k: k}
	}
	tree := kdtree.New(centres, false)

	for row := 0; row < ny; row++ {
		y0 := t.origin.Y + float64(row)*res
		for col := 0; col < nx; col++ {
			x0 := t.origin.X + float64(col)*res
			b := &geom.Bounds{
				Min: geom.Point{X: x0, Y: y0},
				Max: geom.Point{X: x0 + res, Y: y0 + res},
			}
			covered := false
			for _, s := range shifts {
				if overlapsAny(index, shiftBounds(b, s)) {
					covered = true
					break
				}
			}
			if !covered {
				t.index[row*nx+col] = -1
				continue
			}
			best, bestDist := -1, math.Inf(1)
			for _, s := range shifts {
				nearest, d := tree.Nearest(centrePoint{X: x0 + res/2 + s, Y: y0 + res/2})
				if d < bestDist {
					best, bestDist = nearest.(centrePoint).k, d
				}
			}
			t.index[row*nx+col] = int32(best)
		}
	}
	return t, nil
}

// shiftBounds returns b moved east by dx.
func shiftBounds(b *geom.Bounds, dx float64) *geom.Bounds {
	if dx == 0 {
		return b
	}
	return &geom.Bounds{
		Min: geom.Point{X: b.Min.X + dx, Y: b.Min.Y},
		Max: geom.Point{X: b.Max.X + dx, Y: b.Max.Y},
	}
}

// overlapsAny reports whether any grid cell in index overlaps b, checked
// through the vertices of the two shapes.
func overlapsAny(index *rtree.Rtree, b *geom.Bounds) bool {
	box := geom.Polygon{{
		b.Min,
		{X: b.Max.X, Y: b.Min.Y},
		b.Max,
		{X: b.Min.X, Y: b.Max.Y},
		b.Min,
	}}
	centre := geom.Point{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2}
	for _, s := range index.SearchIntersect(b) {
		c := s.(*Cell)
		if c.Contains(centre) {
			return true
		}
		for _, p := range box[0][:4] {
			if c.Contains(p) {
				return true
			}
		}
		for _, p := range c.Polygon[0][:4] {
			if p.Within(box) != geom.Outside {
				return true
			}
		}
	}
	return false
}

// Lookup returns the approximate nearest grid cell to (lon, lat), or false
// if the position is not covered by the grid.
func (t *LookUpTable) Lookup(lon, lat float64) (i, j int, ok bool) {
	if math.IsNaN(lon) || math.IsNaN(lat) {
		return -1, -1, false
	}
	lon = axis.NextEquivalentLongitude(t.origin.X, lon)
	col := math.Floor((lon - t.origin.X) / t.res)
	row := math.Floor((lat - t.origin.Y) / t.res)
	// The eastern and northern edges of the grid belong to the last
	// column and row.
	if col == float64(t.nx) && lon <= t.max.X {
		col--
	}
	if row == float64(t.ny) && lat <= t.max.Y {
		row--
	}
	if col < 0 || col >= float64(t.nx) || row < 0 || row >= float64(t.ny) {
		return -1, -1, false
	}
	k := t.index[int(row)*t.nx+int(col)]
	if k < 0 {
		return -1, -1, false
	}
	return int(k) % t.ni, int(k) / t.ni, true
}

// Shape returns the number of raster cells in the x and y directions.
func (t *LookUpTable) Shape() (nx, ny int) { return t.nx, t.ny }

// Resolution returns the edge length of the raster cells in degrees.
func (t *LookUpTable) Resolution() float64 { return t.res }

// Wraps reports whether the table covers all longitudes.
func (t *LookUpTable) Wraps() bool { return t.wrap }

// centrePoint is a grid cell centre stored in a k-d tree.
type centrePoint struct {
	X, Y float64
	k    int
}

func (p centrePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(centrePoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

func (p centrePoint) Dims() int { return 2 }

func (p centrePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(centrePoint)
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

type centrePoints []centrePoint

func (p centrePoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p centrePoints) Len() int                              { return len(p) }
func (p centrePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }
func (p centrePoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(centrePlane{centrePoints: p, Dim: d}, kdtree.MedianOfRandoms(centrePlane{centrePoints: p, Dim: d}, 100))
}

// centrePlane sorts centrePoints along one dimension.
type centrePlane struct {
	centrePoints
	kdtree.Dim
}

func (p centrePlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.centrePoints[i].X < p.centrePoints[j].X
	case 1:
		return p.centrePoints[i].Y < p.centrePoints[j].Y
	default:
		panic("illegal dimension")
	}
}

func (p centrePlane) Slice(start, end int) kdtree.SortSlicer {
	return centrePlane{centrePoints: p.centrePoints[start:end], Dim: p.Dim}
}

func (p centrePlane) Swap(i, j int) {
	p.centrePoints[i], p.centrePoints[j] = p.centrePoints[j], p.centrePoints[i]
}
