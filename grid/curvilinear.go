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
	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/gridserve/axis"
	"github.com/spatialmodel/gridserve/internal/hash"
	"gonum.org/v1/gonum/floats"
)

// Cell is one cell of a CurvilinearGrid. Its polygon is the quadrilateral
// formed by its four corners.
type Cell struct {
	geom.Polygon

	I, J int

	// Centre is the position of the cell's data point.
	Centre geom.Point
}

// Contains reports whether p is inside of or on the edge of c.
func (c *Cell) Contains(p geom.Point) bool {
	return p.Within(c.Polygon) != geom.Outside
}

// CurvilinearGrid is a grid of longitude-latitude positions that can't be
// separated into two axes.
type CurvilinearGrid struct {
	ni, nj   int
	cells    []*Cell
	extent   *geom.Bounds
	meanArea float64
	key      string
}

// NewCurvilinearGrid creates a grid from the longitudes and latitudes of
// its cell centres, stored with i varying fastest. Cell corners are the
// averages of the four surrounding centres, with centres linearly
// extrapolated beyond the grid edges. Longitudes are unwrapped so that
// neighboring centres differ by less than 180 degrees.
func NewCurvilinearGrid(lon, lat []float64, ni, nj int) (*CurvilinearGrid, error) {
	if ni < 2 || nj < 2 {
		return nil, fmt.Errorf("grid: %w: curvilinear grid must be at least 2x2, not %dx%d", ErrInvalidGrid, ni, nj)
	}
	if len(lon) != ni*nj || len(lat) != ni*nj {
		return nil, fmt.Errorf("grid: %w: %dx%d curvilinear grid with %d longitudes and %d latitudes",
			ErrDimensionMismatch, ni, nj, len(lon), len(lat))
	}
	for k := range lon {
		if !isFinite(lon[k]) || !isFinite(lat[k]) {
			return nil, fmt.Errorf("grid: %w: non-finite position (%g, %g) at cell (%d, %d)",
				ErrInvalidGrid, lon[k], lat[k], k%ni, k/ni)
		}
	}

	ulon := unwrap(lon, ni, nj)
	cx := corners(ulon, ni, nj)
	cy := corners(lat, ni, nj)
	for k, y := range cy {
		cy[k] = math.Max(-90, math.Min(90, y))
	}

	g := &CurvilinearGrid{
		ni:     ni,
		nj:     nj,
		cells:  make([]*Cell, ni*nj),
		extent: geom.NewBounds(),
		key:    hash.Floats(fmt.Sprintf("curvilinear %dx%d", ni, nj), lon, lat),
	}
	areas := make([]float64, ni*nj)
	corner := func(i, j int) geom.Point {
		k := j*(ni+1) + i
		return geom.Point{X: cx[k], Y: cy[k]}
	}
	for j := 0; j < nj; j++ {
		for i := 0; i < ni; i++ {
			k := j*ni + i
			c := &Cell{
				Polygon: geom.Polygon{{
					corner(i, j),
					corner(i+1, j),
					corner(i+1, j+1),
					corner(i, j+1),
					corner(i, j),
				}},
				I:      i,
				J:      j,
				Centre: geom.Point{X: ulon[k], Y: lat[k]},
			}
			g.cells[k] = c
			g.extent.Extend(c.Bounds())
			areas[k] = c.Area()
		}
	}
	g.meanArea = floats.Sum(areas) / float64(len(areas))
	return g, nil
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// unwrap adjusts longitudes by multiples of 360 so that each differs by
// less than 180 degrees from its already-adjusted neighbor to the left,
// or above for the first column.
func unwrap(lon []float64, ni, nj int) []float64 {
	out := make([]float64, len(lon))
	for j := 0; j < nj; j++ {
		for i := 0; i < ni; i++ {
			k := j*ni + i
			switch {
			case i > 0:
				out[k] = axis.NextEquivalentLongitude(out[k-1]-180, lon[k])
			case j > 0:
				out[k] = axis.NextEquivalentLongitude(out[k-ni]-180, lon[k])
			default:
				out[k] = lon[k]
			}
		}
	}
	return out
}

// corners returns the (ni+1)*(nj+1) corner values surrounding the ni*nj
// centre values v.
func corners(v []float64, ni, nj int) []float64 {
	var at func(i, j int) float64
	at = func(i, j int) float64 {
		switch {
		case i < 0:
			return 2*at(0, j) - at(1, j)
		case i >= ni:
			return 2*at(ni-1, j) - at(ni-2, j)
		case j < 0:
			return 2*at(i, 0) - at(i, 1)
		case j >= nj:
			return 2*at(i, nj-1) - at(i, nj-2)
		}
		return v[j*ni+i]
	}
	out := make([]float64, (ni+1)*(nj+1))
	for j := 0; j <= nj; j++ {
		for i := 0; i <= ni; i++ {
			out[j*(ni+1)+i] = (at(i-1, j-1) + at(i, j-1) + at(i-1, j) + at(i, j)) / 4
		}
	}
	return out
}

// Shape returns the number of cells in the i and j directions.
func (g *CurvilinearGrid) Shape() (ni, nj int) { return g.ni, g.nj }

// SR returns the longitude-latitude spatial reference.
func (g *CurvilinearGrid) SR() *proj.SR { return lonLat }

// Cell returns cell (i, j), or false if it is not in the grid.
func (g *CurvilinearGrid) Cell(i, j int) (*Cell, bool) {
	if i < 0 || i >= g.ni || j < 0 || j >= g.nj {
		return nil, false
	}
	return g.cells[j*g.ni+i], true
}

// Cells returns all cells, with i varying fastest.
func (g *CurvilinearGrid) Cells() []*Cell { return g.cells }

// Extent returns the bounds of all cell corners, in unwrapped longitudes.
func (g *CurvilinearGrid) Extent() *geom.Bounds { return g.extent.Copy() }

// MeanCellArea returns the mean area of the cells in square degrees.
func (g *CurvilinearGrid) MeanCellArea() float64 { return g.meanArea }

// Key returns an identity key derived from the grid's positions. Grids
// with identical positions have identical keys.
func (g *CurvilinearGrid) Key() string { return g.key }

// normalizeLon returns the longitude equivalent to lon within the grid's
// unwrapped longitude range.
func (g *CurvilinearGrid) normalizeLon(lon float64) float64 {
	return axis.NextEquivalentLongitude(g.extent.Min.X, lon)
}
