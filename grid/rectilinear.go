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

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/gridserve/axis"
	"github.com/spatialmodel/gridserve/internal/hash"
)

// RectilinearGrid is a grid whose cell positions are given by two
// independent axes.
type RectilinearGrid struct {
	x, y   axis.Axis
	sr     *proj.SR
	extent *geom.Bounds
}

// NewRectilinearGrid creates a grid from its x and y axes. sr is the
// spatial reference of the axis values; if it is nil the values are
// assumed to be longitudes and latitudes.
func NewRectilinearGrid(x, y axis.Axis, sr *proj.SR) (*RectilinearGrid, error) {
	if err := axisCheck("x", x); err != nil {
		return nil, err
	}
	if err := axisCheck("y", y); err != nil {
		return nil, err
	}
	if sr == nil {
		sr = lonLat
	}
	return &RectilinearGrid{
		x:  x,
		y:  y,
		sr: sr,
		extent: &geom.Bounds{
			Min: geom.Point{X: x.MinValue(), Y: y.MinValue()},
			Max: geom.Point{X: x.MaxValue(), Y: y.MaxValue()},
		},
	}, nil
}

// X returns the x axis.
func (g *RectilinearGrid) X() axis.Axis { return g.x }

// Y returns the y axis.
func (g *RectilinearGrid) Y() axis.Axis { return g.y }

// SR returns the spatial reference of the grid.
func (g *RectilinearGrid) SR() *proj.SR { return g.sr }

// Shape returns the number of x and y values.
func (g *RectilinearGrid) Shape() (ni, nj int) { return g.x.Len(), g.y.Len() }

// Size returns the number of cells in the grid.
func (g *RectilinearGrid) Size() int { return g.x.Len() * g.y.Len() }

// Extent returns the bounds of the grid domain, which extends half a cell
// beyond the outermost cell centers.
func (g *RectilinearGrid) Extent() *geom.Bounds { return g.extent.Copy() }

// Transform returns the position of cell (i, j), or false if the cell is
// not in the grid.
func (g *RectilinearGrid) Transform(i, j int) (geom.Point, bool) {
	x, err := g.x.CoordinateValue(i)
	if err != nil {
		return geom.Point{}, false
	}
	y, err := g.y.CoordinateValue(j)
	if err != nil {
		return geom.Point{}, false
	}
	return geom.Point{X: x, Y: y}, true
}

// InverseTransform returns the cell whose position is exactly p.
func (g *RectilinearGrid) InverseTransform(p geom.Point) (i, j int, ok bool) {
	if i, ok = g.x.ExactIndex(p.X); !ok {
		return -1, -1, false
	}
	if j, ok = g.y.ExactIndex(p.Y); !ok {
		return -1, -1, false
	}
	return i, j, true
}

// FindNearest returns the cell nearest to p, or false if p is outside of
// the grid domain.
func (g *RectilinearGrid) FindNearest(p geom.Point) (i, j int, ok bool) {
	if i, ok = g.x.NearestIndex(p.X); !ok {
		return -1, -1, false
	}
	if j, ok = g.y.NearestIndex(p.Y); !ok {
		return -1, -1, false
	}
	return i, j, true
}

// Nearest implements HorizontalGrid. Matches are always verified.
func (g *RectilinearGrid) Nearest(p geom.Point) (Match, bool) {
	i, j, ok := g.FindNearest(p)
	return Match{I: i, J: j, Verified: ok}, ok
}

// Position returns the position of the cell at c, which must have two
// coordinates.
func (g *RectilinearGrid) Position(c GridCoordinates) (geom.Point, bool, error) {
	if err := c.check(2); err != nil {
		return geom.Point{}, false, err
	}
	p, ok := g.Transform(c[0], c[1])
	return p, ok, nil
}

// Index returns the linear index of the cell at c, with i varying
// fastest.
func (g *RectilinearGrid) Index(c GridCoordinates) (int, error) {
	if err := c.check(2); err != nil {
		return -1, err
	}
	nx, ny := g.Shape()
	if c[0] < 0 || c[0] >= nx || c[1] < 0 || c[1] >= ny {
		return -1, fmt.Errorf("grid: %w: (%d, %d) not in %dx%d grid", axis.ErrIndexOutOfRange, c[0], c[1], nx, ny)
	}
	return c[1]*nx + c[0], nil
}

// Coordinates returns the grid coordinates of the cell at linear index
// index. It is the inverse of Index.
func (g *RectilinearGrid) Coordinates(index int) (GridCoordinates, error) {
	if index < 0 || index >= g.Size() {
		return nil, fmt.Errorf("grid: %w: %d not in [0, %d)", axis.ErrIndexOutOfRange, index, g.Size())
	}
	nx := g.x.Len()
	return GridCoordinates{index % nx, index / nx}, nil
}

// Key returns an identity key for the grid.
func (g *RectilinearGrid) Key() string {
	return hash.Floats("rectilinear", g.x.Values(), g.y.Values())
}
