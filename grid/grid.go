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


// Package grid holds two-dimensional horizontal grids and the machinery
// used to find the grid cell nearest to an arbitrary position.
package grid

import (
	"errors"
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/gridserve/axis"
)

var (
	// ErrDimensionMismatch is returned when the number of grid coordinates
	// does not match the dimension of the grid.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidGrid is returned when grid coordinate data can't be used to
	// construct a grid.
	ErrInvalidGrid = errors.New("invalid grid")
)

// GridCoordinates are integer indices into a grid, ordered (i, j, ...)
// with i varying fastest in linearized enumerations.
type GridCoordinates []int

// check returns ErrDimensionMismatch unless c has length dims.
func (c GridCoordinates) check(dims int) error {
	if len(c) != dims {
		return fmt.Errorf("grid: %w: have %d coordinates, want %d", ErrDimensionMismatch, len(c), dims)
	}
	return nil
}

// Match is the result of a nearest-cell search.
type Match struct {
	I, J int

	// Verified is false when the cell was returned as a best guess
	// without confirming that it contains the search position.
	Verified bool
}

// HorizontalGrid is a two-dimensional grid that can locate the cell
// nearest to a position given in its spatial reference.
type HorizontalGrid interface {
	// Shape returns the number of cells in the i and j directions.
	Shape() (ni, nj int)

	// SR returns the spatial reference of positions on the grid.
	SR() *proj.SR

	// Nearest returns the cell nearest to p, or false if p is outside
	// of the grid domain.
	Nearest(p geom.Point) (Match, bool)
}

// Descriptor describes the horizontal grid of a dataset variable. It is
// either a *RectilinearGrid or a *CurvilinearGrid.
type Descriptor interface {
	Shape() (ni, nj int)
	descriptor()
}

func (*RectilinearGrid) descriptor() {}
func (*CurvilinearGrid) descriptor() {}

// Resolve returns the HorizontalGrid used to search d. Curvilinear grids
// are wrapped in a lookup table from cache.
func Resolve(d Descriptor, cache *LookUpTableCache) (HorizontalGrid, error) {
	switch g := d.(type) {
	case *RectilinearGrid:
		return g, nil
	case *CurvilinearGrid:
		if cache == nil {
			return nil, fmt.Errorf("grid: no lookup table cache for curvilinear grid")
		}
		return cache.Get(g)
	default:
		return nil, fmt.Errorf("grid: unsupported descriptor type %T", d)
	}
}

var lonLat *proj.SR

func init() {
	var err error
	lonLat, err = proj.Parse("+proj=longlat")
	if err != nil {
		panic(err)
	}
}

// LonLat returns the geographic spatial reference used by curvilinear
// grids.
func LonLat() *proj.SR { return lonLat }

// axisCheck is shared by the constructors that take axes.
func axisCheck(name string, a axis.Axis) error {
	if a == nil {
		return fmt.Errorf("grid: %w: missing %s axis", ErrInvalidGrid, name)
	}
	return nil
}
