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
	"github.com/ctessum/geom"
)

// neighbors are the offsets of the cells tested after the lookup table's
// guess: edge neighbors first, then corner neighbors.
var neighbors = [...][2]int{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
}

// LookUpTableGrid is a CurvilinearGrid searched through a LookUpTable.
type LookUpTableGrid struct {
	*CurvilinearGrid
	lut *LookUpTable
}

// NewLookUpTableGrid generates a lookup table for g. Most callers should
// use a LookUpTableCache instead.
func NewLookUpTableGrid(g *CurvilinearGrid) (*LookUpTableGrid, error) {
	return newLookUpTableGrid(g, 0)
}

func newLookUpTableGrid(g *CurvilinearGrid, maxCells int) (*LookUpTableGrid, error) {
	lut, err := GenerateLookUpTable(g, maxCells)
	if err != nil {
		return nil, err
	}
	return &LookUpTableGrid{CurvilinearGrid: g, lut: lut}, nil
}

// LookUpTable returns the grid's lookup table.
func (g *LookUpTableGrid) LookUpTable() *LookUpTable { return g.lut }

// FindNearestGridPoint returns the cell containing (lon, lat). The lookup
// table's guess is tested first, followed by its neighbors. If none of them
// contain the position, the guess is returned with Verified set to false.
// It returns false if the lookup table doesn't cover the position.
func (g *LookUpTableGrid) FindNearestGridPoint(lon, lat float64) (Match, bool) {
	i, j, ok := g.lut.Lookup(lon, lat)
	if !ok {
		return Match{I: -1, J: -1}, false
	}
	p := geom.Point{X: g.normalizeLon(lon), Y: lat}
	if c, _ := g.Cell(i, j); g.contains(c, p) {
		return Match{I: i, J: j, Verified: true}, true
	}
	ni, _ := g.Shape()
	for _, d := range neighbors {
		ii := i + d[0]
		if g.lut.wrap {
			ii = (ii + ni) % ni
		}
		if c, ok := g.Cell(ii, j+d[1]); ok && g.contains(c, p) {
			return Match{I: c.I, J: c.J, Verified: true}, true
		}
	}
	return Match{I: i, J: j}, true
}

// contains reports whether c contains p, which is within one turn east of
// the grid's western edge. Cells of a global grid may lie up to one turn
// further east.
func (g *LookUpTableGrid) contains(c *Cell, p geom.Point) bool {
	if c.Contains(p) {
		return true
	}
	return g.lut.wrap && c.Contains(geom.Point{X: p.X + 360, Y: p.Y})
}

// Nearest implements HorizontalGrid. p is a longitude-latitude position.
func (g *LookUpTableGrid) Nearest(p geom.Point) (Match, bool) {
	return g.FindNearestGridPoint(p.X, p.Y)
}

// Transform returns the centre of cell (i, j), or false if the cell is not
// in the grid.
func (g *LookUpTableGrid) Transform(i, j int) (geom.Point, bool) {
	c, ok := g.Cell(i, j)
	if !ok {
		return geom.Point{}, false
	}
	return c.Centre, true
}
