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


package gridserve

import (
	"fmt"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/gridserve/grid"
)

// Box is an inclusive range of grid cells.
type Box struct {
	IMin, IMax, JMin, JMax int
}

// Width returns the number of cells in the i direction.
func (b Box) Width() int { return b.IMax - b.IMin + 1 }

// Height returns the number of cells in the j direction.
func (b Box) Height() int { return b.JMax - b.JMin + 1 }

func (b Box) String() string {
	return fmt.Sprintf("[%d:%d, %d:%d]", b.IMin, b.IMax, b.JMin, b.JMax)
}

// PixelCell is a source grid cell and the target points nearest to it.
type PixelCell struct {
	I, J int

	// Targets are the indices of the target points, in ascending order.
	Targets []int
}

// PixelRow holds the cells of one source grid row.
type PixelRow struct {
	J          int
	IMin, IMax int

	// Cells are ordered by ascending I.
	Cells []PixelCell
}

// PixelMap maps target points to their nearest source grid cells. Every
// target point is either in exactly one cell or is unmapped.
type PixelMap struct {
	numTargets int
	rows       []PixelRow
	numCells   int
	box        Box
	unverified int

	ni    int
	where []int // linear cell index per target, or -1
}

// NewPixelMap finds the cell of g nearest to each target point. Points
// are transformed into the spatial reference of g if necessary. Points
// outside of the grid domain or that can't be transformed are left
// unmapped.
func NewPixelMap(g grid.HorizontalGrid, pts TargetPoints) (*PixelMap, error) {
	transform, err := transformer(pts.SR(), g.SR())
	if err != nil {
		return nil, err
	}
	ni, _ := g.Shape()
	n := pts.Len()
	pm := &PixelMap{
		numTargets: n,
		ni:         ni,
		where:      make([]int, n),
	}
	targets := make(map[int][]int)
	for k := 0; k < n; k++ {
		pm.where[k] = -1
		p := pts.Point(k)
		if transform != nil {
			x, y, err := transform(p.X, p.Y)
			if err != nil {
				continue
			}
			p = geom.Point{X: x, Y: y}
		}
		m, ok := g.Nearest(p)
		if !ok {
			continue
		}
		if !m.Verified {
			pm.unverified++
		}
		idx := m.J*ni + m.I
		pm.where[k] = idx
		targets[idx] = append(targets[idx], k)
	}

	keys := make([]int, 0, len(targets))
	for idx := range targets {
		keys = append(keys, idx)
	}
	// Linear indices sort by row, then by column.
	sort.Ints(keys)
	pm.numCells = len(keys)
	for _, idx := range keys {
		c := PixelCell{I: idx % ni, J: idx / ni, Targets: targets[idx]}
		if len(pm.rows) == 0 || pm.rows[len(pm.rows)-1].J != c.J {
			pm.rows = append(pm.rows, PixelRow{J: c.J, IMin: c.I, IMax: c.I})
		}
		r := &pm.rows[len(pm.rows)-1]
		r.Cells = append(r.Cells, c)
		r.IMax = c.I
	}
	if len(pm.rows) > 0 {
		pm.box = Box{
			IMin: pm.rows[0].IMin,
			IMax: pm.rows[0].IMax,
			JMin: pm.rows[0].J,
			JMax: pm.rows[len(pm.rows)-1].J,
		}
		for _, r := range pm.rows[1:] {
			if r.IMin < pm.box.IMin {
				pm.box.IMin = r.IMin
			}
			if r.IMax > pm.box.IMax {
				pm.box.IMax = r.IMax
			}
		}
	}
	return pm, nil
}

// transformer returns a function converting positions from src to dst, or
// nil if no conversion is needed. Spatial references are compared by
// identity.
func transformer(src, dst *proj.SR) (proj.Transformer, error) {
	if src == nil || dst == nil || src == dst {
		return nil, nil
	}
	t, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("gridserve: creating target point transform: %v", err)
	}
	return t, nil
}

// NumTargets returns the number of target points.
func (pm *PixelMap) NumTargets() int { return pm.numTargets }

// Empty reports whether no target point was mapped to a cell.
func (pm *PixelMap) Empty() bool { return len(pm.rows) == 0 }

// Rows returns the mapped rows in ascending order of J.
func (pm *PixelMap) Rows() []PixelRow { return pm.rows }

// NumCells returns the number of distinct mapped cells.
func (pm *PixelMap) NumCells() int { return pm.numCells }

// BoundingBox returns the smallest box containing all mapped cells, or
// false if the map is empty.
func (pm *PixelMap) BoundingBox() (Box, bool) { return pm.box, !pm.Empty() }

// Unmapped returns the number of target points with no cell.
func (pm *PixelMap) Unmapped() int {
	n := 0
	for _, idx := range pm.where {
		if idx < 0 {
			n++
		}
	}
	return n
}

// Unverified returns the number of target points whose cell is a best
// guess that was not confirmed to contain the point.
func (pm *PixelMap) Unverified() int { return pm.unverified }

// Cell returns the cell that target point k is mapped to.
func (pm *PixelMap) Cell(k int) (i, j int, ok bool) {
	if k < 0 || k >= len(pm.where) || pm.where[k] < 0 {
		return -1, -1, false
	}
	return pm.where[k] % pm.ni, pm.where[k] / pm.ni, true
}

// forEachCell calls f for every mapped cell, row by row.
func (pm *PixelMap) forEachCell(f func(c PixelCell)) {
	for _, r := range pm.rows {
		for _, c := range r.Cells {
			f(c)
		}
	}
}
