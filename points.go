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

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// TargetPoints is an ordered list of positions at which values are
// requested.
type TargetPoints interface {
	Len() int
	Point(i int) geom.Point

	// SR returns the spatial reference of the points. A nil value means
	// the points are in the spatial reference of the source grid.
	SR() *proj.SR
}

// PointList is an arbitrary list of target points.
type PointList struct {
	points []geom.Point
	sr     *proj.SR
}

// NewPointList returns a list of points in spatial reference sr.
func NewPointList(sr *proj.SR, points ...geom.Point) *PointList {
	return &PointList{points: points, sr: sr}
}

// Len implements TargetPoints.
func (l *PointList) Len() int { return len(l.points) }

// Point implements TargetPoints.
func (l *PointList) Point(i int) geom.Point { return l.points[i] }

// SR implements TargetPoints.
func (l *PointList) SR() *proj.SR { return l.sr }

// TargetGrid is a regular image grid of target points at pixel centres.
// Row 0 is at the top of the image, and points are ordered with the
// column varying fastest.
type TargetGrid struct {
	bounds        *geom.Bounds
	width, height int
	dx, dy        float64
	sr            *proj.SR
}

// NewTargetGrid creates a width x height image grid covering b in spatial
// reference sr.
func NewTargetGrid(b *geom.Bounds, width, height int, sr *proj.SR) (*TargetGrid, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("gridserve: invalid target grid size %dx%d", width, height)
	}
	if b == nil || !(b.Max.X > b.Min.X) || !(b.Max.Y > b.Min.Y) {
		return nil, fmt.Errorf("gridserve: invalid target grid bounds %v", b)
	}
	return &TargetGrid{
		bounds: b.Copy(),
		width:  width,
		height: height,
		dx:     (b.Max.X - b.Min.X) / float64(width),
		dy:     (b.Max.Y - b.Min.Y) / float64(height),
		sr:     sr,
	}, nil
}

// Len implements TargetPoints.
func (g *TargetGrid) Len() int { return g.width * g.height }

// Point implements TargetPoints.
func (g *TargetGrid) Point(i int) geom.Point {
	col, row := i%g.width, i/g.width
	return geom.Point{
		X: g.bounds.Min.X + (float64(col)+0.5)*g.dx,
		Y: g.bounds.Max.Y - (float64(row)+0.5)*g.dy,
	}
}

// SR implements TargetPoints.
func (g *TargetGrid) SR() *proj.SR { return g.sr }

// Size returns the number of columns and rows.
func (g *TargetGrid) Size() (width, height int) { return g.width, g.height }

// Bounds returns the area covered by the grid.
func (g *TargetGrid) Bounds() *geom.Bounds { return g.bounds.Copy() }
