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


package ncstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/gridserve"
	"github.com/spatialmodel/gridserve/axis"
	"github.com/spatialmodel/gridserve/grid"
)

// Variable is a gridded variable in a Dataset with dimensions
// ([time,] [layer,] y, x). It implements gridserve.Source.
type Variable struct {
	ds      *Dataset
	name    string
	dims    []string
	lengths []int

	// tDim and zDim are the positions of the time and layer dimensions,
	// or -1 if the variable does not have them.
	tDim, zDim int

	conv conversion
	grid grid.Descriptor
}

// Variable returns the variable called name, after discovering its
// horizontal grid.
func (d *Dataset) Variable(name string) (*Variable, error) {
	if !d.hasVariable(name) {
		return nil, fmt.Errorf("ncstore: variable %s not in %s", name, d.Name)
	}
	if _, ok := d.file.Header.ZeroValue(name, 1).(string); ok {
		return nil, fmt.Errorf("ncstore: variable %s in %s is a character variable", name, d.Name)
	}
	v := &Variable{
		ds:      d,
		name:    name,
		dims:    d.file.Header.Dimensions(name),
		lengths: d.lengths(name),
		tDim:    -1,
		zDim:    -1,
	}
	switch len(v.dims) {
	case 2:
	case 3:
		if d.file.Header.IsRecordVariable(name) || d.isTime(v.dims[0]) {
			v.tDim = 0
		} else {
			v.zDim = 0
		}
	case 4:
		v.tDim, v.zDim = 0, 1
	default:
		return nil, fmt.Errorf("ncstore: variable %s in %s has %d dimensions; it must have between 2 and 4",
			name, d.Name, len(v.dims))
	}
	v.conv = newConversion(d, name)

	discover := discoverGrid
	if d.discover != nil {
		discover = d.discover
	}
	g, err := discover(v)
	if err != nil {
		return nil, err
	}
	v.grid = g
	ni, nj := g.Shape()
	if ni != v.lengths[len(v.lengths)-1] || nj != v.lengths[len(v.lengths)-2] {
		return nil, fmt.Errorf("ncstore: variable %s: %w: grid shape (%d, %d) does not match dimensions %v",
			name, grid.ErrDimensionMismatch, ni, nj, v.lengths)
	}
	return v, nil
}

// isTime reports whether dimension dim holds times, judging by its name
// and by the attributes of its coordinate variable.
func (d *Dataset) isTime(dim string) bool {
	switch strings.ToLower(dim) {
	case "time", "times", "t", "date", "record":
		return true
	}
	if strings.EqualFold(attrString(d.Attribute(dim, "axis")), "T") {
		return true
	}
	return strings.Contains(attrString(d.Attribute(dim, "units")), " since ")
}

// Name returns the name of the variable.
func (v *Variable) Name() string { return v.name }

// Dimensions returns the dimension names of the variable.
func (v *Variable) Dimensions() []string { return v.dims }

// Units returns the units attribute of the variable.
func (v *Variable) Units() string { return attrString(v.ds.Attribute(v.name, "units")) }

// Shape returns the number of grid cells in the x and y directions.
func (v *Variable) Shape() (ni, nj int) {
	n := len(v.lengths)
	return v.lengths[n-1], v.lengths[n-2]
}

// NumTimes returns the length of the time dimension, or 1 if the
// variable does not have one.
func (v *Variable) NumTimes() int {
	if v.tDim < 0 {
		return 1
	}
	return v.lengths[v.tDim]
}

// NumLayers returns the length of the layer dimension, or 1 if the
// variable does not have one.
func (v *Variable) NumLayers() int {
	if v.zDim < 0 {
		return 1
	}
	return v.lengths[v.zDim]
}

// Grid implements gridserve.Source.
func (v *Variable) Grid() grid.Descriptor { return v.grid }

// Remote implements gridserve.Locality.
func (v *Variable) Remote() bool { return v.ds.remote }

// Compressed implements gridserve.Locality. netCDF classic files are
// never compressed.
func (v *Variable) Compressed() bool { return false }

// ReadBlock implements gridserve.Storage. Rows of the block are read as
// a single contiguous span of the file.
func (v *Variable) ReadBlock(ctx context.Context, t, z int, b gridserve.Box) (*sparse.DenseArray, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ni, nj := v.Shape()
	if t < 0 || t >= v.NumTimes() || z < 0 || z >= v.NumLayers() {
		return nil, fmt.Errorf("ncstore: variable %s: %w: time %d, layer %d not in [0, %d), [0, %d)",
			v.name, axis.ErrIndexOutOfRange, t, z, v.NumTimes(), v.NumLayers())
	}
	if b.IMin < 0 || b.JMin < 0 || b.IMax >= ni || b.JMax >= nj || b.IMin > b.IMax || b.JMin > b.JMax {
		return nil, fmt.Errorf("ncstore: variable %s: %w: block %v not within (%d, %d) grid",
			v.name, axis.ErrIndexOutOfRange, b, ni, nj)
	}
	n := len(v.dims)
	begin, end := make([]int, n), make([]int, n)
	if v.tDim >= 0 {
		begin[v.tDim], end[v.tDim] = t, t
	}
	if v.zDim >= 0 {
		begin[v.zDim], end[v.zDim] = z, z
	}
	begin[n-2], end[n-2] = b.JMin, b.JMax
	begin[n-1], end[n-1] = b.IMin, b.IMax

	span := (b.JMax-b.JMin)*ni + b.IMax - b.IMin + 1
	r := v.ds.file.Reader(v.name, begin, end)
	buf := r.Zero(span)
	nr, err := r.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("ncstore: reading variable %s block %v: %v", v.name, b, err)
	}
	if nr < span {
		return nil, fmt.Errorf("ncstore: reading variable %s block %v: read %d of %d values", v.name, b, nr, span)
	}
	raw := toFloats(buf)

	w, h := b.Width(), b.Height()
	out := sparse.ZerosDense(h, w)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			out.Elements[j*w+i] = v.conv.apply(raw[j*ni+i])
		}
	}
	return out, nil
}
