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
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/sparse"
)

// Strategy is a way of reading the cells in a PixelMap from storage.
// All strategies return identical values; they differ in the number and
// size of storage reads.
type Strategy int

const (
	// Auto chooses Scanline for local, uncompressed storage and
	// BoundingBox otherwise.
	Auto Strategy = iota

	// BoundingBox reads the bounding box of all mapped cells in a single
	// call. It makes the fewest calls but may read many unused cells.
	BoundingBox

	// Scanline reads the span of mapped cells in each row, one call per
	// row.
	Scanline

	// PixelByPixel reads each mapped cell individually. It is intended
	// for debugging.
	PixelByPixel
)

var strategyNames = map[Strategy]string{
	Auto:         "auto",
	BoundingBox:  "boundingbox",
	Scanline:     "scanline",
	PixelByPixel: "pixel",
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy returns the strategy with the given name.
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return Auto, fmt.Errorf("gridserve: invalid strategy %q; options are auto, boundingbox, scanline, and pixel", name)
}

// Select returns the strategy to use for st. It returns s unless s is
// Auto.
func (s Strategy) Select(st Storage) Strategy {
	if s != Auto {
		return s
	}
	if l, ok := st.(Locality); ok && (l.Remote() || l.Compressed()) {
		return BoundingBox
	}
	return Scanline
}

// Read reads the cells in pm at time index t and vertical index z. The
// result holds one value per target point, with NaN for unmapped points
// and missing data. Any storage error aborts the read.
func (s Strategy) Read(ctx context.Context, st Storage, pm *PixelMap, t, z int) ([]float32, error) {
	out, _, err := s.read(ctx, st, pm, t, z)
	return out, err
}

// read is Read that also returns the number of storage calls.
func (s Strategy) read(ctx context.Context, st Storage, pm *PixelMap, t, z int) ([]float32, int, error) {
	out := make([]float32, pm.NumTargets())
	nan := float32(math.NaN())
	for k := range out {
		out[k] = nan
	}
	if pm.Empty() {
		return out, 0, nil
	}
	calls := 0
	readBlock := func(b Box) (*sparse.DenseArray, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		calls++
		data, err := st.ReadBlock(ctx, t, z, b)
		if err != nil {
			return nil, fmt.Errorf("gridserve: reading block %v at time %d, layer %d: %w", b, t, z, err)
		}
		if len(data.Shape) != 2 || data.Shape[0] != b.Height() || data.Shape[1] != b.Width() {
			return nil, fmt.Errorf("gridserve: reading block %v: storage returned shape %v, want [%d %d]",
				b, data.Shape, b.Height(), b.Width())
		}
		return data, nil
	}

	switch s.Select(st) {
	case BoundingBox:
		box, _ := pm.BoundingBox()
		data, err := readBlock(box)
		if err != nil {
			return nil, calls, err
		}
		pm.forEachCell(func(c PixelCell) {
			fill(out, c.Targets, data.Get(c.J-box.JMin, c.I-box.IMin))
		})
	case Scanline:
		for _, r := range pm.Rows() {
			data, err := readBlock(Box{IMin: r.IMin, IMax: r.IMax, JMin: r.J, JMax: r.J})
			if err != nil {
				return nil, calls, err
			}
			for _, c := range r.Cells {
				fill(out, c.Targets, data.Get(0, c.I-r.IMin))
			}
		}
	case PixelByPixel:
		for _, r := range pm.Rows() {
			for _, c := range r.Cells {
				data, err := readBlock(Box{IMin: c.I, IMax: c.I, JMin: c.J, JMax: c.J})
				if err != nil {
					return nil, calls, err
				}
				fill(out, c.Targets, data.Get(0, 0))
			}
		}
	default:
		return nil, calls, fmt.Errorf("gridserve: invalid strategy %v", s)
	}
	return out, calls, nil
}

// fill sets out at targets to v, leaving NaN in place of missing values.
func fill(out []float32, targets []int, v float64) {
	if math.IsNaN(v) {
		return
	}
	f := float32(v)
	for _, k := range targets {
		out[k] = f
	}
}
