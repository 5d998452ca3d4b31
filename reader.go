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
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridserve/grid"
)

// Reader samples sources at target points.
type Reader struct {
	// Strategy is the way storage is read. The default is Auto.
	Strategy Strategy

	// LUTs caches lookup tables for curvilinear grids. It should be shared
	// among all Readers in a process. If nil, the Reader creates its own.
	LUTs *grid.LookUpTableCache

	// Log receives diagnostic information. If nil, the standard logger
	// is used.
	Log logrus.FieldLogger

	lutInit sync.Once
}

// NewReader returns a Reader using strategy s and lookup table cache luts.
func NewReader(s Strategy, luts *grid.LookUpTableCache) *Reader {
	return &Reader{
		Strategy: s,
		LUTs:     luts,
		Log:      logrus.StandardLogger(),
	}
}

func (r *Reader) log() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

func (r *Reader) luts() *grid.LookUpTableCache {
	r.lutInit.Do(func() {
		if r.LUTs == nil {
			r.LUTs = grid.NewLookUpTableCache()
			r.LUTs.Log = r.log()
		}
	})
	return r.LUTs
}

// PixelMap maps pts onto grid d.
func (r *Reader) PixelMap(d grid.Descriptor, pts TargetPoints) (*PixelMap, error) {
	g, err := grid.Resolve(d, r.luts())
	if err != nil {
		return nil, fmt.Errorf("gridserve: %w", err)
	}
	pm, err := NewPixelMap(g, pts)
	if err != nil {
		return nil, err
	}
	box, _ := pm.BoundingBox()
	r.log().WithFields(logrus.Fields{
		"targets":    pm.NumTargets(),
		"unmapped":   pm.Unmapped(),
		"cells":      pm.NumCells(),
		"rows":       len(pm.Rows()),
		"bbox":       box.String(),
		"unverified": pm.Unverified(),
	}).Debug("built pixel map")
	return pm, nil
}

// Read returns the values of src at time index t and vertical index z
// for each of the target points, in order. Points outside of the source
// grid and missing data are NaN.
func (r *Reader) Read(ctx context.Context, src Source, pts TargetPoints, t, z int) ([]float32, error) {
	pm, err := r.PixelMap(src.Grid(), pts)
	if err != nil {
		return nil, err
	}
	if pm.Empty() {
		out := make([]float32, pm.NumTargets())
		nan := float32(math.NaN())
		for k := range out {
			out[k] = nan
		}
		r.log().WithField("targets", pm.NumTargets()).Debug("no target points on source grid")
		return out, nil
	}
	s := r.Strategy.Select(src)
	out, calls, err := s.read(ctx, src, pm, t, z)
	if err != nil {
		return nil, err
	}
	r.log().WithFields(logrus.Fields{
		"strategy": s.String(),
		"calls":    calls,
	}).Debug("read source data")
	return out, nil
}
