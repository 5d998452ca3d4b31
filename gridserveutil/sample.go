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


package gridserveutil

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridserve"
	"github.com/spatialmodel/gridserve/axis"
	"github.com/spatialmodel/gridserve/grid"
	"github.com/spatialmodel/gridserve/ncstore"
)

var (
	// catalog caches the grids of the datasets read by this process.
	catalog = ncstore.NewCatalog(64)

	// luts caches curvilinear lookup tables for the life of the process.
	luts = grid.NewLookUpTableCache()
)

// Info writes a description of variable in the dataset at input to w. If
// variable is empty, all gridded variables are described.
func Info(ctx context.Context, w io.Writer, input, variable string) error {
	d, err := catalog.Open(ctx, input)
	if err != nil {
		return err
	}
	defer d.Close()
	fmt.Fprintf(w, "%s: %d records\n", input, d.NumRecords())
	vars := []string{variable}
	if variable == "" {
		vars = d.Variables()
	}
	for _, name := range vars {
		v, err := d.Variable(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %v: %d times, %d layers, units %q\n",
			name, v.Dimensions(), v.NumTimes(), v.NumLayers(), v.Units())
		describeGrid(w, v.Grid())
	}
	return nil
}

func describeGrid(w io.Writer, d grid.Descriptor) {
	ni, nj := d.Shape()
	switch g := d.(type) {
	case *grid.RectilinearGrid:
		e := g.Extent()
		fmt.Fprintf(w, "\trectilinear %dx%d, x %s, y %s, %s\n", ni, nj,
			axisKind(g.X()), axisKind(g.Y()), srName(g))
		fmt.Fprintf(w, "\textent (%g, %g) to (%g, %g)\n", e.Min.X, e.Min.Y, e.Max.X, e.Max.Y)
	case *grid.CurvilinearGrid:
		e := g.Extent()
		fmt.Fprintf(w, "\tcurvilinear %dx%d, mean cell area %.4g square degrees\n", ni, nj, g.MeanCellArea())
		fmt.Fprintf(w, "\textent (%g, %g) to (%g, %g)\n", e.Min.X, e.Min.Y, e.Max.X, e.Max.Y)
	}
}

func axisKind(a axis.Axis) string {
	kind := "irregular"
	if _, ok := a.(*axis.Regular); ok {
		kind = "regular"
	}
	if a.IsLongitude() {
		kind += " longitude"
	}
	return kind
}

func srName(g grid.HorizontalGrid) string {
	if g.SR() == grid.LonLat() {
		return "longitude-latitude"
	}
	return "projection " + g.SR().Name
}

// Sample reads variable from the dataset at input at time index t and
// layer index z for each of the target points, using strategy st, and
// writes the results to outputFile.
func Sample(ctx context.Context, input, variable string, t, z int, st gridserve.Strategy, targets gridserve.TargetPoints, outputFile string) error {
	start := time.Now()
	d, err := catalog.Open(ctx, input)
	if err != nil {
		return err
	}
	defer d.Close()
	v, err := d.Variable(variable)
	if err != nil {
		return err
	}
	if t < 0 || t >= v.NumTimes() {
		return fmt.Errorf("gridserve: TimeIndex %d out of range [0, %d)", t, v.NumTimes())
	}
	if z < 0 || z >= v.NumLayers() {
		return fmt.Errorf("gridserve: LayerIndex %d out of range [0, %d)", z, v.NumLayers())
	}

	r := gridserve.NewReader(st, luts)
	vals, err := r.Read(ctx, v, targets, t, z)
	if err != nil {
		return err
	}
	var missing int
	for _, val := range vals {
		if math.IsNaN(float64(val)) {
			missing++
		}
	}
	if err := writeOutput(ctx, outputFile, targets, vals, v.Units()); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"variable": variable,
		"targets":  len(vals),
		"missing":  missing,
		"output":   outputFile,
		"duration": time.Since(start),
	}).Info("sampled variable")
	return nil
}
