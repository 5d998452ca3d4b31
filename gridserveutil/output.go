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
	"encoding/csv"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/gridserve"
	"github.com/spatialmodel/gridserve/cloud"
)

// fillValue marks missing values in netCDF output.
const fillValue float32 = 9.9692099683868690e+36

// writeOutput writes vals to outputFile, uploading it if it is a blob
// location.
func writeOutput(ctx context.Context, outputFile string, targets gridserve.TargetPoints, vals []float32, units string) error {
	if !cloud.IsLocation(outputFile) {
		return writeFile(outputFile, targets, vals, units)
	}
	tmp, err := ioutil.TempFile("", "gridserve*"+filepath.Ext(outputFile))
	if err != nil {
		return fmt.Errorf("gridserve: creating temporary output file: %v", err)
	}
	tmp.Close()
	defer os.Remove(tmp.Name())
	if err := writeFile(tmp.Name(), targets, vals, units); err != nil {
		return err
	}
	f, err := os.Open(tmp.Name())
	if err != nil {
		return fmt.Errorf("gridserve: %v", err)
	}
	defer f.Close()
	return cloud.Upload(ctx, outputFile, f)
}

func writeFile(path string, targets gridserve.TargetPoints, vals []float32, units string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("gridserve: creating output file: %v", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("gridserve: closing output file: %v", cerr)
		}
	}()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return writeCSV(f, targets, vals)
	case ".nc":
		tg, ok := targets.(*gridserve.TargetGrid)
		if !ok {
			return fmt.Errorf("gridserve: netCDF output requires a target image grid; use a .csv OutputFile with Points")
		}
		return writeNetCDF(f, tg, vals, units)
	default:
		return fmt.Errorf("gridserve: unsupported output file type %s", path)
	}
}

// writeCSV writes one row per target point with columns index, x, y,
// and value.
func writeCSV(w io.Writer, targets gridserve.TargetPoints, vals []float32) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "x", "y", "value"}); err != nil {
		return fmt.Errorf("gridserve: writing CSV: %v", err)
	}
	for k, v := range vals {
		p := targets.Point(k)
		row := []string{
			strconv.Itoa(k),
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Y, 'g', -1, 64),
			strconv.FormatFloat(float64(v), 'g', -1, 32),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("gridserve: writing CSV: %v", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("gridserve: writing CSV: %v", err)
	}
	return nil
}

// writeNetCDF writes the values of an image grid with dimensions (y, x).
// Rows are stored from bottom to top so that the y coordinate variable
// ascends.
func writeNetCDF(f *os.File, tg *gridserve.TargetGrid, vals []float32, units string) error {
	width, height := tg.Size()
	xUnits, yUnits := "", ""
	if sr := tg.SR(); sr != nil && sr.Name == "longlat" {
		xUnits, yUnits = "degrees_east", "degrees_north"
	}

	h := cdf.NewHeader([]string{"y", "x"}, []int{height, width})
	h.AddVariable("x", []string{"x"}, []float64{0})
	h.AddVariable("y", []string{"y"}, []float64{0})
	if xUnits != "" {
		h.AddAttribute("x", "units", xUnits)
		h.AddAttribute("y", "units", yUnits)
	}
	h.AddVariable("value", []string{"y", "x"}, []float32{0})
	h.AddAttribute("value", "_FillValue", []float32{fillValue})
	if units != "" {
		h.AddAttribute("value", "units", units)
	}
	h.Define()

	ff, err := cdf.Create(f, h)
	if err != nil {
		return fmt.Errorf("gridserve: creating netCDF output: %v", err)
	}
	x, y := make([]float64, width), make([]float64, height)
	for i := range x {
		x[i] = tg.Point(i).X
	}
	data := make([]float32, len(vals))
	for j := range y {
		row := height - 1 - j
		y[j] = tg.Point(row * width).Y
		for i := 0; i < width; i++ {
			v := vals[row*width+i]
			if math.IsNaN(float64(v)) {
				v = fillValue
			}
			data[j*width+i] = v
		}
	}
	for _, w := range []struct {
		name string
		data interface{}
	}{{"x", x}, {"y", y}, {"value", data}} {
		if _, err := ff.Writer(w.name, nil, nil).Write(w.data); err != nil && err != io.EOF {
			return fmt.Errorf("gridserve: writing netCDF variable %s: %v", w.name, err)
		}
	}
	return cdf.UpdateNumRecs(f)
}
