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
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/gridserve"
	"github.com/spatialmodel/gridserve/cloud"
	"github.com/spf13/cast"
)

// checkInput makes sure that the input dataset is specified and expands
// any environment variables.
func checkInput(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`gridserve: you need to specify an input dataset configuration variable (for example: Input="conc.nc")`)
	}
	return os.ExpandEnv(f), nil
}

// checkOutputFile makes sure that the output file is specified, that it
// has a supported extension, and that its directory exists, and expands
// any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`gridserve: you need to specify an output file configuration variable (for example: OutputFile="output.csv")`)
	}
	f = os.ExpandEnv(f)
	switch ext := strings.ToLower(filepath.Ext(f)); ext {
	case ".csv", ".nc":
	default:
		return f, fmt.Errorf("gridserve: OutputFile extension must be .csv or .nc, not %q", ext)
	}
	if cloud.IsLocation(f) {
		bucketName, _, err := cloud.SplitLocation(f)
		if err != nil {
			return f, err
		}
		if _, err = cloud.OpenBucket(context.TODO(), bucketName); err != nil {
			return f, fmt.Errorf("gridserve: error when checking OutputFile location: %v", err)
		}
		return f, nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("gridserve: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// TargetPoints returns the target points specified by the Points and
// Target configuration variables in cfg.
func TargetPoints(cfg *viper.Viper) (gridserve.TargetPoints, error) {
	sr, err := proj.Parse(os.ExpandEnv(cfg.GetString("Target.Proj")))
	if err != nil {
		return nil, fmt.Errorf("gridserve: parsing Target.Proj: %v", err)
	}
	if f := os.ExpandEnv(cfg.GetString("Points")); f != "" {
		pts, fileSR, err := readPoints(f)
		if err != nil {
			return nil, err
		}
		if fileSR != nil {
			sr = fileSR
		}
		return gridserve.NewPointList(sr, pts...), nil
	}
	b, err := floatSlice(cfg.Get("Target.Bounds"))
	if err != nil {
		return nil, fmt.Errorf("gridserve: parsing Target.Bounds: %v", err)
	}
	if len(b) != 4 {
		return nil, fmt.Errorf("gridserve: Target.Bounds must have 4 values (xmin,ymin,xmax,ymax) but has %d", len(b))
	}
	size, err := intSlice(cfg.Get("Target.Size"))
	if err != nil {
		return nil, fmt.Errorf("gridserve: parsing Target.Size: %v", err)
	}
	if len(size) != 2 {
		return nil, fmt.Errorf("gridserve: Target.Size must have 2 values (width,height) but has %d", len(size))
	}
	return gridserve.NewTargetGrid(&geom.Bounds{
		Min: geom.Point{X: b[0], Y: b[1]},
		Max: geom.Point{X: b[2], Y: b[3]},
	}, size[0], size[1], sr)
}

// readPoints reads target points from a shapefile or GeoJSON file. The
// spatial reference is read from the .prj file accompanying a shapefile,
// and is nil otherwise.
func readPoints(f string) ([]geom.Point, *proj.SR, error) {
	switch strings.ToLower(filepath.Ext(f)) {
	case ".shp":
		d, err := shp.NewDecoder(f)
		if err != nil {
			return nil, nil, fmt.Errorf("gridserve: opening Points file: %v", err)
		}
		defer d.Close()
		var pts []geom.Point
		for {
			g, _, more := d.DecodeRowFields()
			if !more {
				break
			}
			p, err := vertices(g)
			if err != nil {
				return nil, nil, err
			}
			pts = append(pts, p...)
		}
		if err := d.Error(); err != nil {
			return nil, nil, fmt.Errorf("gridserve: reading Points file: %v", err)
		}
		var sr *proj.SR
		if _, err := os.Stat(strings.TrimSuffix(f, filepath.Ext(f)) + ".prj"); err == nil {
			if sr, err = d.SR(); err != nil {
				return nil, nil, fmt.Errorf("gridserve: reading Points spatial reference: %v", err)
			}
		}
		return pts, sr, nil
	case ".json", ".geojson":
		b, err := ioutil.ReadFile(f)
		if err != nil {
			return nil, nil, fmt.Errorf("gridserve: reading Points file: %v", err)
		}
		g, err := geojson.Decode(b)
		if err != nil {
			return nil, nil, fmt.Errorf("gridserve: decoding Points file: %v", err)
		}
		pts, err := vertices(g)
		return pts, nil, err
	default:
		return nil, nil, fmt.Errorf("gridserve: Points file must be a shapefile or GeoJSON file: %s", f)
	}
}

// vertices returns the points making up g.
func vertices(g geom.Geom) ([]geom.Point, error) {
	switch t := g.(type) {
	case geom.Point:
		return []geom.Point{t}, nil
	case geom.MultiPoint:
		return []geom.Point(t), nil
	case geom.LineString:
		return []geom.Point(t), nil
	default:
		return nil, fmt.Errorf("gridserve: invalid Points geometry type %T", g)
	}
}

// intSlice converts a configuration value to a slice of integers.
// Strings are split at commas.
func intSlice(v interface{}) ([]int, error) {
	if s, ok := v.(string); ok {
		v = splitList(s)
	}
	return cast.ToIntSliceE(v)
}

// floatSlice converts a configuration value to a slice of floats.
// Strings are split at commas.
func floatSlice(v interface{}) ([]float64, error) {
	if s, ok := v.(string); ok {
		v = splitList(s)
	}
	s, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, err
	}
	o := make([]float64, len(s))
	for i, x := range s {
		if o[i], err = cast.ToFloat64E(strings.TrimSpace(x)); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func splitList(s string) []string {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	return parts
}
