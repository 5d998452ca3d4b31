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
	"fmt"
	"io"
	"strings"

	"github.com/ctessum/geom/proj"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridserve/axis"
	"github.com/spatialmodel/gridserve/grid"
)

// discoverGrid finds the horizontal grid of v. A "coordinates" attribute
// naming two-dimensional longitude and latitude variables defines a
// curvilinear grid; otherwise the coordinate variables of the two
// innermost dimensions define a rectilinear grid.
func discoverGrid(v *Variable) (grid.Descriptor, error) {
	d := v.ds
	xDim, yDim := v.dims[len(v.dims)-1], v.dims[len(v.dims)-2]
	ni, nj := v.Shape()

	if lon, lat := d.auxiliaryCoordinates(v.name, xDim, yDim); lon != "" && lat != "" {
		lonV, err := d.readAll(lon)
		if err != nil {
			return nil, err
		}
		latV, err := d.readAll(lat)
		if err != nil {
			return nil, err
		}
		g, err := grid.NewCurvilinearGrid(lonV, latV, ni, nj)
		if err != nil {
			return nil, fmt.Errorf("ncstore: variable %s: %w", v.name, err)
		}
		d.log().WithFields(logrus.Fields{
			"variable":  v.name,
			"longitude": lon,
			"latitude":  lat,
			"shape":     fmt.Sprintf("%dx%d", ni, nj),
		}).Debug("found curvilinear grid")
		return g, nil
	}

	x, err := d.coordinateAxis(v.name, xDim)
	if err != nil {
		return nil, err
	}
	y, err := d.coordinateAxis(v.name, yDim)
	if err != nil {
		return nil, err
	}
	sr, err := d.spatialReference(v.name, xDim, yDim)
	if err != nil {
		return nil, err
	}
	g, err := grid.NewRectilinearGrid(x, y, sr)
	if err != nil {
		return nil, fmt.Errorf("ncstore: variable %s: %w", v.name, err)
	}
	d.log().WithFields(logrus.Fields{
		"variable": v.name,
		"x":        xDim,
		"y":        yDim,
		"shape":    fmt.Sprintf("%dx%d", ni, nj),
	}).Debug("found rectilinear grid")
	return g, nil
}

// auxiliaryCoordinates returns the two-dimensional longitude and latitude
// variables listed in the coordinates attribute of variable v.
func (d *Dataset) auxiliaryCoordinates(v, xDim, yDim string) (lon, lat string) {
	for _, c := range strings.Fields(attrString(d.Attribute(v, "coordinates"))) {
		dims := d.file.Header.Dimensions(c)
		if len(dims) != 2 || dims[0] != yDim || dims[1] != xDim {
			continue
		}
		switch {
		case d.isLongitude(c):
			lon = c
		case d.isLatitude(c):
			lat = c
		}
	}
	return lon, lat
}

// coordinateAxis returns the axis defined by the coordinate variable of
// dimension dim.
func (d *Dataset) coordinateAxis(v, dim string) (axis.Axis, error) {
	if dims := d.file.Header.Dimensions(dim); len(dims) != 1 || dims[0] != dim {
		return nil, fmt.Errorf("ncstore: variable %s: %w: no coordinate variable for dimension %s",
			v, grid.ErrInvalidGrid, dim)
	}
	vals, err := d.readAll(dim)
	if err != nil {
		return nil, err
	}
	a, err := axis.FromValues(vals, d.isLongitude(dim))
	if err != nil {
		return nil, fmt.Errorf("ncstore: coordinate variable %s: %w", dim, err)
	}
	return a, nil
}

// spatialReference returns the spatial reference of a rectilinear grid.
// Longitude and latitude axes are geographic. Otherwise the projection is
// read from a "proj4" or "spatial_ref" attribute of the variable, of the
// grid mapping variable it names, or of the dataset. Grids without
// projection information are assumed to be geographic.
func (d *Dataset) spatialReference(v, xDim, yDim string) (*proj.SR, error) {
	if d.isLongitude(xDim) && d.isLatitude(yDim) {
		return grid.LonLat(), nil
	}
	holders := []string{v}
	if gm := attrString(d.Attribute(v, "grid_mapping")); gm != "" {
		holders = append(holders, gm)
	}
	holders = append(holders, "")
	for _, h := range holders {
		for _, a := range []string{"proj4", "proj4text", "spatial_ref", "crs_wkt"} {
			s := attrString(d.Attribute(h, a))
			if s == "" {
				continue
			}
			sr, err := proj.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("ncstore: variable %s: parsing projection: %v", v, err)
			}
			return sr, nil
		}
	}
	d.log().WithField("variable", v).Warn("no projection information; assuming longitude-latitude coordinates")
	return grid.LonLat(), nil
}

// readAll reads all values of variable v.
func (d *Dataset) readAll(v string) ([]float64, error) {
	r := d.file.Reader(v, nil, nil)
	if r == nil {
		return nil, fmt.Errorf("ncstore: variable %s not in %s", v, d.Name)
	}
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("ncstore: reading variable %s: %v", v, err)
	}
	return toFloats(buf), nil
}

func (d *Dataset) isLongitude(v string) bool {
	switch strings.ToLower(attrString(d.Attribute(v, "units"))) {
	case "degrees_east", "degree_east", "degrees_e", "degree_e", "degreee", "degreese":
		return true
	}
	if strings.EqualFold(attrString(d.Attribute(v, "standard_name")), "longitude") {
		return true
	}
	switch strings.ToLower(v) {
	case "lon", "longitude", "xlong", "nav_lon":
		return true
	}
	return false
}

func (d *Dataset) isLatitude(v string) bool {
	switch strings.ToLower(attrString(d.Attribute(v, "units"))) {
	case "degrees_north", "degree_north", "degrees_n", "degree_n", "degreen", "degreesn":
		return true
	}
	if strings.EqualFold(attrString(d.Attribute(v, "standard_name")), "latitude") {
		return true
	}
	switch strings.ToLower(v) {
	case "lat", "latitude", "xlat", "nav_lat":
		return true
	}
	return false
}
