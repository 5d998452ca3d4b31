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
	"math"
	"strings"
)

// conversion turns stored values into physical values following the CF
// conventions for packed data and missing values.
type conversion struct {
	scale, offset      float64
	missing            []float64
	validMin, validMax float64
}

// newConversion reads the packing and missing value attributes of
// variable v.
func newConversion(d *Dataset, v string) conversion {
	c := conversion{
		scale:    1,
		validMin: math.Inf(-1),
		validMax: math.Inf(1),
	}
	if s := attrFloats(d.Attribute(v, "scale_factor")); len(s) == 1 {
		c.scale = s[0]
	}
	if o := attrFloats(d.Attribute(v, "add_offset")); len(o) == 1 {
		c.offset = o[0]
	}
	if f := attrFloats(d.file.Header.FillValue(v)); len(f) == 1 {
		c.missing = append(c.missing, f[0])
	}
	c.missing = append(c.missing, attrFloats(d.Attribute(v, "_FillValue"))...)
	c.missing = append(c.missing, attrFloats(d.Attribute(v, "missing_value"))...)
	if r := attrFloats(d.Attribute(v, "valid_range")); len(r) == 2 {
		c.validMin, c.validMax = r[0], r[1]
	}
	if m := attrFloats(d.Attribute(v, "valid_min")); len(m) == 1 {
		c.validMin = m[0]
	}
	if m := attrFloats(d.Attribute(v, "valid_max")); len(m) == 1 {
		c.validMax = m[0]
	}
	return c
}

// apply returns the physical value of stored value raw, or NaN if raw is
// missing.
func (c conversion) apply(raw float64) float64 {
	if math.IsNaN(raw) || raw < c.validMin || raw > c.validMax {
		return math.NaN()
	}
	for _, m := range c.missing {
		if raw == m {
			return math.NaN()
		}
	}
	return raw*c.scale + c.offset
}

// attrFloats converts a numeric attribute or fill value to float64s.
// Bytes are signed, as in netCDF. Strings and nil return nil.
func attrFloats(a interface{}) []float64 {
	var o []float64
	switch v := a.(type) {
	case []uint8:
		o = make([]float64, len(v))
		for i, x := range v {
			o[i] = float64(int8(x))
		}
	case []int16:
		o = make([]float64, len(v))
		for i, x := range v {
			o[i] = float64(x)
		}
	case []int32:
		o = make([]float64, len(v))
		for i, x := range v {
			o[i] = float64(x)
		}
	case []float32:
		o = make([]float64, len(v))
		for i, x := range v {
			o[i] = float64(x)
		}
	case []float64:
		o = make([]float64, len(v))
		copy(o, v)
	case int8:
		o = []float64{float64(v)}
	case uint8:
		o = []float64{float64(int8(v))}
	case int16:
		o = []float64{float64(v)}
	case int32:
		o = []float64{float64(v)}
	case float32:
		o = []float64{float64(v)}
	case float64:
		o = []float64{v}
	}
	return o
}

// attrString returns a string attribute, or "" if it is missing or not
// a string.
func attrString(a interface{}) string {
	s, _ := a.(string)
	return strings.TrimRight(s, "\x00")
}

// toFloats converts a buffer read from a cdf.Reader to float64s.
func toFloats(buf interface{}) []float64 {
	switch b := buf.(type) {
	case string:
		o := make([]float64, len(b))
		for i := 0; i < len(b); i++ {
			o[i] = float64(b[i])
		}
		return o
	default:
		return attrFloats(b)
	}
}
