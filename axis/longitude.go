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

package axis

import "math"

// NextEquivalentLongitude returns the smallest longitude greater than or
// equal to reference that is congruent to lon modulo 360.
func NextEquivalentLongitude(reference, lon float64) float64 {
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return lon
	}
	d := math.Mod(lon-reference, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 { // -tiny + 360 can round up to 360.
		d = 0
	}
	return reference + d
}
