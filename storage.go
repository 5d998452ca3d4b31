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

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/gridserve/grid"
)

// Storage reads blocks of a gridded variable.
type Storage interface {
	// ReadBlock returns the values of the cells in b at time index t and
	// vertical index z as an array with shape (b.Height(), b.Width()).
	// Values are converted from their stored representation, and missing
	// values are NaN.
	ReadBlock(ctx context.Context, t, z int, b Box) (*sparse.DenseArray, error)
}

// Locality is implemented by storage that can describe its access costs.
// Storage that doesn't implement it is treated as local and uncompressed.
type Locality interface {
	// Remote reports whether reads go over a network.
	Remote() bool

	// Compressed reports whether reads require decompressing data.
	Compressed() bool
}

// Source is a gridded variable along with its horizontal grid.
type Source interface {
	Storage
	Grid() grid.Descriptor
}
