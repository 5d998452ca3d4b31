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
	"runtime"
	"strings"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridserve/cloud"
	"github.com/spatialmodel/gridserve/grid"
	"github.com/spatialmodel/gridserve/internal/hash"
)

// Catalog opens datasets from local paths or blob storage locations and
// caches the grids of their variables, so that reopening a dataset does
// not re-read its coordinate variables. Grids are keyed by dataset name
// and variable name. It is safe for concurrent use.
type Catalog struct {
	// CacheSize is the maximum number of grids held in memory. Zero means
	// no limit.
	CacheSize int

	// Log receives diagnostic information. If nil, the standard logger
	// is used.
	Log logrus.FieldLogger

	cache *requestcache.Cache
	init  sync.Once
}

// NewCatalog returns a Catalog holding up to cacheSize grids.
func NewCatalog(cacheSize int) *Catalog {
	return &Catalog{CacheSize: cacheSize, Log: logrus.StandardLogger()}
}

func (c *Catalog) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// Open opens the dataset at location, which is either a local file path
// or a blob location in the format 'provider://bucket/key'. Datasets in
// gs:// and s3:// buckets are marked as remote. Grids of the dataset's
// variables can't be discovered after ctx is done.
func (c *Catalog) Open(ctx context.Context, location string) (*Dataset, error) {
	var d *Dataset
	if cloud.IsLocation(location) {
		r, err := cloud.OpenReaderAt(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("ncstore: %v", err)
		}
		r.Log = c.log()
		d, err = OpenReaderAt(location, r, r.Size(), !strings.HasPrefix(location, "file://"))
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		d, err = Open(location)
		if err != nil {
			return nil, err
		}
	}
	d.Log = c.log()
	d.discover = func(v *Variable) (grid.Descriptor, error) { return c.grid(ctx, v) }
	return d, nil
}

// gridKey identifies a variable's grid in the cache.
type gridKey struct {
	Dataset, Variable string
}

// discovery is the outcome of discovering a grid. Failures are returned
// as part of the result because requestcache does not release
// deduplicated requests that end in an error.
type discovery struct {
	grid grid.Descriptor
	err  error
}

func (c *Catalog) setup() {
	c.cache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
		g, err := discoverGrid(request.(*Variable))
		return discovery{grid: g, err: err}, nil
	}, runtime.GOMAXPROCS(-1),
		requestcache.Deduplicate(), requestcache.Memory(c.CacheSize))
}

// grid returns the grid of v, discovering it only if it is not cached.
// It fails without discovering anything if ctx is done.
func (c *Catalog) grid(ctx context.Context, v *Variable) (grid.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ncstore: discovering grid of %s: %w", v.name, err)
	}
	c.init.Do(c.setup)
	req := c.cache.NewRequest(ctx, v, hash.Hash(gridKey{Dataset: v.ds.Name, Variable: v.name}))
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	d := result.(discovery)
	return d.grid, d.err
}

// Discoveries returns the number of grids that have been read from
// coordinate variables rather than from the cache.
func (c *Catalog) Discoveries() int {
	c.init.Do(c.setup)
	r := c.cache.Requests()
	return r[len(r)-1]
}
