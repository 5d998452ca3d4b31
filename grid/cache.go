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


package grid

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// LookUpTableCache holds one LookUpTableGrid per distinct CurvilinearGrid.
// Concurrent requests for a grid that is not yet cached wait for a single
// build and then share its result. The zero value is ready to use.
type LookUpTableCache struct {
	builds int64 // accessed atomically; first for 64-bit alignment

	// Log receives build events. If nil, the standard logger is used.
	Log logrus.FieldLogger

	// MaxCells limits the number of cells in each lookup table. Grids
	// needing larger tables fail to build. If zero,
	// DefaultMaxLookUpTableCells is used.
	MaxCells int

	mu     sync.Mutex
	tables map[string]*LookUpTableGrid
	group  singleflight.Group
}

// NewLookUpTableCache returns an empty cache.
func NewLookUpTableCache() *LookUpTableCache {
	return &LookUpTableCache{
		Log:      logrus.StandardLogger(),
		MaxCells: DefaultMaxLookUpTableCells,
		tables:   make(map[string]*LookUpTableGrid),
	}
}

// Get returns the lookup table grid for g, building it if necessary.
func (c *LookUpTableCache) Get(g *CurvilinearGrid) (*LookUpTableGrid, error) {
	key := g.Key()
	if t, ok := c.lookup(key); ok {
		return t, nil
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have finished building between the first
		// lookup and joining the group.
		if t, ok := c.lookup(key); ok {
			return t, nil
		}
		ni, nj := g.Shape()
		log := c.log().WithFields(logrus.Fields{
			"grid":  key,
			"shape": []int{ni, nj},
		})
		log.Info("building curvilinear lookup table")
		start := time.Now()
		t, err := newLookUpTableGrid(g, c.MaxCells)
		if err != nil {
			return nil, err
		}
		atomic.AddInt64(&c.builds, 1)
		c.mu.Lock()
		if c.tables == nil {
			c.tables = make(map[string]*LookUpTableGrid)
		}
		c.tables[key] = t
		c.mu.Unlock()
		nx, ny := t.lut.Shape()
		log.WithFields(logrus.Fields{
			"lut_shape":  []int{nx, ny},
			"resolution": t.lut.Resolution(),
			"duration":   time.Since(start),
		}).Info("finished curvilinear lookup table")
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*LookUpTableGrid), nil
}

func (c *LookUpTableCache) lookup(key string) (*LookUpTableGrid, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tables[key]
	return t, ok
}

func (c *LookUpTableCache) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// Len returns the number of cached tables.
func (c *LookUpTableCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tables)
}

// Builds returns the number of tables that have been built.
func (c *LookUpTableCache) Builds() int {
	return int(atomic.LoadInt64(&c.builds))
}
