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


// Package ncstore reads gridded variables from netCDF classic files,
// following the CF conventions for coordinates and missing data.
package ncstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridserve/grid"
)

var errReadOnly = errors.New("ncstore: dataset is open for reading only")

// Dataset is an open netCDF file.
type Dataset struct {
	// Name identifies the dataset in log messages and cache keys.
	Name string

	// Log receives diagnostic information. If nil, the standard logger
	// is used.
	Log logrus.FieldLogger

	file   *cdf.File
	nRecs  int
	remote bool
	closer io.Closer

	// discover overrides grid discovery, for example to route it
	// through a Catalog.
	discover func(v *Variable) (grid.Descriptor, error)
}

// readOnly adapts an io.ReaderAt for cdf.Open.
type readOnly struct{ io.ReaderAt }

func (readOnly) WriteAt(p []byte, off int64) (int, error) { return 0, errReadOnly }

// Open opens the netCDF file at path.
func Open(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ncstore: %v", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ncstore: %v", err)
	}
	d, err := OpenReaderAt(path, f, fi.Size(), false)
	if err != nil {
		f.Close()
		return nil, err
	}
	d.closer = f
	return d, nil
}

// OpenReaderAt opens a netCDF file of the given size stored in r. remote
// indicates that each read of r is a network request, which favors
// fewer, larger reads.
func OpenReaderAt(name string, r io.ReaderAt, size int64, remote bool) (*Dataset, error) {
	var rw cdf.ReaderWriterAt
	if w, ok := r.(cdf.ReaderWriterAt); ok {
		rw = w
	} else {
		rw = readOnly{r}
	}
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("ncstore: opening %s: %v", name, err)
	}
	d := &Dataset{
		Name:   name,
		file:   f,
		nRecs:  int(f.Header.NumRecs(size)),
		remote: remote,
	}
	if c, ok := r.(io.Closer); ok {
		d.closer = c
	}
	return d, nil
}

// Close closes the underlying file, if it can be closed.
func (d *Dataset) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

func (d *Dataset) log() logrus.FieldLogger {
	if d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}

// NumRecords returns the number of records along the unlimited
// dimension.
func (d *Dataset) NumRecords() int { return d.nRecs }

// Remote reports whether the dataset is read over the network.
func (d *Dataset) Remote() bool { return d.remote }

// Variables returns the names of the variables in the dataset that have
// at least two dimensions, sorted alphabetically.
func (d *Dataset) Variables() []string {
	var o []string
	for _, v := range d.file.Header.Variables() {
		if len(d.file.Header.Dimensions(v)) >= 2 {
			o = append(o, v)
		}
	}
	sort.Strings(o)
	return o
}

// Attribute returns attribute a of variable v, or the global attribute a
// if v is empty. The value is nil if the attribute does not exist.
func (d *Dataset) Attribute(v, a string) interface{} {
	return d.file.Header.GetAttribute(v, a)
}

// lengths returns the dimension lengths of variable v, with the number
// of records in place of the unlimited dimension.
func (d *Dataset) lengths(v string) []int {
	l := d.file.Header.Lengths(v)
	o := make([]int, len(l))
	copy(o, l)
	if d.file.Header.IsRecordVariable(v) {
		o[0] = d.nRecs
	}
	return o
}

func (d *Dataset) hasVariable(v string) bool {
	return d.file.Header.Lengths(v) != nil
}
