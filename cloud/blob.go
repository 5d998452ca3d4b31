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


package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"gocloud.dev/blob"
)

var errReadOnly = errors.New("cloud: blob is open for reading only")

// ReaderAt provides random access to the contents of a single blob. Each
// ReadAt call fetches the requested byte range, retrying failed requests
// with exponential backoff. It also implements io.WriterAt so that it can
// back read-only netCDF files; writes always fail.
type ReaderAt struct {
	ctx    context.Context
	bucket *blob.Bucket
	key    string
	size   int64

	// MaxRetries is the number of times a failed range request is
	// retried before ReadAt returns an error.
	MaxRetries uint64

	// Log receives retry notifications. If nil, the standard logger is
	// used.
	Log logrus.FieldLogger
}

// NewReaderAt returns a ReaderAt for blob key in bucket. ctx is used for
// all subsequent reads.
func NewReaderAt(ctx context.Context, bucket *blob.Bucket, key string) (*ReaderAt, error) {
	attrs, err := bucket.Attributes(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("cloud: reading attributes of blob %s: %v", key, err)
	}
	return &ReaderAt{
		ctx:        ctx,
		bucket:     bucket,
		key:        key,
		size:       attrs.Size,
		MaxRetries: 3,
	}, nil
}

// OpenReaderAt returns a ReaderAt for the blob at location, which must be
// in the format 'provider://bucket/key'.
func OpenReaderAt(ctx context.Context, location string) (*ReaderAt, error) {
	bucketName, key, err := SplitLocation(location)
	if err != nil {
		return nil, err
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return nil, err
	}
	return NewReaderAt(ctx, bucket, key)
}

// Size returns the size of the blob in bytes.
func (r *ReaderAt) Size() int64 { return r.size }

// Key returns the key of the blob within its bucket.
func (r *ReaderAt) Key() string { return r.key }

func (r *ReaderAt) log() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

// ReadAt implements io.ReaderAt.
func (r *ReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("cloud: reading blob %s: negative offset %d", r.key, off)
	}
	if off >= r.size {
		return 0, io.EOF
	}
	n := int64(len(p))
	if off+n > r.size {
		n = r.size - off
	}
	var read int
	err := backoff.RetryNotify(
		func() error {
			rr, err := r.bucket.NewRangeReader(r.ctx, r.key, off, n, nil)
			if err != nil {
				return err
			}
			defer rr.Close()
			read, err = io.ReadFull(rr, p[:n])
			return err
		},
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.MaxRetries), r.ctx),
		func(err error, d time.Duration) {
			r.log().WithFields(logrus.Fields{
				"blob":   r.key,
				"offset": off,
				"length": n,
			}).Warnf("%v: retrying in %v", err, d)
		},
	)
	if err != nil {
		return read, fmt.Errorf("cloud: reading %d bytes at offset %d of blob %s: %v", n, off, r.key, err)
	}
	if int(n) < len(p) {
		return read, io.EOF
	}
	return read, nil
}

// WriteAt always returns an error.
func (r *ReaderAt) WriteAt(p []byte, off int64) (int, error) {
	return 0, errReadOnly
}

// Upload copies the contents of src to the blob at location, which must
// be in the format 'provider://bucket/key'.
func Upload(ctx context.Context, location string, src io.Reader) error {
	bucketName, key, err := SplitLocation(location)
	if err != nil {
		return err
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return err
	}
	return writeBlob(ctx, bucket, key, src)
}

// writeBlob writes the contents of src to the given bucket.
func writeBlob(ctx context.Context, bucket *blob.Bucket, key string, src io.Reader) error {
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("cloud: creating writer for blob %s: %v", key, err)
	}
	if _, err = io.Copy(w, src); err != nil {
		w.Close()
		return fmt.Errorf("cloud: copying blob %s: %v", key, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("cloud: writing blob %s: %v", key, err)
	}
	return nil
}
