// Package archive writes terminal run records to a blob bucket using
// gocloud.dev, supporting S3, GCS, Azure Blob Storage, and local files.
package archive

import (
	"context"
	"encoding/json"
	"errors"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/showkit/showrunner/pkg/api"
)

// Archiver stores run records under <prefix><runID>.json in a bucket
// identified by URL
type Archiver struct {
	bucket *blob.Bucket
	prefix string
}

var ErrArchiveNotFound = errors.New("archived run not found")

// New opens the bucket at bucketURL. The URL scheme selects the driver
func New(
	ctx context.Context, bucketURL, prefix string,
) (*Archiver, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return &Archiver{bucket: bucket, prefix: prefix}, nil
}

// Put writes a run record to the bucket
func (a *Archiver) Put(ctx context.Context, rec *api.RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return a.bucket.WriteAll(ctx, a.keyFor(rec.ID), data, nil)
}

// Get reads a previously archived run record
func (a *Archiver) Get(
	ctx context.Context, id api.RunID,
) (*api.RunRecord, error) {
	data, err := a.bucket.ReadAll(ctx, a.keyFor(id))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, ErrArchiveNotFound
		}
		return nil, err
	}

	var rec api.RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Close releases the bucket
func (a *Archiver) Close() error {
	return a.bucket.Close()
}

func (a *Archiver) keyFor(id api.RunID) string {
	return a.prefix + string(id) + ".json"
}
