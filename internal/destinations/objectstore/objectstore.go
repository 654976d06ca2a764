// Package objectstore exports captures into an S3 bucket.
package objectstore

import (
	"context"
	"iter"
	"path"

	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/destinations/file"
	"capture-dispatcher/internal/storage"

	"github.com/go-logr/logr"
)

const Designation = "s3"

type Destination struct {
	Storage  storage.Storage
	Bucket   string
	Priority int
	Log      logr.Logger
}

func (d *Destination) Descriptor() destination.Descriptor {
	return destination.Descriptor{
		Designation:  Designation,
		Label:        "Upload to S3 (" + d.Bucket + ")",
		Priority:     d.Priority,
		Capabilities: destination.Static,
	}
}

func (d *Destination) IsAvailable() bool {
	return d.Storage != nil && d.Bucket != ""
}

func (d *Destination) Candidates(ctx context.Context) iter.Seq[destination.Candidate] {
	return destination.Self(d)
}

func (d *Destination) Export(ctx context.Context, request destination.Request) (destination.Outcome, error) {
	key := path.Join("captures", request.Capture.CapturedAt.UTC().Format("2006/01/02"), request.Capture.BaseName())
	return file.Put(ctx, d.Storage, d.Log, key, request.Capture.Image)
}
