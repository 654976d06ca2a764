// Package file exports captures into a directory.
package file

import (
	"context"
	"iter"
	"path"

	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/storage"

	"github.com/go-logr/logr"
	"golang.org/x/xerrors"
)

const Designation = "file"

type Destination struct {
	Storage  storage.Storage
	Priority int
	Label    string
	// Layout is a time layout prefixed to each file name, e.g. "2006/01/02".
	Layout string
	Log    logr.Logger
}

func (d *Destination) Descriptor() destination.Descriptor {
	label := d.Label
	if label == "" {
		label = "Save as file"
	}
	return destination.Descriptor{
		Designation:  Designation,
		Label:        label,
		Priority:     d.Priority,
		Capabilities: destination.Static,
	}
}

func (d *Destination) IsAvailable() bool {
	return d.Storage != nil
}

func (d *Destination) Candidates(ctx context.Context) iter.Seq[destination.Candidate] {
	return destination.Self(d)
}

func (d *Destination) Export(ctx context.Context, request destination.Request) (destination.Outcome, error) {
	key := request.Capture.BaseName()
	if request.Capture.Filename != "" && !request.Capture.Modified() {
		key = path.Base(request.Capture.Filename)
	}
	if d.Layout != "" {
		key = path.Join(request.Capture.CapturedAt.Format(d.Layout), key)
	}

	return Put(ctx, d.Storage, d.Log, key, request.Capture.Image)
}

// Put stores data and reports the artifact, removing it again when the
// caller cancelled while the write was in flight.
func Put(ctx context.Context, s storage.Storage, log logr.Logger, key string, data []byte) (destination.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return destination.Outcome{}, err
	}

	location, err := s.Put(ctx, key, data)
	if err != nil {
		return destination.Outcome{}, xerrors.Errorf("failed to store capture: %w", err)
	}

	if ctx.Err() != nil {
		result := destination.Result{Cancelled: true}
		if err := s.Delete(context.WithoutCancel(ctx), location); err != nil {
			log.Error(err, "failed to remove artifact of cancelled export", "location", location)
			result.PartialArtifactPath = location
		}
		return destination.Completed(result), nil
	}

	return destination.Completed(destination.Result{Succeeded: true, ArtifactPath: location}), nil
}
