// Package application exports captures into the documents of an external
// application such as a presentation or word processor.
package application

import (
	"context"
	"iter"
	"os"
	"os/exec"
	"sync"

	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/exclusion"

	"github.com/go-logr/logr"
	"golang.org/x/xerrors"
)

type Destination struct {
	Designation string
	Label       string
	// Executable must be found on PATH for the destination to be offered.
	Executable string
	// Process is kept running while captures are taken.
	Process  string
	Priority int
	TempDir  string
	Bridge   Bridge
	Notifier exclusion.Notifier
	LookPath func(file string) (string, error)
	Log      logr.Logger

	exclude sync.Once
}

func (d *Destination) Descriptor() destination.Descriptor {
	return destination.Descriptor{
		Designation:  d.Designation,
		Label:        d.Label,
		Priority:     d.Priority,
		Capabilities: destination.Dynamic,
	}
}

func (d *Destination) IsAvailable() bool {
	if d.Bridge == nil {
		return false
	}
	if d.Executable != "" {
		lookPath := d.LookPath
		if lookPath == nil {
			lookPath = exec.LookPath
		}
		if _, err := lookPath(d.Executable); err != nil {
			return false
		}
	}
	if d.Process != "" && d.Notifier != nil {
		d.exclude.Do(func() {
			d.Notifier.ExcludeFromFreeze(d.Process)
		})
	}
	return true
}

// Candidates yields one candidate per open document, or the application
// itself when nothing is open.
func (d *Destination) Candidates(ctx context.Context) iter.Seq[destination.Candidate] {
	return func(yield func(destination.Candidate) bool) {
		documents := d.documents(ctx)
		if len(documents) == 0 {
			yield(d.base())
			return
		}
		for _, document := range documents {
			if !yield(d.candidate(document)) {
				return
			}
		}
	}
}

// Export on the application itself opens a new document. An automatic
// export first offers the open documents instead.
func (d *Destination) Export(ctx context.Context, request destination.Request) (destination.Outcome, error) {
	if request.Trigger == destination.Automatic {
		if documents := d.documents(ctx); len(documents) > 0 {
			candidates := []destination.Candidate{d.base()}
			for _, document := range documents {
				candidates = append(candidates, d.candidate(document))
			}
			return destination.Redelegate(candidates...), nil
		}
	}

	return d.insert(ctx, request, func(path string) (string, error) {
		return d.Bridge.InsertIntoNew(ctx, path, request.Capture.Title)
	})
}

func (d *Destination) documents(ctx context.Context) []string {
	documents, err := d.Bridge.Documents(ctx)
	if err != nil {
		d.Log.Error(err, "failed to list documents", "designation", d.Designation)
		return nil
	}
	return documents
}

func (d *Destination) base() destination.Candidate {
	return destination.Candidate{Descriptor: d.Descriptor(), Exporter: d}
}

func (d *Destination) candidate(document string) destination.Candidate {
	return destination.Candidate{
		Descriptor:    d.Descriptor(),
		Discriminator: document,
		Exporter:      &documentExporter{parent: d, document: document},
	}
}

// insert renders the capture and hands it to the application, reporting
// the document that received it.
func (d *Destination) insert(ctx context.Context, request destination.Request, into func(path string) (string, error)) (destination.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return destination.Outcome{}, err
	}

	path, reused, err := request.Capture.Render(d.TempDir)
	if err != nil {
		return destination.Outcome{}, xerrors.Errorf("failed to render capture: %w", err)
	}

	document, err := into(path)
	if err != nil {
		if ctx.Err() != nil {
			// the application may still be reading the file
			if reused {
				return destination.Outcome{}, ctx.Err()
			}
			return destination.Completed(destination.Result{Cancelled: true, PartialArtifactPath: path}), ctx.Err()
		}
		d.removeRendered(path, reused)
		return destination.Outcome{}, xerrors.Errorf("failed to insert capture: %w", err)
	}
	d.removeRendered(path, reused)

	return destination.Completed(destination.Result{Succeeded: true, ArtifactPath: document}), nil
}

func (d *Destination) removeRendered(path string, reused bool) {
	if reused {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		d.Log.Error(err, "failed to remove rendered capture", "path", path)
	}
}

type documentExporter struct {
	parent   *Destination
	document string
}

func (e *documentExporter) Export(ctx context.Context, request destination.Request) (destination.Outcome, error) {
	return e.parent.insert(ctx, request, func(path string) (string, error) {
		return e.document, e.parent.Bridge.InsertInto(ctx, e.document, path, request.Capture.Title)
	})
}
