// Package chooser offers an entry that lets the user pick among every
// other destination.
package chooser

import (
	"context"
	"iter"

	"capture-dispatcher/internal/destination"
)

const Designation = "picker"

type Destination struct {
	Label string
	// Priority is usually the lowest so the entry is listed last.
	Priority int
}

func (d *Destination) Descriptor() destination.Descriptor {
	label := d.Label
	if label == "" {
		label = "Select destination..."
	}
	return destination.Descriptor{
		Designation:  Designation,
		Label:        label,
		Priority:     d.Priority,
		Capabilities: destination.Static | destination.InteractiveOnly,
	}
}

func (d *Destination) IsAvailable() bool {
	return true
}

func (d *Destination) Candidates(ctx context.Context) iter.Seq[destination.Candidate] {
	return destination.Self(d)
}

// Export asks for a manual choice among all non interactive destinations.
func (d *Destination) Export(ctx context.Context, request destination.Request) (destination.Outcome, error) {
	return destination.Rescope(destination.Manual), nil
}
