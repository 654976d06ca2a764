// Package destination defines the contract between the dispatch engine and
// the places a capture can be exported to.
package destination

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"capture-dispatcher/internal/capture"

	"golang.org/x/xerrors"
)

type Trigger int

const (
	Manual Trigger = iota
	Automatic
)

func (t Trigger) String() string {
	switch t {
	case Automatic:
		return "automatic"
	default:
		return "manual"
	}
}

func ParseTrigger(s string) (Trigger, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "manual":
		return Manual, nil
	case "automatic", "auto":
		return Automatic, nil
	default:
		return Manual, xerrors.Errorf("unknown trigger: %s", s)
	}
}

// Capability is the set of kinds a destination belongs to.
type Capability uint8

const (
	Static Capability = 1 << iota
	Dynamic
	InteractiveOnly
)

func (c Capability) Has(f Capability) bool {
	return c&f == f
}

type Descriptor struct {
	// Designation is stable across restarts and unique within a catalog.
	Designation  string
	Label        string
	Priority     int
	Capabilities Capability
}

func (d Descriptor) IsDynamic() bool {
	return d.Capabilities.Has(Dynamic)
}

func (d Descriptor) IsInteractiveOnly() bool {
	return d.Capabilities.Has(InteractiveOnly)
}

type Request struct {
	Capture *capture.Context
	Trigger Trigger
}

type Exporter interface {
	Export(ctx context.Context, request Request) (Outcome, error)
}

type Destination interface {
	Exporter
	Descriptor() Descriptor
	// IsAvailable must be cheap and free of side effects visible to the
	// dispatch path.
	IsAvailable() bool
	// Candidates yields the concrete targets of the destination. Each call
	// queries the environment again; an empty sequence is not an error.
	Candidates(ctx context.Context) iter.Seq[Candidate]
}

// Candidate is one directly exportable resolution of a destination.
type Candidate struct {
	Descriptor
	Discriminator string
	Exporter      Exporter
}

func (c Candidate) Key() string {
	if c.Discriminator == "" {
		return c.Designation
	}
	return fmt.Sprintf("%s/%s", c.Designation, c.Discriminator)
}

func (c Candidate) DisplayLabel() string {
	if c.Discriminator == "" {
		return c.Label
	}
	return fmt.Sprintf("%s - %s", c.Label, c.Discriminator)
}

// Self yields the single candidate of a static destination.
func Self(d Destination) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		yield(Candidate{Descriptor: d.Descriptor(), Exporter: d})
	}
}
