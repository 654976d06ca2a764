package catalog

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"capture-dispatcher/internal/destination"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

type entry struct {
	// guards probing of a single destination; different entries probe
	// concurrently
	mu          sync.Mutex
	destination destination.Destination
}

// Catalog is the registered destination set. It is immutable after New.
type Catalog struct {
	entries []*entry
}

func New(destinations ...destination.Destination) (*Catalog, error) {
	seen := make(map[string]struct{}, len(destinations))
	entries := make([]*entry, 0, len(destinations))
	for _, d := range destinations {
		if d == nil {
			return nil, xerrors.New("nil destination")
		}
		designation := d.Descriptor().Designation
		if designation == "" {
			return nil, xerrors.New("destination without designation")
		}
		if _, ok := seen[designation]; ok {
			return nil, xerrors.Errorf("duplicate destination designation: %s", designation)
		}
		seen[designation] = struct{}{}
		entries = append(entries, &entry{destination: d})
	}
	return &Catalog{entries: entries}, nil
}

// Descriptors lists every registered destination in candidate order,
// regardless of availability.
func (c *Catalog) Descriptors() []destination.Descriptor {
	descriptors := make([]destination.Descriptor, 0, len(c.entries))
	for _, e := range c.entries {
		descriptors = append(descriptors, e.destination.Descriptor())
	}
	slices.SortStableFunc(descriptors, compareDescriptors)
	return descriptors
}

func (c *Catalog) CandidatesFor(ctx context.Context, trigger destination.Trigger) []destination.Candidate {
	resolved := make([][]destination.Candidate, len(c.entries))

	var eg errgroup.Group
	for i, e := range c.entries {
		eg.Go(func() error {
			resolved[i] = e.resolve(ctx, trigger)
			return nil
		})
	}
	_ = eg.Wait()

	var candidates []destination.Candidate
	for _, r := range resolved {
		candidates = append(candidates, r...)
	}
	// stable, so sub-candidates of one dynamic destination keep discovery order
	slices.SortStableFunc(candidates, func(a, b destination.Candidate) int {
		return compareDescriptors(a.Descriptor, b.Descriptor)
	})
	return candidates
}

func (e *entry) resolve(ctx context.Context, trigger destination.Trigger) []destination.Candidate {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.destination
	descriptor := d.Descriptor()
	if trigger == destination.Automatic && descriptor.IsInteractiveOnly() {
		return nil
	}
	if !d.IsAvailable() {
		return nil
	}

	if !descriptor.IsDynamic() {
		return []destination.Candidate{{Descriptor: descriptor, Exporter: d}}
	}

	var candidates []destination.Candidate
	for candidate := range d.Candidates(ctx) {
		if ctx.Err() != nil {
			break
		}
		candidate.Designation = descriptor.Designation
		candidate.Priority = descriptor.Priority
		candidate.Capabilities |= descriptor.Capabilities
		if candidate.Label == "" {
			candidate.Label = descriptor.Label
		}
		if candidate.Exporter == nil {
			candidate.Exporter = d
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}

func compareDescriptors(a, b destination.Descriptor) int {
	if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
		return c
	}
	return cmp.Compare(a.Designation, b.Designation)
}
