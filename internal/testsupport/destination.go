// Package testsupport holds fakes shared by package tests.
package testsupport

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"

	"capture-dispatcher/internal/capture"
	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/dispatch"
)

// Destination is a configurable in-memory destination.
type Destination struct {
	Desc       destination.Descriptor
	Available  bool
	SubTargets []string
	ExportFunc func(ctx context.Context, target string, request destination.Request) (destination.Outcome, error)

	exports atomic.Int32
	mu      sync.Mutex
	targets []string
}

func NewStatic(designation string, priority int) *Destination {
	return &Destination{
		Desc: destination.Descriptor{
			Designation:  designation,
			Label:        designation,
			Priority:     priority,
			Capabilities: destination.Static,
		},
		Available: true,
	}
}

func NewDynamic(designation string, priority int, subTargets ...string) *Destination {
	d := NewStatic(designation, priority)
	d.Desc.Capabilities = destination.Dynamic
	d.SubTargets = subTargets
	return d
}

func (d *Destination) Descriptor() destination.Descriptor {
	return d.Desc
}

func (d *Destination) IsAvailable() bool {
	return d.Available
}

func (d *Destination) Candidates(ctx context.Context) iter.Seq[destination.Candidate] {
	if !d.Desc.IsDynamic() {
		return destination.Self(d)
	}
	return func(yield func(destination.Candidate) bool) {
		for _, target := range d.SubTargets {
			candidate := destination.Candidate{
				Descriptor:    d.Desc,
				Discriminator: target,
				Exporter:      &subTarget{parent: d, target: target},
			}
			if !yield(candidate) {
				return
			}
		}
	}
}

func (d *Destination) Export(ctx context.Context, request destination.Request) (destination.Outcome, error) {
	return d.export(ctx, "", request)
}

func (d *Destination) export(ctx context.Context, target string, request destination.Request) (destination.Outcome, error) {
	d.exports.Add(1)
	d.mu.Lock()
	d.targets = append(d.targets, target)
	d.mu.Unlock()
	if d.ExportFunc != nil {
		return d.ExportFunc(ctx, target, request)
	}
	return destination.Completed(destination.Result{Succeeded: true}), nil
}

// Exports is the number of Export calls made on the destination and its
// sub-targets.
func (d *Destination) Exports() int {
	return int(d.exports.Load())
}

func (d *Destination) Targets() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.targets...)
}

type subTarget struct {
	parent *Destination
	target string
}

func (s *subTarget) Export(ctx context.Context, request destination.Request) (destination.Outcome, error) {
	return s.parent.export(ctx, s.target, request)
}

// Prompter records every prompt and answers with Choose.
type Prompter struct {
	Choose func(candidates []destination.Candidate) dispatch.Choice

	mu      sync.Mutex
	prompts [][]string
}

func (p *Prompter) Prompt(ctx context.Context, candidates []destination.Candidate) (dispatch.Choice, error) {
	keys := make([]string, 0, len(candidates))
	for _, c := range candidates {
		keys = append(keys, c.Key())
	}
	p.mu.Lock()
	p.prompts = append(p.prompts, keys)
	p.mu.Unlock()

	if p.Choose == nil || len(candidates) == 0 {
		return dispatch.Choice{Cancelled: true}, nil
	}
	return p.Choose(candidates), nil
}

func (p *Prompter) Prompts() [][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]string(nil), p.prompts...)
}

// ChooseIndex picks the i-th candidate.
func ChooseIndex(i int) func([]destination.Candidate) dispatch.Choice {
	return func(candidates []destination.Candidate) dispatch.Choice {
		return dispatch.Choice{Candidate: candidates[i]}
	}
}

func Capture() *capture.Context {
	return capture.NewContext([]byte{0x89, 'P', 'N', 'G'}, "png", "test capture")
}
