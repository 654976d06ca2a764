// Package picker provides the ways a dispatch can ask for a destination.
package picker

import (
	"context"

	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/dispatch"

	"github.com/go-logr/logr"
)

// Decline is used when nobody is there to answer: every prompt is cancelled.
type Decline struct{}

func (Decline) Prompt(ctx context.Context, candidates []destination.Candidate) (dispatch.Choice, error) {
	return dispatch.Choice{Cancelled: true}, nil
}

type Store interface {
	Record(ctx context.Context, scope string, key string) error
	Last(ctx context.Context, scope string) (string, bool, error)
}

// Remembered answers with the last recorded choice when it is still among
// the candidates, and asks Fallback otherwise.
type Remembered struct {
	Store    Store
	Scope    string
	Fallback dispatch.Prompter
	Log      logr.Logger
}

func (r *Remembered) Prompt(ctx context.Context, candidates []destination.Candidate) (dispatch.Choice, error) {
	key, ok, err := r.Store.Last(ctx, r.Scope)
	if err != nil {
		r.Log.Error(err, "failed to read remembered destination", "scope", r.Scope)
	}
	if ok {
		for _, c := range candidates {
			if c.Key() == key {
				r.Log.V(1).Info("using remembered destination", "designation", key)
				return dispatch.Choice{Candidate: c}, nil
			}
		}
	}

	fallback := r.Fallback
	if fallback == nil {
		fallback = Decline{}
	}
	choice, err := fallback.Prompt(ctx, candidates)
	if err != nil || choice.Cancelled {
		return choice, err
	}
	if err := r.Store.Record(ctx, r.Scope, choice.Candidate.Key()); err != nil {
		r.Log.Error(err, "failed to remember destination", "designation", choice.Candidate.Key())
	}
	return choice, nil
}
