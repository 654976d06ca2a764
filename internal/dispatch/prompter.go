package dispatch

import (
	"context"

	"capture-dispatcher/internal/destination"
)

type Choice struct {
	Candidate destination.Candidate
	Cancelled bool
}

// Prompter lets a human choose one of the candidates. Implementations must
// present candidates in the given order and are shown an empty list when
// nothing is available.
type Prompter interface {
	Prompt(ctx context.Context, candidates []destination.Candidate) (Choice, error)
}

type PrompterFunc func(ctx context.Context, candidates []destination.Candidate) (Choice, error)

func (f PrompterFunc) Prompt(ctx context.Context, candidates []destination.Candidate) (Choice, error) {
	return f(ctx, candidates)
}
