package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"capture-dispatcher/internal/capture"
	"capture-dispatcher/internal/destination"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/xerrors"
)

const DefaultMaxDepth = 2

var (
	ErrDispatchLoop = errors.New("dispatch loop detected")
	ErrEmptyCapture = errors.New("capture has no image")
)

type Resolver interface {
	CandidatesFor(ctx context.Context, trigger destination.Trigger) []destination.Candidate
}

type Request struct {
	Capture *capture.Context
	Trigger destination.Trigger
	// Preselected is a candidate key or a designation chosen beforehand,
	// e.g. to repeat the previous export.
	Preselected string
}

// Engine resolves, picks and exports. It holds no state across calls, so
// any number of Dispatch calls may run concurrently.
type Engine struct {
	resolver Resolver
	prompter Prompter
	log      logr.Logger
	maxDepth int
	tracer   trace.Tracer
	outcomes metric.Int64Counter
}

type Option func(*Engine)

func WithLogger(log logr.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth >= 0 {
			e.maxDepth = depth
		}
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracer = provider.Tracer("capture-dispatcher/dispatch")
	}
}

func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(e *Engine) {
		counter, err := provider.Meter("capture-dispatcher/dispatch").Int64Counter("dispatch_outcomes_total")
		if err == nil {
			e.outcomes = counter
		}
	}
}

func NewEngine(resolver Resolver, prompter Prompter, opts ...Option) *Engine {
	e := &Engine{
		resolver: resolver,
		prompter: prompter,
		log:      logr.Discard(),
		maxDepth: DefaultMaxDepth,
		tracer:   otel.Tracer("capture-dispatcher/dispatch"),
		outcomes: noop.Int64Counter{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Dispatch(ctx context.Context, request Request) destination.Result {
	ctx, span := e.tracer.Start(ctx, "Dispatch", trace.WithAttributes(
		attribute.String("trigger", request.Trigger.String()),
		attribute.String("preselected", request.Preselected),
	))
	defer span.End()

	result := e.dispatch(ctx, request).Normalize()

	outcome := outcomeLabel(result)
	span.SetAttributes(
		attribute.String("designation", result.Designation),
		attribute.String("outcome", outcome),
	)
	if result.Err != nil {
		span.SetStatus(codes.Error, result.Err.Error())
	}
	e.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	return result
}

func (e *Engine) dispatch(ctx context.Context, request Request) destination.Result {
	if request.Capture == nil || len(request.Capture.Image) == 0 {
		return destination.Result{Failure: destination.FailureCapture, Err: ErrEmptyCapture}
	}
	request.Capture.Seal()

	if ctx.Err() != nil {
		return cancelled(destination.Candidate{})
	}

	trigger := request.Trigger
	candidates := e.resolver.CandidatesFor(ctx, trigger)
	selected, direct := preselect(candidates, request.Preselected)

	for depth := 0; ; depth++ {
		if ctx.Err() != nil {
			return cancelled(selected)
		}

		if !direct {
			if len(candidates) == 1 && trigger == destination.Automatic {
				selected = candidates[0]
			} else {
				choice, err := e.prompter.Prompt(ctx, candidates)
				if err != nil {
					e.log.Error(err, "picker failed", "trigger", trigger.String())
					return cancelled(destination.Candidate{})
				}
				if choice.Cancelled || ctx.Err() != nil {
					return cancelled(destination.Candidate{})
				}
				selected = choice.Candidate
				// a human made this choice
				trigger = destination.Manual
			}
		}
		direct = false

		if ctx.Err() != nil {
			return cancelled(selected)
		}

		outcome, err := e.export(ctx, selected, destination.Request{Capture: request.Capture, Trigger: trigger})
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				result := cancelled(selected)
				result.PartialArtifactPath = outcome.Result.PartialArtifactPath
				if result.PartialArtifactPath == "" {
					result.PartialArtifactPath = outcome.Result.ArtifactPath
				}
				return result
			}
			e.log.Error(err, "export failed", "designation", selected.Key())
			return destination.Result{
				Designation: selected.Key(),
				Label:       selected.DisplayLabel(),
				Failure:     destination.FailureExport,
				Err:         err,
			}
		}

		switch outcome.Kind {
		case destination.KindCompleted:
			result := complete(selected, outcome.Result)
			if !result.Succeeded && !result.Cancelled {
				e.log.Error(result.Err, "export failed", "designation", result.Designation)
			}
			return result
		case destination.KindRedelegate:
			candidates = outcome.Candidates
		case destination.KindRescope:
			trigger = outcome.Scope
			candidates = withoutInteractive(e.resolver.CandidatesFor(ctx, trigger))
		default:
			err := xerrors.Errorf("unknown outcome kind %d from %s", outcome.Kind, selected.Key())
			e.log.Error(err, "export failed", "designation", selected.Key())
			return destination.Result{
				Designation: selected.Key(),
				Label:       selected.DisplayLabel(),
				Failure:     destination.FailureExport,
				Err:         err,
			}
		}

		if depth+1 > e.maxDepth {
			err := xerrors.Errorf("%s redelegated more than %d times: %w", selected.Key(), e.maxDepth, ErrDispatchLoop)
			e.log.Error(err, "dispatch aborted", "designation", selected.Key())
			return destination.Result{
				Designation: selected.Key(),
				Label:       selected.DisplayLabel(),
				Failure:     destination.FailureLoop,
				Err:         err,
			}
		}
		e.log.V(1).Info("export redelegated", "designation", selected.Key(), "candidates", len(candidates), "depth", depth+1)
	}
}

// export runs a single Export, turning a panic into an error.
func (e *Engine) export(ctx context.Context, candidate destination.Candidate, request destination.Request) (outcome destination.Outcome, err error) {
	if candidate.Exporter == nil {
		return destination.Outcome{}, xerrors.Errorf("candidate %s has no exporter", candidate.Key())
	}

	ctx, span := e.tracer.Start(ctx, "Export", trace.WithAttributes(
		attribute.String("designation", candidate.Key()),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			e.log.V(1).Info("export panicked", "designation", candidate.Key(), "stack", string(debug.Stack()))
			err = xerrors.Errorf("export panicked: %s", fmt.Sprint(r))
		}
	}()
	return candidate.Exporter.Export(ctx, request)
}

func preselect(candidates []destination.Candidate, key string) (destination.Candidate, bool) {
	if key == "" {
		return destination.Candidate{}, false
	}
	if c, ok := only(candidates, func(c destination.Candidate) bool { return c.Key() == key }); ok {
		return c, true
	}
	return only(candidates, func(c destination.Candidate) bool { return c.Designation == key })
}

func only(candidates []destination.Candidate, match func(destination.Candidate) bool) (destination.Candidate, bool) {
	var found destination.Candidate
	n := 0
	for _, c := range candidates {
		if match(c) {
			found = c
			n++
		}
	}
	return found, n == 1
}

func withoutInteractive(candidates []destination.Candidate) []destination.Candidate {
	filtered := candidates[:0:0]
	for _, c := range candidates {
		if !c.IsInteractiveOnly() {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func complete(candidate destination.Candidate, result destination.Result) destination.Result {
	if result.Designation == "" {
		result.Designation = candidate.Key()
	}
	if result.Label == "" {
		result.Label = candidate.DisplayLabel()
	}
	if !result.Succeeded && !result.Cancelled && result.Failure == destination.FailureNone {
		result.Failure = destination.FailureExport
	}
	return result
}

func cancelled(candidate destination.Candidate) destination.Result {
	return destination.Result{
		Designation: candidate.Key(),
		Label:       candidate.DisplayLabel(),
		Cancelled:   true,
	}
}

func outcomeLabel(result destination.Result) string {
	switch {
	case result.Cancelled:
		return "cancelled"
	case result.Succeeded:
		return "succeeded"
	case result.Failure != destination.FailureNone:
		return string(result.Failure)
	default:
		return "failed"
	}
}
