// Package schedule captures web pages on cron schedules and dispatches them
// without a human in the loop.
package schedule

import (
	"context"
	"time"

	"capture-dispatcher/internal/capture"
	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/dispatch"

	"github.com/go-logr/logr"
	"github.com/robfig/cron/v3"
	"golang.org/x/xerrors"
)

// Parser accepts the standard five field cron syntax and descriptors such
// as @hourly.
var Parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type Job struct {
	Name     string
	Schedule string
	URL      string
	// Destination is a candidate key or designation; empty lets the
	// dispatcher decide.
	Destination string
	Title       string
	Headers     map[string]string
}

type Dispatcher interface {
	Dispatch(ctx context.Context, request dispatch.Request) destination.Result
}

type Scheduler struct {
	capturer   capture.Capturer
	dispatcher Dispatcher
	log        logr.Logger
	jobs       []Job
	timeout    time.Duration
}

func New(capturer capture.Capturer, dispatcher Dispatcher, log logr.Logger, jobs ...Job) (*Scheduler, error) {
	for _, job := range jobs {
		if _, err := Parser.Parse(job.Schedule); err != nil {
			return nil, xerrors.Errorf("invalid schedule for job %s: %w", job.Name, err)
		}
	}
	return &Scheduler{
		capturer:   capturer,
		dispatcher: dispatcher,
		log:        log,
		jobs:       jobs,
		timeout:    5 * time.Minute,
	}, nil
}

// Start runs the jobs until ctx is done and waits for running jobs to
// finish.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(
		cron.WithParser(Parser),
		cron.WithLogger(s.log),
		cron.WithChain(cron.Recover(s.log), cron.SkipIfStillRunning(s.log)),
	)
	for _, job := range s.jobs {
		if _, err := c.AddFunc(job.Schedule, func() {
			s.Run(ctx, job)
		}); err != nil {
			return xerrors.Errorf("failed to schedule job %s: %w", job.Name, err)
		}
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Run captures and dispatches a job once.
func (s *Scheduler) Run(ctx context.Context, job Job) destination.Result {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := s.log.WithValues("job", job.Name)

	c, err := s.capturer.Capture(ctx, job.URL, capture.Options{Headers: job.Headers, Title: job.Title})
	if err != nil {
		log.Error(err, "failed to capture", "url", job.URL)
		return destination.Result{Failure: destination.FailureCapture, Err: err, Message: err.Error()}
	}

	result := s.dispatcher.Dispatch(ctx, dispatch.Request{
		Capture:     c,
		Trigger:     destination.Automatic,
		Preselected: job.Destination,
	})
	switch {
	case result.Succeeded:
		log.Info("capture dispatched", "designation", result.Designation, "artifact", result.ArtifactPath)
	case result.Cancelled:
		log.Info("capture dispatch cancelled", "designation", result.Designation)
	default:
		log.Error(result.Err, "capture dispatch failed", "designation", result.Designation, "failure", string(result.Failure))
	}
	return result
}
