// Package bootstrap turns a configuration into a ready dispatcher.
package bootstrap

import (
	"context"
	"time"

	"capture-dispatcher/internal/catalog"
	"capture-dispatcher/internal/config"
	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/destinations/application"
	"capture-dispatcher/internal/destinations/chooser"
	"capture-dispatcher/internal/destinations/file"
	"capture-dispatcher/internal/destinations/objectstore"
	"capture-dispatcher/internal/destinations/upload"
	"capture-dispatcher/internal/dispatch"
	"capture-dispatcher/internal/exclusion"
	"capture-dispatcher/internal/schedule"
	"capture-dispatcher/internal/storage"

	"github.com/go-logr/logr"
	"golang.org/x/xerrors"
)

// Destinations builds every destination the configuration enables.
func Destinations(ctx context.Context, c *config.Config, notifier exclusion.Notifier, log logr.Logger) ([]destination.Destination, error) {
	var destinations []destination.Destination

	if c.File.Enabled {
		s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: c.File.Directory})
		if err != nil {
			return nil, xerrors.Errorf("failed to create file storage: %w", err)
		}
		destinations = append(destinations, &file.Destination{
			Storage:  s,
			Priority: c.File.Priority,
			Label:    c.File.Label,
			Layout:   c.File.Layout,
			Log:      log.WithName(file.Designation),
		})
	}

	if c.S3.Bucket != "" {
		s, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:      c.S3.Bucket,
			Prefix:      c.S3.Prefix,
			EndpointURL: c.S3.EndpointURL,
		})
		if err != nil {
			return nil, xerrors.Errorf("failed to create S3 storage: %w", err)
		}
		destinations = append(destinations, &objectstore.Destination{
			Storage:  s,
			Bucket:   c.S3.Bucket,
			Priority: c.S3.Priority,
			Log:      log.WithName(objectstore.Designation),
		})
	}

	if c.Upload.Endpoint != "" {
		d, err := upload.New(upload.Config{
			Endpoint:    c.Upload.Endpoint,
			Label:       c.Upload.Label,
			Token:       c.Upload.Token,
			Priority:    c.Upload.Priority,
			Timeout:     time.Duration(c.Upload.TimeoutSeconds) * time.Second,
			RetryOn:     c.Upload.RetryOn,
			MaxRetries:  c.Upload.MaxRetries,
			BaseBackOff: time.Duration(c.Upload.BaseBackOffMillis) * time.Millisecond,
		}, log.WithName(upload.Designation))
		if err != nil {
			return nil, xerrors.Errorf("failed to create upload destination: %w", err)
		}
		destinations = append(destinations, d)
	}

	for _, a := range c.Applications {
		label := a.Label
		if label == "" {
			label = a.Designation
		}
		appLog := log.WithName(a.Designation)
		destinations = append(destinations, &application.Destination{
			Designation: a.Designation,
			Label:       label,
			Executable:  a.Executable,
			Process:     a.Process,
			Priority:    a.Priority,
			TempDir:     c.TempDir,
			Bridge:      &application.CommandBridge{Executable: a.Executable, Log: appLog},
			Notifier:    notifier,
			Log:         appLog,
		})
	}

	if c.Chooser.Enabled {
		destinations = append(destinations, &chooser.Destination{
			Label:    c.Chooser.Label,
			Priority: c.Chooser.Priority,
		})
	}

	return destinations, nil
}

// Catalog builds the destinations and the catalog over them.
func Catalog(ctx context.Context, c *config.Config, notifier exclusion.Notifier, log logr.Logger) (*catalog.Catalog, error) {
	destinations, err := Destinations(ctx, c, notifier, log)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.New(destinations...)
	if err != nil {
		return nil, xerrors.Errorf("failed to create catalog: %w", err)
	}
	return cat, nil
}

// EngineOptions are the dispatch options implied by the configuration.
func EngineOptions(c *config.Config, log logr.Logger) []dispatch.Option {
	return []dispatch.Option{
		dispatch.WithLogger(log.WithName("dispatch")),
		dispatch.WithMaxDepth(c.MaxDepth),
	}
}

func Jobs(c *config.Config) []schedule.Job {
	jobs := make([]schedule.Job, 0, len(c.Jobs))
	for _, j := range c.Jobs {
		jobs = append(jobs, schedule.Job{
			Name:        j.Name,
			Schedule:    j.Schedule,
			URL:         j.URL,
			Destination: j.Destination,
			Title:       j.Title,
			Headers:     j.Headers,
		})
	}
	return jobs
}
