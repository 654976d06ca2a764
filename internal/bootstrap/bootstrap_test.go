package bootstrap_test

import (
	"context"
	"testing"

	"capture-dispatcher/internal/bootstrap"
	"capture-dispatcher/internal/config"
	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/exclusion"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
)

func TestCatalog(t *testing.T) {
	c := config.Default()
	c.File.Directory = t.TempDir()
	c.Upload.Endpoint = "https://img.example/upload"
	c.Applications = []config.Application{{
		Designation: "presentation",
		Label:       "Presentation",
		Executable:  "presenter-bridge-that-is-not-installed",
		Process:     "presenter",
		Priority:    4,
	}}

	registry := exclusion.NewRegistry(logr.Discard())
	cat, err := bootstrap.Catalog(context.Background(), &c, registry, logr.Discard())
	if err != nil {
		t.Fatal(err)
	}

	var designations []string
	for _, d := range cat.Descriptors() {
		designations = append(designations, d.Designation)
	}
	if diff := cmp.Diff([]string{"presentation", "file", "upload", "picker"}, designations); diff != "" {
		t.Errorf("descriptors (-want +got):\n%s", diff)
	}

	var keys []string
	for _, candidate := range cat.CandidatesFor(context.Background(), destination.Automatic) {
		keys = append(keys, candidate.Key())
	}
	// the application is not installed and the chooser is interactive only
	if diff := cmp.Diff([]string{"file", "upload"}, keys); diff != "" {
		t.Errorf("candidates (-want +got):\n%s", diff)
	}
	if len(registry.Names()) != 0 {
		t.Errorf("want no exclusions for a missing application, got %v", registry.Names())
	}
}

func TestJobs(t *testing.T) {
	c := config.Default()
	c.Jobs = []config.Job{{Name: "status", Schedule: "@hourly", URL: "https://status.example", Destination: "file"}}

	jobs := bootstrap.Jobs(&c)
	if diff := cmp.Diff(1, len(jobs)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("file", jobs[0].Destination); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
