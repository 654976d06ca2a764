package chooser_test

import (
	"context"
	"testing"

	"capture-dispatcher/internal/catalog"
	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/destinations/chooser"
	"capture-dispatcher/internal/dispatch"
	"capture-dispatcher/internal/testsupport"

	"github.com/google/go-cmp/cmp"
)

func TestChooser(t *testing.T) {
	clipboard := testsupport.NewStatic("clipboard", 5)
	file := testsupport.NewStatic("file", 10)
	c, err := catalog.New(clipboard, file, &chooser.Destination{Priority: 1 << 20})
	if err != nil {
		t.Fatal(err)
	}

	prompter := &testsupport.Prompter{Choose: func(candidates []destination.Candidate) dispatch.Choice {
		// first the full list with the chooser last, then the rescoped list
		return dispatch.Choice{Candidate: candidates[len(candidates)-1]}
	}}
	result := dispatch.NewEngine(c, prompter).Dispatch(context.Background(), dispatch.Request{
		Capture: testsupport.Capture(),
		Trigger: destination.Manual,
	})

	if diff := cmp.Diff([][]string{{"clipboard", "file", "picker"}, {"clipboard", "file"}}, prompter.Prompts()); diff != "" {
		t.Errorf("prompts (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("file", result.Designation); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if !result.Succeeded {
		t.Errorf("want success, got %+v", result)
	}
	if diff := cmp.Diff(1, file.Exports()); diff != "" {
		t.Errorf("file exports (-want +got):\n%s", diff)
	}
}

func TestChooserIsInteractiveOnly(t *testing.T) {
	c, err := catalog.New(testsupport.NewStatic("file", 10), &chooser.Destination{})
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, candidate := range c.CandidatesFor(context.Background(), destination.Automatic) {
		got = append(got, candidate.Key())
	}
	if diff := cmp.Diff([]string{"file"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
