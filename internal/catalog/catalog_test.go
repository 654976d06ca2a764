package catalog_test

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"

	"capture-dispatcher/internal/catalog"
	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/testsupport"

	"github.com/google/go-cmp/cmp"
)

func keys(candidates []destination.Candidate) []string {
	out := []string{}
	for _, c := range candidates {
		out = append(out, c.Key())
	}
	return out
}

func TestCandidatesFor(t *testing.T) {
	type in struct {
		first destination.Trigger
	}

	type want struct {
		first []string
	}

	tests := []struct {
		name     string
		receiver func() []destination.Destination
		in       in
		want     want
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func() []destination.Destination {
				return []destination.Destination{
					testsupport.NewStatic("file", 10),
					testsupport.NewStatic("clipboard", 5),
					testsupport.NewDynamic("presentation", 10, "Q1.pptx", "Q2.pptx"),
				}
			},
			in{
				destination.Manual,
			},
			want{
				[]string{"clipboard", "file", "presentation/Q1.pptx", "presentation/Q2.pptx"},
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func() []destination.Destination {
				unavailable := testsupport.NewStatic("printer", 1)
				unavailable.Available = false
				return []destination.Destination{
					unavailable,
					testsupport.NewStatic("file", 10),
				}
			},
			in{
				destination.Manual,
			},
			want{
				[]string{"file"},
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func() []destination.Destination {
				chooser := testsupport.NewStatic("picker", 0)
				chooser.Desc.Capabilities = destination.Static | destination.InteractiveOnly
				return []destination.Destination{
					chooser,
					testsupport.NewStatic("clipboard", 5),
				}
			},
			in{
				destination.Automatic,
			},
			want{
				[]string{"clipboard"},
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func() []destination.Destination {
				chooser := testsupport.NewStatic("picker", 0)
				chooser.Desc.Capabilities = destination.Static | destination.InteractiveOnly
				return []destination.Destination{
					chooser,
					testsupport.NewStatic("clipboard", 5),
				}
			},
			in{
				destination.Manual,
			},
			want{
				[]string{"picker", "clipboard"},
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func() []destination.Destination {
				return []destination.Destination{
					testsupport.NewDynamic("presentation", 4),
					testsupport.NewStatic("b", 7),
					testsupport.NewStatic("a", 7),
				}
			},
			in{
				destination.Automatic,
			},
			want{
				[]string{"a", "b"},
			},
		},
	}

	for _, tt := range tests {
		name := tt.name
		receiver := tt.receiver
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c, err := catalog.New(receiver()...)
			if err != nil {
				t.Fatal(err)
			}
			got := keys(c.CandidatesFor(context.Background(), in.first))
			if diff := cmp.Diff(want.first, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
			again := keys(c.CandidatesFor(context.Background(), in.first))
			if diff := cmp.Diff(got, again); diff != "" {
				t.Errorf("unstable order (-first +second):\n%s", diff)
			}
		})
	}
}

func TestCandidatesForInheritsParentDescriptor(t *testing.T) {
	c, err := catalog.New(testsupport.NewDynamic("presentation", 4, "Q1.pptx"))
	if err != nil {
		t.Fatal(err)
	}
	got := c.CandidatesFor(context.Background(), destination.Manual)
	if len(got) != 1 {
		t.Fatalf("want 1 candidate, got %d", len(got))
	}
	if diff := cmp.Diff("presentation - Q1.pptx", got[0].DisplayLabel()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if got[0].Priority != 4 || !got[0].IsDynamic() {
		t.Errorf("unexpected descriptor: %+v", got[0].Descriptor)
	}
}

func TestCandidatesForConcurrent(t *testing.T) {
	c, err := catalog.New(
		testsupport.NewStatic("file", 10),
		testsupport.NewDynamic("presentation", 20, "Q1.pptx", "Q2.pptx"),
	)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"file", "presentation/Q1.pptx", "presentation/Q2.pptx"}
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if diff := cmp.Diff(want, keys(c.CandidatesFor(context.Background(), destination.Manual))); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		}()
	}
	wg.Wait()
}

func TestNew(t *testing.T) {
	tests := []struct {
		name            string
		in              []destination.Destination
		wantErrorString string
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			[]destination.Destination{
				testsupport.NewStatic("file", 1),
				testsupport.NewStatic("file", 2),
			},
			"duplicate destination designation: file",
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			[]destination.Destination{
				testsupport.NewStatic("", 1),
			},
			"destination without designation",
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			[]destination.Destination{
				testsupport.NewStatic("file", 1),
			},
			"",
		},
	}

	for _, tt := range tests {
		name := tt.name
		in := tt.in
		wantErrorString := tt.wantErrorString
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := catalog.New(in...)
			gotErrorString := ""
			if err != nil {
				gotErrorString = err.Error()
			}
			if diff := cmp.Diff(wantErrorString, gotErrorString); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}
