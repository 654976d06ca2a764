package history_test

import (
	"context"
	"path/filepath"
	"testing"

	"capture-dispatcher/internal/history"

	"github.com/google/go-cmp/cmp"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := history.Open(path)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok, err := s.Last(ctx, "automatic"); err != nil || ok {
		t.Fatalf("want no choice, got ok=%v err=%v", ok, err)
	}

	if err := s.Record(ctx, "automatic", "file"); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(ctx, "automatic", "presentation/Q1.pptx"); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(ctx, "manual", "clipboard"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	for scope, want := range map[string]string{
		"automatic": "presentation/Q1.pptx",
		"manual":    "clipboard",
	} {
		got, ok, err := reopened.Last(ctx, scope)
		if err != nil || !ok {
			t.Fatalf("want choice for %s, got ok=%v err=%v", scope, ok, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s (-want +got):\n%s", scope, diff)
		}
	}
}
