package file_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/destinations/file"
	"capture-dispatcher/internal/storage"
	"capture-dispatcher/internal/testsupport"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
)

func TestExport(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: dir})
	if err != nil {
		t.Fatal(err)
	}
	d := &file.Destination{Storage: s, Layout: "2006-01", Log: logr.Discard()}

	c := testsupport.Capture()
	c.CapturedAt = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	c.Filename = "/home/user/Pictures/original.png"

	outcome, err := d.Export(ctx, destination.Request{Capture: c, Trigger: destination.Manual})
	if err != nil {
		t.Fatal(err)
	}
	want := destination.Completed(destination.Result{Succeeded: true, ArtifactPath: filepath.Join(dir, "2026-10", "original.png")})
	if diff := cmp.Diff(want, outcome); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	modified := testsupport.Capture()
	modified.CapturedAt = c.CapturedAt
	modified.Filename = c.Filename
	if err := modified.MarkModified(); err != nil {
		t.Fatal(err)
	}
	outcome, err = d.Export(ctx, destination.Request{Capture: modified, Trigger: destination.Manual})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(filepath.Join(dir, "2026-10", modified.BaseName()), outcome.Result.ArtifactPath); diff != "" {
		t.Errorf("modified capture (-want +got):\n%s", diff)
	}
}

// cancellingStorage cancels the export while Put is in flight.
type cancellingStorage struct {
	storage.Storage
	cancel    context.CancelFunc
	deleteErr error

	mu      sync.Mutex
	deleted []string
}

func (s *cancellingStorage) Put(ctx context.Context, key string, data []byte) (string, error) {
	location, err := s.Storage.Put(ctx, key, data)
	s.cancel()
	return location, err
}

func (s *cancellingStorage) Delete(ctx context.Context, location string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.mu.Lock()
	s.deleted = append(s.deleted, location)
	s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Storage.Delete(ctx, location)
}

func TestExportCancelledDuringPut(t *testing.T) {
	for name, deleteErr := range map[string]error{
		"removed":  nil,
		"leftover": errors.New("permission denied"),
	} {
		deleteErr := deleteErr
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			base, err := storage.NewFileStorage(context.Background(), storage.FileConfig{Directory: dir})
			if err != nil {
				t.Fatal(err)
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			s := &cancellingStorage{Storage: base, cancel: cancel, deleteErr: deleteErr}
			d := &file.Destination{Storage: s, Log: logr.Discard()}

			c := testsupport.Capture()
			outcome, err := d.Export(ctx, destination.Request{Capture: c, Trigger: destination.Manual})
			if err != nil {
				t.Fatal(err)
			}

			location := filepath.Join(dir, c.BaseName())
			want := destination.Result{Cancelled: true}
			if deleteErr != nil {
				want.PartialArtifactPath = location
			}
			if diff := cmp.Diff(destination.Completed(want), outcome); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{location}, s.deleted); diff != "" {
				t.Errorf("deleted (-want +got):\n%s", diff)
			}
			_, statErr := os.Stat(location)
			if (deleteErr == nil) != os.IsNotExist(statErr) {
				t.Errorf("unexpected artifact state: %v", statErr)
			}
		})
	}
}

func TestExportAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	d := &file.Destination{Storage: s, Log: logr.Discard()}
	if _, err := d.Export(ctx, destination.Request{Capture: testsupport.Capture()}); !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}
