package storage_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"capture-dispatcher/internal/storage"

	"github.com/google/go-cmp/cmp"
)

func TestFileStorage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: dir})
	if err != nil {
		t.Fatal(err)
	}

	location, err := s.Put(ctx, "2026/10/capture.png", []byte("image"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(filepath.Join(dir, "2026", "10", "capture.png"), location); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	data, err := os.ReadFile(location)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("image", string(data)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	if err := s.Delete(ctx, location); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(location); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("want file removed, got %v", err)
	}
	if err := s.Delete(ctx, location); err != nil {
		t.Errorf("deleting a missing file should succeed: %v", err)
	}
}

func TestFileStorageRejectsEscapingKey(t *testing.T) {
	s, err := storage.NewFileStorage(context.Background(), storage.FileConfig{Directory: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put(context.Background(), "../outside.png", []byte("image")); err == nil {
		t.Errorf("want error for escaping key")
	}
}
