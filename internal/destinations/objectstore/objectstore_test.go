package objectstore_test

import (
	"context"
	"testing"
	"time"

	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/destinations/objectstore"
	"capture-dispatcher/internal/testsupport"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
)

type memoryStorage struct {
	objects map[string][]byte
}

func (m *memoryStorage) Put(ctx context.Context, key string, data []byte) (string, error) {
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return "s3://captures/" + key, nil
}

func (m *memoryStorage) Delete(ctx context.Context, location string) error {
	return nil
}

func TestExport(t *testing.T) {
	s := &memoryStorage{}
	d := &objectstore.Destination{Storage: s, Bucket: "captures", Log: logr.Discard()}
	if !d.IsAvailable() {
		t.Fatal("want available")
	}

	c := testsupport.Capture()
	c.CapturedAt = time.Date(2026, 10, 14, 23, 30, 0, 0, time.FixedZone("JST", 9*60*60))
	outcome, err := d.Export(context.Background(), destination.Request{Capture: c, Trigger: destination.Automatic})
	if err != nil {
		t.Fatal(err)
	}

	key := "captures/2026/10/14/" + c.BaseName()
	if diff := cmp.Diff(destination.Completed(destination.Result{Succeeded: true, ArtifactPath: "s3://captures/" + key}), outcome); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(c.Image, s.objects[key]); diff != "" {
		t.Errorf("stored (-want +got):\n%s", diff)
	}
}

func TestAvailability(t *testing.T) {
	if (&objectstore.Destination{Storage: &memoryStorage{}}).IsAvailable() {
		t.Error("want unavailable without bucket")
	}
}
