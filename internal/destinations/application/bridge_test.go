package application_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"capture-dispatcher/internal/destinations/application"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const helper = `#!/bin/sh
case "$1" in
list)
	printf 'Q1.pptx\n\nQ2.pptx\n'
	;;
insert)
	printf '%s %s %s' "$2" "$3" "$4" > "$(dirname "$0")/inserted"
	;;
new)
	sleep 0.3
	printf 'done' > "$(dirname "$0")/created"
	echo Presentation1
	;;
*)
	echo "unknown command $1" >&2
	exit 2
	;;
esac
`

func newBridge(t *testing.T) (*application.CommandBridge, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("helper script needs a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "presenter")
	if err := os.WriteFile(path, []byte(helper), 0755); err != nil {
		t.Fatal(err)
	}
	return &application.CommandBridge{Executable: path, Log: logr.Discard()}, dir
}

func TestCommandBridge(t *testing.T) {
	bridge, dir := newBridge(t)
	ctx := context.Background()

	documents, err := bridge.Documents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Q1.pptx", "Q2.pptx"}, documents); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	if err := bridge.InsertInto(ctx, "Q1.pptx", "/tmp/a.png", "title"); err != nil {
		t.Fatal(err)
	}
	inserted, err := os.ReadFile(filepath.Join(dir, "inserted"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("Q1.pptx /tmp/a.png title", string(inserted)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	name, err := bridge.InsertIntoNew(ctx, "/tmp/a.png", "title")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("Presentation1", name); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestCommandBridgeCancelLeavesCommandRunning(t *testing.T) {
	bridge, dir := newBridge(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := bridge.InsertIntoNew(ctx, "/tmp/a.png", "title")
	if diff := cmp.Diff(context.Canceled, err, cmpopts.EquateErrors()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(filepath.Join(dir, "created")); err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("command did not finish after cancellation")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
