package application

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/go-logr/logr"
	"golang.org/x/xerrors"
)

// Bridge talks to a running document application.
type Bridge interface {
	// Documents lists the documents currently open.
	Documents(ctx context.Context) ([]string, error)
	InsertInto(ctx context.Context, document string, imagePath string, title string) error
	// InsertIntoNew opens a new document holding the image and returns its name.
	InsertIntoNew(ctx context.Context, imagePath string, title string) (string, error)
}

// CommandBridge drives the application through a helper executable:
//
//	<executable> list
//	<executable> insert <document> <image> <title>
//	<executable> new <image> <title>
//
// A cancelled call returns at once but the helper is left to finish, since
// killing it midway can leave the document half edited.
type CommandBridge struct {
	Executable string
	Log        logr.Logger
}

func (b *CommandBridge) Documents(ctx context.Context) ([]string, error) {
	out, err := b.run(ctx, "list")
	if err != nil {
		return nil, err
	}
	var documents []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			documents = append(documents, line)
		}
	}
	return documents, nil
}

func (b *CommandBridge) InsertInto(ctx context.Context, document string, imagePath string, title string) error {
	_, err := b.run(ctx, "insert", document, imagePath, title)
	return err
}

func (b *CommandBridge) InsertIntoNew(ctx context.Context, imagePath string, title string) (string, error) {
	out, err := b.run(ctx, "new", imagePath, title)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (b *CommandBridge) run(ctx context.Context, args ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(b.Executable, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return "", xerrors.Errorf("failed to start %s: %w", b.Executable, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		b.Log.Info("leaving application command to finish after cancellation", "command", args[0], "pid", cmd.Process.Pid)
		return "", ctx.Err()
	case err := <-done:
		if err != nil {
			return "", xerrors.Errorf("%s %s failed: %s: %w", b.Executable, args[0], strings.TrimSpace(stderr.String()), err)
		}
		return stdout.String(), nil
	}
}
