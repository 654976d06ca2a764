package picker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/dispatch"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/xerrors"
)

// Terminal asks on a line-oriented terminal. Prompts from concurrent
// dispatches are shown one at a time.
type Terminal struct {
	mu     sync.Mutex
	in     *bufio.Reader
	out    io.Writer
	lines  chan line
	reader sync.Once
}

type line struct {
	text string
	err  error
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan line),
	}
}

func (t *Terminal) Prompt(ctx context.Context, candidates []destination.Candidate) (dispatch.Choice, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(candidates) == 0 {
		fmt.Fprintln(t.out, "No destination available.")
		return dispatch.Choice{Cancelled: true}, nil
	}

	t.discardPending()
	RenderTable(t.out, candidates)
	fmt.Fprint(t.out, "Export to (number, empty to cancel): ")

	t.reader.Do(func() {
		go func() {
			for {
				text, err := t.in.ReadString('\n')
				t.lines <- line{text: text, err: err}
				if err != nil {
					close(t.lines)
					return
				}
			}
		}()
	})

	select {
	case <-ctx.Done():
		fmt.Fprintln(t.out)
		return dispatch.Choice{Cancelled: true}, nil
	case l, ok := <-t.lines:
		if !ok {
			return dispatch.Choice{Cancelled: true}, nil
		}
		answer := strings.TrimSpace(l.text)
		if answer == "" {
			if l.err != nil && l.err != io.EOF {
				return dispatch.Choice{}, xerrors.Errorf("failed to read choice: %w", l.err)
			}
			return dispatch.Choice{Cancelled: true}, nil
		}
		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(candidates) {
			fmt.Fprintf(t.out, "Invalid choice %q.\n", answer)
			return dispatch.Choice{Cancelled: true}, nil
		}
		return dispatch.Choice{Candidate: candidates[n-1]}, nil
	}
}

// discardPending drops a line typed while no prompt was waiting for it, so
// it cannot answer a table that has not been shown yet.
func (t *Terminal) discardPending() {
	for {
		select {
		case l, ok := <-t.lines:
			if !ok || l.err != nil {
				return
			}
		default:
			return
		}
	}
}

// RenderTable writes candidates in the given order.
func RenderTable(out io.Writer, candidates []destination.Candidate) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Destination", "Key"})
	for i, c := range candidates {
		tw.AppendRow(table.Row{i + 1, c.DisplayLabel(), c.Key()})
	}
	tw.Render()
}
