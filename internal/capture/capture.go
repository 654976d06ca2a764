package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSealed = errors.New("capture is sealed for dispatch")

// Context is a single capture handed to the dispatch engine.
// Image is borrowed and must be treated as read-only by every destination.
type Context struct {
	ID         string
	Image      []byte
	Format     string
	Filename   string
	Title      string
	CapturedAt time.Time

	mu       sync.Mutex
	modified bool
	sealed   bool
}

func NewContext(image []byte, format string, title string) *Context {
	if format == "" {
		format = "png"
	}
	return &Context{
		ID:         uuid.NewString(),
		Image:      image,
		Format:     format,
		Title:      title,
		CapturedAt: time.Now(),
	}
}

// MarkModified records that an editor changed the image after capture.
// It fails once dispatch has begun.
func (c *Context) MarkModified() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return ErrSealed
	}
	c.modified = true
	return nil
}

func (c *Context) Modified() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modified
}

func (c *Context) Seal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed = true
}

type Options struct {
	Headers map[string]string
	Title   string
}

type Capturer interface {
	Capture(ctx context.Context, url string, options Options) (*Context, error)
}
