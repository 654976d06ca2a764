// Package config declares the destinations, history and schedule of a
// dispatcher, read from a TOML file.
package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/xerrors"
)

type File struct {
	Enabled   bool   `toml:"enabled"`
	Directory string `toml:"directory"`
	// Layout is a Go time layout prefixed to file names, e.g. "2006/01".
	Layout   string `toml:"layout"`
	Label    string `toml:"label"`
	Priority int    `toml:"priority"`
}

type S3 struct {
	Bucket      string `toml:"bucket"`
	Prefix      string `toml:"prefix"`
	EndpointURL string `toml:"endpoint_url"`
	Priority    int    `toml:"priority"`
}

type Upload struct {
	Endpoint          string `toml:"endpoint"`
	Label             string `toml:"label"`
	Token             string `toml:"token"`
	Priority          int    `toml:"priority"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RetryOn           string `toml:"retry_on"`
	MaxRetries        uint   `toml:"max_retries"`
	BaseBackOffMillis int    `toml:"base_backoff_millis"`
}

// Application is an external document application reached through a
// helper executable.
type Application struct {
	Designation string `toml:"designation"`
	Label       string `toml:"label"`
	Executable  string `toml:"executable"`
	Process     string `toml:"process"`
	Priority    int    `toml:"priority"`
}

type Chooser struct {
	Enabled  bool   `toml:"enabled"`
	Label    string `toml:"label"`
	Priority int    `toml:"priority"`
}

type History struct {
	Path string `toml:"path"`
}

// Job captures URL on Schedule and dispatches it automatically.
type Job struct {
	Name        string            `toml:"name"`
	Schedule    string            `toml:"schedule"`
	URL         string            `toml:"url"`
	Destination string            `toml:"destination"`
	Title       string            `toml:"title"`
	Headers     map[string]string `toml:"headers"`
}

type Config struct {
	TempDir      string        `toml:"temp_dir"`
	MaxDepth     int           `toml:"max_depth"`
	File         File          `toml:"file"`
	S3           S3            `toml:"s3"`
	Upload       Upload        `toml:"upload"`
	Applications []Application `toml:"applications"`
	Chooser      Chooser       `toml:"chooser"`
	History      History       `toml:"history"`
	Jobs         []Job         `toml:"jobs"`
}

func Default() Config {
	return Config{
		TempDir:  os.TempDir(),
		MaxDepth: 2,
		File: File{
			Enabled:   true,
			Directory: "/tmp/captures",
			Priority:  10,
		},
		S3: S3{
			Priority: 20,
		},
		Upload: Upload{
			Priority:          30,
			TimeoutSeconds:    60,
			MaxRetries:        3,
			BaseBackOffMillis: 500,
		},
		Chooser: Chooser{
			Enabled:  true,
			Priority: 1 << 20,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, xerrors.Errorf("failed to open config: %w", err)
		default:
			defer file.Close()
			if err := toml.NewDecoder(file).DisallowUnknownFields().Decode(&c); err != nil {
				return nil, xerrors.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
