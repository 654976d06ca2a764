// Package upload exports captures to an image hosting service over HTTP.
package upload

import (
	"bytes"
	"context"
	"io"
	"iter"
	"mime/multipart"
	"net/http"
	"time"

	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/retry"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/xerrors"
)

const Designation = "upload"

const maxResponseSize = 1 << 20

type Config struct {
	Endpoint string
	Label    string
	Token    string
	Priority int
	Timeout  time.Duration
	// RetryOn is a comma separated list of retry conditions, see retry.On
	RetryOn     string
	MaxRetries  uint
	BaseBackOff time.Duration
	Transport   http.RoundTripper
}

type Destination struct {
	config Config
	client *http.Client
	log    logr.Logger
}

func New(c Config, log logr.Logger) (*Destination, error) {
	if c.Label == "" {
		c.Label = "Upload to image host"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.BaseBackOff <= 0 {
		c.BaseBackOff = 500 * time.Millisecond
	}

	retryOn := retry.NewDefaultRetryOn()
	if c.RetryOn != "" {
		var err error
		if retryOn, err = retry.NewRetryOnFromString(c.RetryOn); err != nil {
			return nil, xerrors.Errorf("failed to parse retry conditions: %w", err)
		}
	}

	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &Destination{
		config: c,
		client: &http.Client{
			Timeout: c.Timeout,
			Transport: otelhttp.NewTransport(&retry.Transport{
				Base:          base,
				RetryStrategy: retry.NewExponentialBackOff(c.BaseBackOff, 10*c.BaseBackOff, c.MaxRetries, nil),
				RetryOn:       retryOn,
			}),
		},
		log: log.WithValues("designation", Designation),
	}, nil
}

func (d *Destination) Descriptor() destination.Descriptor {
	return destination.Descriptor{
		Designation:  Designation,
		Label:        d.config.Label,
		Priority:     d.config.Priority,
		Capabilities: destination.Static,
	}
}

func (d *Destination) IsAvailable() bool {
	return d.config.Endpoint != ""
}

func (d *Destination) Candidates(ctx context.Context) iter.Seq[destination.Candidate] {
	return destination.Self(d)
}

func (d *Destination) Export(ctx context.Context, request destination.Request) (destination.Outcome, error) {
	body, contentType, err := encode(request)
	if err != nil {
		return destination.Outcome{}, err
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return destination.Outcome{}, xerrors.Errorf("failed to create upload request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", contentType)
	httpRequest.Header.Set("Accept", "application/xml, application/json")
	if d.config.Token != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+d.config.Token)
	}

	response, err := d.client.Do(httpRequest)
	if err != nil {
		return destination.Outcome{}, xerrors.Errorf("failed to upload capture: %w", err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return destination.Outcome{}, xerrors.Errorf("failed to read upload response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return destination.Outcome{}, xerrors.Errorf("upload rejected with status %d: %s", response.StatusCode, bytes.TrimSpace(payload))
	}

	info := ParseResponse(d.log, response.Header.Get("Content-Type"), payload)
	location := info.Original
	if location == "" {
		location = info.Page
	}
	if location == "" {
		return destination.Outcome{}, xerrors.New("upload response contained no image location")
	}
	d.log.Info("capture uploaded", "original", info.Original, "page", info.Page, "thumbnail", info.Thumbnail)

	// the remote copy cannot be withdrawn, so a late cancellation reports it
	if ctx.Err() != nil {
		return destination.Completed(destination.Result{Cancelled: true, PartialArtifactPath: location}), nil
	}
	return destination.Completed(destination.Result{Succeeded: true, ArtifactPath: location}), nil
}

func encode(request destination.Request) ([]byte, string, error) {
	var buffer bytes.Buffer
	w := multipart.NewWriter(&buffer)
	if request.Capture.Title != "" {
		if err := w.WriteField("title", request.Capture.Title); err != nil {
			return nil, "", xerrors.Errorf("failed to encode title: %w", err)
		}
	}
	part, err := w.CreateFormFile("uploadfile", request.Capture.BaseName())
	if err != nil {
		return nil, "", xerrors.Errorf("failed to encode image: %w", err)
	}
	if _, err := part.Write(request.Capture.Image); err != nil {
		return nil, "", xerrors.Errorf("failed to encode image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", xerrors.Errorf("failed to encode upload: %w", err)
	}
	return buffer.Bytes(), w.FormDataContentType(), nil
}
