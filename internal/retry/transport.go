package retry

import (
	"io"
	"net/http"
	"time"

	"golang.org/x/xerrors"
)

// Transport retries requests on the conditions in RetryOn. Requests with a
// body are only retried when the body can be rewound through GetBody.
type Transport struct {
	Base          http.RoundTripper
	RetryStrategy Strategy
	RetryOn       *On
}

func (t *Transport) RoundTrip(request *http.Request) (*http.Response, error) {
	ctx := request.Context()
	for n := uint(0); ; n++ {
		attempt := request
		if n > 0 {
			var err error
			if attempt, err = rewind(request); err != nil {
				return nil, err
			}
		}

		response, err := t.base().RoundTrip(attempt)

		retriable := false
		if t.RetryOn != nil {
			if err != nil {
				retriable = t.RetryOn.CheckError(err)
			} else {
				retriable = t.RetryOn.CheckResponse(response)
			}
		}
		if retriable && request.Body != nil && request.GetBody == nil {
			retriable = false
		}
		sleep, exceeded := t.retryStrategy().Sleep(n)
		if !retriable || exceeded {
			return response, err
		}

		if response != nil {
			_, _ = io.Copy(io.Discard, response.Body)
			response.Body.Close()
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func rewind(request *http.Request) (*http.Request, error) {
	attempt := request.Clone(request.Context())
	if request.GetBody != nil {
		body, err := request.GetBody()
		if err != nil {
			return nil, xerrors.Errorf("failed to rewind request body: %w", err)
		}
		attempt.Body = body
	}
	return attempt, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) retryStrategy() Strategy {
	if t.RetryStrategy != nil {
		return t.RetryStrategy
	}
	return NewNever()
}
