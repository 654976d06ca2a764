package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"capture-dispatcher/internal/capture"
	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/dispatch"

	"github.com/go-logr/logr"
)

const maxImageSize = 64 << 20

// HistoryScope is the scope successful HTTP dispatches are recorded under.
const HistoryScope = "http"

type Dispatcher interface {
	Dispatch(ctx context.Context, request dispatch.Request) destination.Result
}

// Recorder remembers successful choices.
type Recorder interface {
	Record(ctx context.Context, scope string, key string) error
}

// Dispatch exports the image in the request body. The outcome is always
// written as JSON; the status tells the kind of outcome apart.
func Dispatch(dispatcher Dispatcher, recorder Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logr.FromContextOrDiscard(r.Context())
		query := r.URL.Query()

		trigger, err := parseTrigger(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		image, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImageSize))
		if err != nil {
			var maxBytesError *http.MaxBytesError
			if errors.As(err, &maxBytesError) {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}
			log.Error(err, "failed to read image")
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		format := query.Get("format")
		if format == "" {
			format = detectFormat(image)
		}
		c := capture.NewContext(image, format, query.Get("title"))
		c.Filename = query.Get("filename")
		if modified, _ := strconv.ParseBool(query.Get("modified")); modified {
			_ = c.MarkModified()
		}

		result := dispatcher.Dispatch(r.Context(), dispatch.Request{
			Capture:     c,
			Trigger:     trigger,
			Preselected: query.Get("destination"),
		})

		if result.Succeeded && recorder != nil {
			if err := recorder.Record(r.Context(), HistoryScope, result.Designation); err != nil {
				log.Error(err, "failed to record destination", "designation", result.Designation)
			}
		}

		b, err := json.Marshal(result)
		if err != nil {
			log.Error(err, "failed to marshal json")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status(result))
		_, _ = w.Write(b)
	}
}

func status(result destination.Result) int {
	switch {
	case result.Succeeded, result.Cancelled:
		return http.StatusOK
	case result.Failure == destination.FailureCapture:
		return http.StatusBadRequest
	case result.Failure == destination.FailureLoop:
		return http.StatusLoopDetected
	default:
		return http.StatusBadGateway
	}
}

func detectFormat(image []byte) string {
	contentType := http.DetectContentType(image)
	if format, ok := strings.CutPrefix(contentType, "image/"); ok {
		return format
	}
	return "png"
}
