package myhttp_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"capture-dispatcher/internal/myhttp"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestMiddleware(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&out, nil))
	histogram, err := noop.NewMeterProvider().Meter("test").Int64Histogram("http_requests_duration_micro_seconds")
	if err != nil {
		t.Fatal(err)
	}

	mux := myhttp.NewServerMux(logger, histogram)
	mux.HandleFuncWithMiddleware("GET /hello", func(w http.ResponseWriter, r *http.Request) {
		logr.FromContextOrDiscard(r.Context()).Info("hello")
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFuncWithMiddleware("GET /panic", func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler.Error())
	})

	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/hello", nil))
	if diff := cmp.Diff(http.StatusNoContent, recorder.Code); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	var record map[string]any
	if err := json.Unmarshal(out.Bytes(), &record); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"traceid", "spanid"} {
		if _, ok := record[key]; !ok {
			t.Errorf("want %s in %v", key, record)
		}
	}

	recorder = httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if diff := cmp.Diff(http.StatusInternalServerError, recorder.Code); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
