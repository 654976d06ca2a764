package routes

import (
	"encoding/json"
	"net/http"

	"capture-dispatcher/internal/destination"
	"capture-dispatcher/internal/dispatch"

	"github.com/go-logr/logr"
	"golang.org/x/xerrors"
)

type CandidateResponse struct {
	Key             string `json:"key"`
	Designation     string `json:"designation"`
	Discriminator   string `json:"discriminator,omitempty"`
	Label           string `json:"label"`
	Priority        int    `json:"priority"`
	Dynamic         bool   `json:"dynamic"`
	InteractiveOnly bool   `json:"interactiveOnly"`
}

func ListDestinations(resolver dispatch.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logr.FromContextOrDiscard(r.Context())

		trigger, err := parseTrigger(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		response := []CandidateResponse{}
		for _, c := range resolver.CandidatesFor(r.Context(), trigger) {
			response = append(response, CandidateResponse{
				Key:             c.Key(),
				Designation:     c.Designation,
				Discriminator:   c.Discriminator,
				Label:           c.DisplayLabel(),
				Priority:        c.Priority,
				Dynamic:         c.IsDynamic(),
				InteractiveOnly: c.IsInteractiveOnly(),
			})
		}

		b, err := json.Marshal(response)
		if err != nil {
			log.Error(err, "failed to marshal json")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}

func parseTrigger(r *http.Request) (destination.Trigger, error) {
	v := r.URL.Query().Get("trigger")
	if v == "" {
		return destination.Manual, nil
	}
	trigger, err := destination.ParseTrigger(v)
	if err != nil {
		return 0, xerrors.Errorf("invalid trigger %q", v)
	}
	return trigger, nil
}
