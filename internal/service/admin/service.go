package admin

import (
	"encoding/json"
	"net/http"

	"github.com/doemee-app/match-engine/internal/app"
	svcErr "github.com/doemee-app/match-engine/internal/errors"
	"github.com/doemee-app/match-engine/internal/scoring"
)

// Service is the administrative weights configuration API, the only
// mutation surface for ScoringWeights. The retrieval path never sees
// it.
type Service struct {
	appCtx *app.AppContext
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// HandleGetWeights returns the active configuration alongside the
// stock defaults.
func (s *Service) HandleGetWeights(w http.ResponseWriter, r *http.Request) {
	current, err := s.appCtx.Weights.Get(r.Context())
	if err != nil {
		svcErr.WriteHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"weights":  current,
		"defaults": scoring.Defaults(),
	})
}

// HandlePatchWeights merges a partial update into the current
// configuration. The merged result validates as a whole or nothing
// is written: no partial or inconsistent weight set ever lands.
func (s *Service) HandlePatchWeights(w http.ResponseWriter, r *http.Request) {
	var partial scoring.Partial
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		svcErr.WriteHTTP(w, svcErr.InvalidArgument("invalid request payload"))
		return
	}

	updated, err := s.appCtx.Weights.Set(r.Context(), partial)
	if err != nil {
		s.appCtx.Logger.Warn("weights update rejected", "err", err)
		svcErr.WriteHTTP(w, err)
		return
	}

	s.appCtx.Logger.Info("scoring weights updated",
		"motivation", updated.Motivation,
		"distance", updated.Distance,
		"skill", updated.Skill,
		"freshness", updated.Freshness,
	)
	writeJSON(w, http.StatusOK, map[string]interface{}{"weights": updated})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
