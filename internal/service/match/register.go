package match

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/doemee-app/match-engine/internal/app"
)

// Registrar ties the matching service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the matching service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the matching routes to the router
func (r *Registrar) Register(router *mux.Router) {
	service := NewService(r.appCtx)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/volunteers/{id}/recommendations", service.HandleRecommendations).Methods(http.MethodGet)
	api.HandleFunc("/vacancies/{id:[0-9]+}/candidates", service.HandleCandidates).Methods(http.MethodGet)
	api.HandleFunc("/vacancies", service.HandleListVacancies).Methods(http.MethodGet)
	api.HandleFunc("/swipes", service.HandlePutSwipe).Methods(http.MethodPut)
	api.HandleFunc("/volunteers/{volunteerId}/swipes/{vacancyId}", service.HandleDeleteSwipe).Methods(http.MethodDelete)
	api.HandleFunc("/matches/{id}/status", service.HandleMatchStatus).Methods(http.MethodPost)
}
