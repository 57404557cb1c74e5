package admin

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/doemee-app/match-engine/internal/app"
)

// Registrar ties the admin service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the admin service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the admin routes to the router
func (r *Registrar) Register(router *mux.Router) {
	service := NewService(r.appCtx)

	api := router.PathPrefix("/api/v1/admin").Subrouter()
	api.HandleFunc("/weights", service.HandleGetWeights).Methods(http.MethodGet)
	api.HandleFunc("/weights", service.HandlePatchWeights).Methods(http.MethodPatch)
}
