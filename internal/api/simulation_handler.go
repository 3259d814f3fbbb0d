package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/physlab/physlab-api/internal/api/shared"
	"github.com/physlab/physlab-api/internal/domain"
)

// SimulationHandler serves the static simulation catalog.
type SimulationHandler struct{}

// NewSimulationHandler creates a new SimulationHandler
func NewSimulationHandler() *SimulationHandler {
	return &SimulationHandler{}
}

// List handles GET /api/simulations requests
func (h *SimulationHandler) List(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, domain.Catalog())
}

// Get handles GET /api/simulations/{simulationID} requests
func (h *SimulationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := domain.SimulationID(chi.URLParam(r, "simulationID"))

	sim, err := domain.CatalogLookup(id)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Unknown simulation")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sim)
}
