package http

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/harborline/storefront/internal/domain"
	"github.com/harborline/storefront/pkg/httputil"
)

// GeoHandler serves the countries and states the storefront ships to, for
// checkout address forms.
type GeoHandler struct {
	gazetteer *domain.Gazetteer
}

// NewGeoHandler creates a new geography HTTP handler.
func NewGeoHandler(gz *domain.Gazetteer) *GeoHandler {
	return &GeoHandler{gazetteer: gz}
}

// ListCountries handles GET /api/v1/countries
func (h *GeoHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries := h.gazetteer.Countries()
	sort.Slice(countries, func(i, j int) bool { return countries[i].Code < countries[j].Code })

	// States are served per country to keep this payload small.
	summaries := make([]domain.Country, len(countries))
	for i, c := range countries {
		c.States = nil
		summaries[i] = c
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summaries})
}

// ListStates handles GET /api/v1/countries/{code}/states
func (h *GeoHandler) ListStates(w http.ResponseWriter, r *http.Request) {
	country, ok := h.gazetteer.Country(chi.URLParam(r, "code"))
	if !ok {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "NOT_FOUND", Message: "country not found"},
		})
		return
	}

	states := country.States
	if states == nil {
		states = []domain.State{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: states})
}
