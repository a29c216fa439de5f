package http

import (
	"net/http"

	"github.com/secmon-lab/vigia/pkg/domain/interfaces"
)

type flightHandler struct {
	uc interfaces.FlightLookup
}

type flightLookupRequest struct {
	Airline      string `json:"airline"`
	FlightNumber string `json:"flightNumber"`
}

func (h *flightHandler) lookup(w http.ResponseWriter, r *http.Request) {
	var req flightLookupRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	info, err := h.uc.Lookup(r.Context(), req.Airline, req.FlightNumber)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, info)
}
