package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-pairing/services"
)

type PairingHandler struct {
	pairingService services.PairingService
}

func NewPairingHandler(ps services.PairingService) *PairingHandler {
	return &PairingHandler{pairingService: ps}
}

// GeneratePairings обрабатывает POST /tournaments/{tournamentID}/rounds/{roundNumber}/pairings?overwrite=
func (h *PairingHandler) GeneratePairings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := getIDFromURL(r, "roundNumber")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	overwrite, err := getBoolQuery(r, "overwrite")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	paired, err := h.pairingService.GeneratePairings(r.Context(), tournamentID, round, overwrite)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"round": paired}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeletePairings обрабатывает DELETE /tournaments/{tournamentID}/rounds/{roundNumber}/pairings
func (h *PairingHandler) DeletePairings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := getIDFromURL(r, "roundNumber")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	remaining, err := h.pairingService.DeletePairings(r.Context(), tournamentID, round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": remaining}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
