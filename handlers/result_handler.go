package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/Dosada05/tournament-pairing/services"
)

type ResultHandler struct {
	resultService services.ResultService
}

func NewResultHandler(rs services.ResultService) *ResultHandler {
	return &ResultHandler{resultService: rs}
}

type recordResultInput struct {
	Result string `json:"result"`
}

type manualTiebreakInput struct {
	Value *int `json:"value"`
}

// pairingParams читает турнир, тур и порядковый номер пары из URL
func pairingParams(r *http.Request) (tournamentID, round, pairingOrder int, err error) {
	if tournamentID, err = getIDFromURL(r, "tournamentID"); err != nil {
		return
	}
	if round, err = getIDFromURL(r, "roundNumber"); err != nil {
		return
	}
	pairingOrder, err = getIDFromURL(r, "pairingOrder")
	return
}

// RecordResult обрабатывает PUT /tournaments/{tournamentID}/rounds/{roundNumber}/pairings/{pairingOrder}/games/{board}
func (h *ResultHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	tournamentID, round, pairingOrder, err := pairingParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	board, err := getIDFromURL(r, "board")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input recordResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	result, err := models.ParseGameResult(input.Result)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.resultService.RecordResult(r.Context(), tournamentID, round, pairingOrder, board, result)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetManualTiebreak обрабатывает PUT /tournaments/{tournamentID}/rounds/{roundNumber}/pairings/{pairingOrder}/tiebreak
func (h *ResultHandler) SetManualTiebreak(w http.ResponseWriter, r *http.Request) {
	tournamentID, round, pairingOrder, err := pairingParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input manualTiebreakInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.resultService.SetManualTiebreak(r.Context(), tournamentID, round, pairingOrder, input.Value)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
