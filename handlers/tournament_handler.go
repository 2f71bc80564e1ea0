package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/Dosada05/tournament-pairing/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
	}
}

type createFormatInput struct {
	Name           string                `json:"name"`
	PairingType    models.PairingType    `json:"pairing_type"`
	CompetitorType models.CompetitorType `json:"competitor_type"`
	Settings       json.RawMessage       `json:"settings,omitempty"`
}

type createTournamentInput struct {
	Name        string    `json:"name"`
	FormatID    int       `json:"format_id"`
	TotalRounds int       `json:"total_rounds"`
	StartDate   time.Time `json:"start_date"`
}

type addCompetitorInput struct {
	Name       string      `json:"name"`
	SeedRating int         `json:"seed_rating"`
	Boards     map[int]int `json:"boards,omitempty"` // board number -> player id
}

// CreateFormat обрабатывает POST /formats
func (h *TournamentHandler) CreateFormat(w http.ResponseWriter, r *http.Request) {
	var input createFormatInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	format := &models.Format{
		Name:           input.Name,
		PairingType:    input.PairingType,
		CompetitorType: input.CompetitorType,
	}
	if len(input.Settings) > 0 {
		raw := string(input.Settings)
		format.SettingsJSON = &raw
	}

	if err := h.tournamentService.CreateFormat(r.Context(), format); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"format": format}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateTournament обрабатывает POST /tournaments
func (h *TournamentHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var input createTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.FormatID <= 0 {
		badRequestResponse(w, r, errors.New("format_id is required"))
		return
	}

	tournament := &models.Tournament{
		Name:        input.Name,
		FormatID:    input.FormatID,
		TotalRounds: input.TotalRounds,
		StartDate:   input.StartDate,
	}
	if err := h.tournamentService.CreateTournament(r.Context(), tournament); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetTournament обрабатывает GET /tournaments/{tournamentID}
func (h *TournamentHandler) GetTournament(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddCompetitor обрабатывает POST /tournaments/{tournamentID}/competitors
func (h *TournamentHandler) AddCompetitor(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input addCompetitorInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	competitor := &models.Competitor{Name: input.Name, SeedRating: input.SeedRating}
	if len(input.Boards) > 0 {
		competitor.Roster = &models.Roster{Boards: input.Boards}
	}
	if err := h.tournamentService.AddCompetitor(r.Context(), id, competitor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"competitor": competitor}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
