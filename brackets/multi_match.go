package brackets

import (
	"fmt"

	"github.com/Dosada05/tournament-pairing/models"
)

// In a multi-match stage every pair plays MatchesPerStage legs. Leg k of
// the pair first paired at order o has pairing order (k-1)*pairs + o, and
// no pair starts leg k+1 before every pair has finished leg k.

// MatchNumber returns the leg a pairing order belongs to.
func MatchNumber(pairingOrder, totalPairs int) int {
	if pairingOrder < 1 || totalPairs < 1 {
		return 1
	}
	return (pairingOrder-1)/totalPairs + 1
}

// PairingOrderFor returns the pairing order of leg matchNumber for the pair
// first paired at originalOrder.
func PairingOrderFor(originalOrder, matchNumber, totalPairs int) int {
	return (matchNumber-1)*totalPairs + originalOrder
}

type StageStatus struct {
	TotalPairs            int  `json:"total_pairs"`
	MatchesPerStage       int  `json:"matches_per_stage"`
	CurrentMatchNumber    int  `json:"current_match_number"`
	CompletedCurrentMatch int  `json:"completed_current_match"`
	AllCurrentComplete    bool `json:"all_current_complete"`
	StageComplete         bool `json:"stage_complete"`
}

// Status reports the progress of a knockout round's legs.
func Status(b models.KnockoutBracket, r models.Round) StageStatus {
	groups, _ := groupRound(r)
	st := StageStatus{
		TotalPairs:         len(groups),
		MatchesPerStage:    b.MatchesPerStage,
		CurrentMatchNumber: 1,
	}
	if st.MatchesPerStage < 1 {
		st.MatchesPerStage = 1
	}
	if len(groups) == 0 {
		st.AllCurrentComplete = true
		st.StageComplete = true
		return st
	}

	if legs := len(r.Pairings()) / len(groups); legs > 1 {
		st.CurrentMatchNumber = legs
	}
	for _, g := range groups {
		if len(g.matches) >= st.CurrentMatchNumber && g.matches[st.CurrentMatchNumber-1].IsComplete() {
			st.CompletedCurrentMatch++
		}
	}
	st.AllCurrentComplete = st.CompletedCurrentMatch == st.TotalPairs

	st.StageComplete = true
	for _, g := range groups {
		if len(g.matches) < st.MatchesPerStage {
			st.StageComplete = false
			break
		}
		for _, m := range g.matches {
			if !m.IsComplete() {
				st.StageComplete = false
			}
		}
	}
	return st
}

// CanGenerateNextMatchSet reports whether every pair finished the current
// leg and another leg is due.
func CanGenerateNextMatchSet(b models.KnockoutBracket, r models.Round) bool {
	if b.MatchesPerStage <= 1 {
		return false
	}
	st := Status(b, r)
	return st.TotalPairs > 0 && st.CurrentMatchNumber < b.MatchesPerStage && st.AllCurrentComplete
}

// NextMatchSet returns the return legs of a multi-match round: each pair
// again with colors flipped and no manual tiebreak. The round passed in is
// not modified.
func NextMatchSet(b models.KnockoutBracket, r models.Round, competitors []models.Competitor) ([]models.Match, error) {
	if !CanGenerateNextMatchSet(b, r) {
		return nil, fmt.Errorf("cannot generate next match set for round %d: %w", r.Number, models.ErrPairingGeneration)
	}
	groups, _ := groupRound(r)
	st := Status(b, r)
	next := st.CurrentMatchNumber + 1

	byID := make(map[int]models.Competitor, len(competitors))
	for _, c := range competitors {
		byID[c.ID] = c
	}
	lookup := func(id int) models.Competitor {
		if c, ok := byID[id]; ok {
			return c
		}
		return models.Competitor{ID: id, IsActive: true}
	}

	legs := make([]models.Match, 0, len(groups))
	for _, g := range groups {
		original := g.matches[0]
		white, black := *original.Competitor2ID, original.Competitor1ID
		m := models.NewMatch(white, black, PairingOrderFor(g.firstOrder(), next, len(groups)))
		m.Games = models.MatchGames(lookup(white), lookup(black), b.GamesPerMatch)
		m.AssignForfeits()
		legs = append(legs, m)
	}
	return legs, nil
}
