package swiss

import (
	"fmt"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/Dosada05/tournament-pairing/oracle"
)

// DeletePairings removes a round's pairings and pairing byes. Byes that were
// requested explicitly stay. Pairings with recorded results cannot be
// removed.
func DeletePairings(r models.Round) (models.Round, []models.Match, error) {
	kept, discarded, err := clearRound(r, true)
	if err != nil {
		return r, nil, err
	}
	r.Matches = kept
	return r, discarded, nil
}

func clearRound(r models.Round, overwrite bool) ([]models.Match, []models.Match, error) {
	pairings := r.Pairings()
	if len(pairings) > 0 {
		if !overwrite {
			return nil, nil, fmt.Errorf("round %d: %w", r.Number, models.ErrPairingsExist)
		}
		for _, m := range pairings {
			if m.HasRecordedResults() {
				return nil, nil, fmt.Errorf("round %d, pairing %d: %w", r.Number, m.PairingOrder, models.ErrPairingHasResult)
			}
		}
	}

	var kept, discarded []models.Match
	for _, m := range r.Matches {
		if m.IsBye() && m.ByeType != models.ByeFullPointPairing {
			kept = append(kept, m)
		} else {
			discarded = append(discarded, m)
		}
	}
	return kept, discarded, nil
}

// mapPairs turns oracle indices back into matches. Every included
// competitor must appear exactly once. Boards left empty by a lineup are
// forfeited right away.
func mapPairs(pairs []oracle.Pair, ordered []models.Competitor, included map[int]bool, gamesPerMatch int) ([]models.Match, []models.Match, error) {
	seen := make(map[int]bool, len(included))
	lookup := func(idx int) (models.Competitor, error) {
		if idx < 1 || idx > len(ordered) {
			return models.Competitor{}, fmt.Errorf("oracle returned index %d out of %d: %w", idx, len(ordered), models.ErrPairingGeneration)
		}
		c := ordered[idx-1]
		if !included[c.ID] {
			return c, fmt.Errorf("oracle paired excluded competitor %d: %w", c.ID, models.ErrPairingGeneration)
		}
		if seen[c.ID] {
			return c, fmt.Errorf("oracle paired competitor %d twice: %w", c.ID, models.ErrPairingGeneration)
		}
		seen[c.ID] = true
		return c, nil
	}

	var matches, byes []models.Match
	for i, p := range pairs {
		white, err := lookup(p.White)
		if err != nil {
			return nil, nil, err
		}
		if p.IsBye() {
			byes = append(byes, models.NewBye(white.ID, models.ByeFullPointPairing))
			continue
		}
		black, err := lookup(p.Black)
		if err != nil {
			return nil, nil, err
		}
		m := models.NewMatch(white.ID, black.ID, i+1)
		m.Games = models.MatchGames(white, black, gamesPerMatch)
		m.AssignForfeits()
		matches = append(matches, m)
	}

	for id := range included {
		if !seen[id] {
			return nil, nil, fmt.Errorf("competitor %d was left unpaired: %w", id, models.ErrPairingGeneration)
		}
	}
	return matches, byes, nil
}
