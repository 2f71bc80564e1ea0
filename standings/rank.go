package standings

import (
	"sort"

	"github.com/Dosada05/tournament-pairing/models"
)

// Rank orders competitors by match points, game points, the configured
// tiebreaks in order, seed rating (all descending) and finally competitor id
// ascending, so the result is a strict total order.
func Rank(scores map[int]models.CompetitorScore, tiebreaks map[int]models.TiebreakScores, order []string, seedRatings map[int]int, scoring models.ScoringSystem) []models.TournamentStanding {
	ids := sortedIDs(scores)
	keys := make(map[int][]float64, len(ids))
	for _, id := range ids {
		s := scores[id]
		keys[id] = append([]float64{float64(s.MatchPoints), s.GamePoints}, SortKey(tiebreaks[id], order, seedRatings[id])...)
	}

	sort.SliceStable(ids, func(i, j int) bool {
		if c := CompareKeys(keys[ids[i]], keys[ids[j]]); c != 0 {
			return c > 0
		}
		return ids[i] < ids[j]
	})

	out := make([]models.TournamentStanding, 0, len(ids))
	for i, id := range ids {
		s := scores[id]
		wins, draws, losses, byes := s.Record(scoring)
		var won int
		for _, r := range s.Results {
			won += r.GamesWon
		}
		out = append(out, models.TournamentStanding{
			CompetitorID: id,
			Rank:         i + 1,
			MatchPoints:  s.MatchPoints,
			GamePoints:   s.GamePoints,
			Wins:         wins,
			Draws:        draws,
			Losses:       losses,
			Byes:         byes,
			GamesWon:     won,
			SeedRating:   seedRatings[id],
			Tiebreaks:    tiebreaks[id],
		})
	}
	return out
}

// SortKey is the tail of a comparison key: configured tiebreak values in
// order followed by the seed rating. Missing tiebreaks count as zero.
func SortKey(tiebreaks models.TiebreakScores, order []string, seedRating int) []float64 {
	key := make([]float64, 0, len(order)+1)
	for _, name := range order {
		key = append(key, tiebreaks[name])
	}
	return append(key, float64(seedRating))
}

// PairingSortKey is the key competitors are ordered by before pairing: the
// primary score, then the tiebreaks, then seed rating.
func PairingSortKey(primary float64, tiebreaks models.TiebreakScores, order []string, seedRating int) []float64 {
	return append([]float64{primary}, SortKey(tiebreaks, order, seedRating)...)
}

// CompareKeys compares two keys lexicographically: 1 if a ranks higher.
func CompareKeys(a, b []float64) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] > b[i]:
			return 1
		case a[i] < b[i]:
			return -1
		}
	}
	switch {
	case len(a) > len(b):
		return 1
	case len(a) < len(b):
		return -1
	}
	return 0
}
