package standings

import (
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-pairing/models"
)

const (
	SonnebornBerger = "sonneborn_berger"
	Buchholz        = "buchholz"
	HeadToHead      = "head_to_head"
	GamesWon        = "games_won"
	GamePoints      = "game_points"
	EGGSB           = "eggsb"
)

// TiebreakInput is what a tiebreak sees besides the competitor's own score.
type TiebreakInput struct {
	Scores  map[int]models.CompetitorScore
	Tied    map[int]bool // competitors sharing (match points, game points), self included
	Scoring models.ScoringSystem
}

type TiebreakFunc func(score models.CompetitorScore, in TiebreakInput) float64

// Registry maps tiebreak names to their functions.
type Registry map[string]TiebreakFunc

// DefaultRegistry returns a fresh registry with every built-in tiebreak.
func DefaultRegistry() Registry {
	return Registry{
		SonnebornBerger: sonnebornBerger,
		Buchholz:        buchholz,
		HeadToHead:      headToHead,
		GamesWon:        gamesWon,
		GamePoints:      gamePoints,
		EGGSB:           eggsb,
	}
}

// Validate rejects tiebreak names the registry does not know.
func (r Registry) Validate(order []string) error {
	for _, name := range order {
		if _, ok := r[name]; !ok {
			return fmt.Errorf("unknown tiebreak %q", name)
		}
	}
	return nil
}

// Calculator computes tiebreaks under one scoring system.
type Calculator struct {
	Scoring  models.ScoringSystem
	Registry Registry
}

func NewCalculator(scoring models.ScoringSystem) *Calculator {
	return &Calculator{Scoring: scoring, Registry: DefaultRegistry()}
}

// CalculateTiebreaks evaluates the named tiebreaks for every competitor
// using standard scoring.
func CalculateTiebreaks(scores map[int]models.CompetitorScore, order []string) map[int]models.TiebreakScores {
	return NewCalculator(models.StandardScoring).Calculate(scores, order)
}

// Calculate evaluates each name in order for every competitor. Unknown
// names are skipped; use Registry.Validate to reject them up front.
func (c *Calculator) Calculate(scores map[int]models.CompetitorScore, order []string) map[int]models.TiebreakScores {
	groups := tiedGroups(scores)
	out := make(map[int]models.TiebreakScores, len(scores))
	for id, score := range scores {
		in := TiebreakInput{
			Scores:  scores,
			Tied:    groups[tieKey{score.MatchPoints, score.GamePoints}],
			Scoring: c.Scoring,
		}
		values := make(models.TiebreakScores, len(order))
		for _, name := range order {
			fn, ok := c.Registry[name]
			if !ok {
				continue
			}
			values[name] = fn(score, in)
		}
		out[id] = values
	}
	return out
}

type tieKey struct {
	mp int
	gp float64
}

// tiedGroups groups competitors by identical (match points, game points).
func tiedGroups(scores map[int]models.CompetitorScore) map[tieKey]map[int]bool {
	groups := make(map[tieKey]map[int]bool)
	for id, s := range scores {
		k := tieKey{s.MatchPoints, s.GamePoints}
		if groups[k] == nil {
			groups[k] = make(map[int]bool)
		}
		groups[k][id] = true
	}
	return groups
}

// sonnebornBerger sums the final match points of defeated opponents plus
// half of those of drawn opponents. Byes do not count.
func sonnebornBerger(score models.CompetitorScore, in TiebreakInput) float64 {
	var sb float64
	for _, r := range score.Results {
		opp, ok := opponentScore(r, in.Scores)
		if !ok {
			continue
		}
		switch r.MatchPoints {
		case in.Scoring.MatchWinPoints:
			sb += float64(opp.MatchPoints)
		case in.Scoring.MatchDrawPoints:
			sb += float64(opp.MatchPoints) / 2
		}
	}
	return sb
}

func buchholz(score models.CompetitorScore, in TiebreakInput) float64 {
	var total float64
	for _, r := range score.Results {
		if opp, ok := opponentScore(r, in.Scores); ok {
			total += float64(opp.MatchPoints)
		}
	}
	return total
}

// headToHead sums match points earned against the other members of the
// competitor's (match points, game points) group.
func headToHead(score models.CompetitorScore, in TiebreakInput) float64 {
	var total int
	for _, r := range score.Results {
		if r.IsBye || r.OpponentID == nil {
			continue
		}
		if in.Tied[*r.OpponentID] {
			total += r.MatchPoints
		}
	}
	return float64(total)
}

func gamesWon(score models.CompetitorScore, _ TiebreakInput) float64 {
	var total int
	for _, r := range score.Results {
		total += r.GamesWon
	}
	return float64(total)
}

func gamePoints(score models.CompetitorScore, _ TiebreakInput) float64 {
	return score.GamePoints
}

// eggsb is the per-game Sonneborn-Berger: every opponent's final game points
// weighted by the game points scored against that opponent.
func eggsb(score models.CompetitorScore, in TiebreakInput) float64 {
	var total float64
	for _, r := range score.Results {
		if opp, ok := opponentScore(r, in.Scores); ok {
			total += opp.GamePoints * r.GamePoints
		}
	}
	return total
}

func opponentScore(r models.MatchResult, scores map[int]models.CompetitorScore) (models.CompetitorScore, bool) {
	if r.IsBye || r.OpponentID == nil {
		return models.CompetitorScore{}, false
	}
	s, ok := scores[*r.OpponentID]
	return s, ok
}

// sortedIDs returns the map keys in ascending order.
func sortedIDs(scores map[int]models.CompetitorScore) []int {
	ids := make([]int, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
