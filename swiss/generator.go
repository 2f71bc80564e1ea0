// Package swiss generates Swiss-system rounds by delegating the pairing
// decision to an external oracle.
package swiss

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/Dosada05/tournament-pairing/oracle"
	"github.com/Dosada05/tournament-pairing/standings"
)

// Request describes the round to pair. Tournament is the caller's snapshot:
// its rounds before Round supply the history, and Round itself may already
// hold pairings or requested byes.
type Request struct {
	Tournament   models.Tournament
	Round        int
	TotalRounds  int
	Overwrite    bool
	Tiebreaks    []string
	Acceleration Acceleration

	// Unavailable competitors get a half-point bye instead of a pairing.
	Unavailable        map[int]bool
	AccelerationGroups map[int]int
	LateJoinPoints     map[int]float64
}

// Result is the generated round plus what the caller needs to persist and
// archive.
type Result struct {
	Round              models.Round
	Discarded          []models.Match
	AccelerationGroups map[int]int
	Input              string
	Pairs              []oracle.Pair
	Attempts           []oracle.Mode
}

type Generator struct {
	oracle oracle.Oracle
}

func NewGenerator(o oracle.Oracle) *Generator {
	return &Generator{oracle: o}
}

// Generate produces the pairings and byes of req.Round.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	t := req.Tournament
	existing, _ := t.Round(req.Round)

	kept, discarded, err := clearRound(existing, req.Overwrite)
	if err != nil {
		return nil, err
	}

	histories := make(map[int][]oracle.Entry, len(t.Competitors))
	for _, c := range t.Competitors {
		histories[c.ID] = History(t, c.ID, req.Round, req.LateJoinPoints[c.ID])
	}
	ordered, scores := g.order(req, histories)

	hasBye := make(map[int]bool, len(kept))
	for _, m := range kept {
		hasBye[m.Competitor1ID] = true
	}
	matches := make([]models.Match, 0, len(ordered))
	var byes []models.Match
	byes = append(byes, kept...)
	included := make(map[int]bool, len(ordered))
	for _, c := range ordered {
		switch {
		case !c.IsActive || hasBye[c.ID]:
		case req.Unavailable[c.ID]:
			byes = append(byes, models.NewBye(c.ID, models.ByeHalfPoint))
		default:
			included[c.ID] = true
		}
	}

	groups := req.AccelerationGroups
	if req.Acceleration == AccelerationBaku {
		groups = AssignBakuGroups(req.Round, ordered, included, req.AccelerationGroups)
	}

	players := make([]oracle.Player, 0, len(ordered))
	for _, c := range ordered {
		players = append(players, oracle.Player{
			ID:                 c.ID,
			Score:              scores[c.ID],
			History:            histories[c.ID],
			Include:            included[c.ID],
			AccelerationScores: accelerationScores(req.Acceleration, groups[c.ID]),
		})
	}

	res := &Result{Discarded: discarded, AccelerationGroups: groups}
	totalRounds := req.TotalRounds
	if totalRounds < req.Round {
		totalRounds = req.Round
	}
	res.Input = oracle.EncodeTRF(totalRounds, players)

	if len(included) > 0 {
		pairs, attempts, err := g.run(ctx, res.Input, len(included))
		res.Attempts = attempts
		if err != nil {
			return nil, err
		}
		res.Pairs = pairs

		pairings, pairingByes, err := mapPairs(pairs, ordered, included, t.GamesPerMatch)
		if err != nil {
			return nil, err
		}
		matches = append(matches, pairings...)
		byes = append(byes, pairingByes...)
	}

	res.Round = models.Round{
		Number:  req.Round,
		Matches: append(matches, byes...),
	}
	return res, nil
}

// run applies the invocation policy: one bounded heuristic call, then a
// single deterministic retry when the heuristic gave up with zero pairs.
func (g *Generator) run(ctx context.Context, input string, competitors int) ([]oracle.Pair, []oracle.Mode, error) {
	attempts := []oracle.Mode{oracle.Heuristic}
	pairs, err := g.oracle.Pair(ctx, input, oracle.Heuristic)
	if err != nil {
		// a heuristic run cut by its own deadline falls back like an empty answer
		if !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, attempts, fmt.Errorf("pair round: %w", wrapGeneration(err))
		}
		pairs = nil
	}
	if len(pairs) == 0 && competitors > 1 {
		attempts = append(attempts, oracle.Deterministic)
		pairs, err = g.oracle.Pair(ctx, input, oracle.Deterministic)
		if err != nil {
			return nil, attempts, fmt.Errorf("pair round (retry): %w", wrapGeneration(err))
		}
	}
	return pairs, attempts, nil
}

func wrapGeneration(err error) error {
	if errors.Is(err, models.ErrPairingGeneration) {
		return err
	}
	return fmt.Errorf("%v: %w", err, models.ErrPairingGeneration)
}

// order sorts competitors by the pairing sort key, highest first, and
// returns each competitor's primary score.
func (g *Generator) order(req Request, histories map[int][]oracle.Entry) ([]models.Competitor, map[int]float64) {
	t := req.Tournament
	prior := t
	prior.Rounds = t.RoundsBefore(req.Round)
	scores := standings.CalculateResults(prior)
	tb := standings.NewCalculator(t.Scoring.OrStandard()).Calculate(scores, req.Tiebreaks)

	team := isTeam(t)
	primary := make(map[int]float64, len(t.Competitors))
	keys := make(map[int][]float64, len(t.Competitors))
	for _, c := range t.Competitors {
		s := scores[c.ID]
		// teams pair on match points, lone players on the points of their
		// encoded history, late-join credit included
		if team {
			primary[c.ID] = float64(s.MatchPoints)
		} else {
			primary[c.ID] = historyPoints(histories[c.ID])
		}
		keys[c.ID] = standings.PairingSortKey(primary[c.ID], tb[c.ID], req.Tiebreaks, c.SeedRating)
	}

	ordered := append([]models.Competitor(nil), t.Competitors...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if c := standings.CompareKeys(keys[ordered[i].ID], keys[ordered[j].ID]); c != 0 {
			return c > 0
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered, primary
}

func isTeam(t models.Tournament) bool {
	for _, c := range t.Competitors {
		if c.Kind == models.CompetitorTeam {
			return true
		}
	}
	return false
}

func historyPoints(entries []oracle.Entry) float64 {
	var total float64
	for _, e := range entries {
		if e.Score != nil {
			total += *e.Score
		}
	}
	return total
}
