package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-pairing/models"
)

// Advancement is the outcome of closing a knockout round.
type Advancement struct {
	Next       *models.Round
	Records    []models.KnockoutAdvancement
	Completed  bool
	ChampionID int
}

// pairGroup is every leg played between one unordered competitor pair.
type pairGroup struct {
	key     [2]int
	matches []models.Match
}

func (g pairGroup) firstOrder() int {
	order := g.matches[0].PairingOrder
	for _, m := range g.matches[1:] {
		if m.PairingOrder < order {
			order = m.PairingOrder
		}
	}
	return order
}

// groupRound splits a round into pair groups ordered by their first pairing
// order, and byes ordered by competitor id.
func groupRound(r models.Round) ([]pairGroup, []models.Match) {
	index := make(map[[2]int]int)
	var groups []pairGroup
	var byes []models.Match
	for _, m := range r.Matches {
		if m.IsBye() {
			byes = append(byes, m)
			continue
		}
		k := m.PairKey()
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, pairGroup{key: k})
		}
		groups[i].matches = append(groups[i].matches, m)
	}
	for i := range groups {
		sort.SliceStable(groups[i].matches, func(a, b int) bool {
			return groups[i].matches[a].PairingOrder < groups[i].matches[b].PairingOrder
		})
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].firstOrder() < groups[j].firstOrder() })
	sort.SliceStable(byes, func(i, j int) bool { return byes[i].Competitor1ID < byes[j].Competitor1ID })
	return groups, byes
}

// Advance closes round roundNumber: it decides every pair, records who
// advances and pairs the winners, in bracket order, into the next round.
// After the final the bracket is reported complete and no round is paired.
// A round whose successor is already paired cannot be advanced again.
func Advance(b models.KnockoutBracket, t models.Tournament, roundNumber int, scoring models.ScoringSystem) (*Advancement, error) {
	if b.IsCompleted {
		return nil, fmt.Errorf("bracket is already completed: %w", models.ErrPairingGeneration)
	}
	r, ok := t.Round(roundNumber)
	if !ok || len(r.Matches) == 0 {
		return nil, fmt.Errorf("round %d has no pairings: %w", roundNumber, models.ErrPairingGeneration)
	}
	if next, ok := t.Round(roundNumber + 1); ok && len(next.Matches) > 0 {
		return nil, fmt.Errorf("round %d is already paired: %w", roundNumber+1, models.ErrPairingsExist)
	}
	matchesPerStage := b.MatchesPerStage
	if matchesPerStage < 1 {
		matchesPerStage = 1
	}

	groups, byes := groupRound(r)
	for _, g := range groups {
		if len(g.matches) < matchesPerStage {
			return nil, fmt.Errorf("round %d results incomplete: %d of %d matches paired between %d and %d: %w",
				roundNumber, len(g.matches), matchesPerStage, g.key[0], g.key[1], models.ErrPairingGeneration)
		}
		for _, m := range g.matches {
			if !m.IsComplete() {
				return nil, fmt.Errorf("round %d results incomplete: %w", roundNumber, models.ErrPairingGeneration)
			}
		}
	}

	winners := make([]int, 0, len(groups)+len(byes))
	for _, g := range groups {
		var (
			winner int
			err    error
		)
		if matchesPerStage > 1 {
			winner, err = aggregateWinner(g, scoring)
		} else {
			winner, err = singleWinner(g, scoring)
		}
		if err != nil {
			return nil, err
		}
		winners = append(winners, winner)
	}
	for _, m := range byes {
		winners = append(winners, m.Competitor1ID)
	}

	if len(winners) == 1 {
		return &Advancement{Completed: true, ChampionID: winners[0]}, nil
	}

	fromStage := r.KnockoutStage
	if fromStage == "" {
		fromStage = StageName(b.BracketSize >> (roundNumber - 1))
	}
	toStage := StageName(b.BracketSize >> roundNumber)

	res := &Advancement{Records: make([]models.KnockoutAdvancement, 0, len(winners))}
	for i, id := range winners {
		rec := models.KnockoutAdvancement{
			BracketID:    b.ID,
			CompetitorID: id,
			FromStage:    fromStage,
			ToStage:      toStage,
			SourceRound:  roundNumber,
		}
		if i < len(groups) {
			rec.SourcePairingOrder = groups[i].firstOrder()
		} else {
			rec.SourcePairingOrder = byes[i-len(groups)].PairingOrder
		}
		res.Records = append(res.Records, rec)
	}

	next, err := pairRound(b, roundNumber+1, winners, t.Competitors)
	if err != nil {
		return nil, err
	}
	res.Next = &next
	return res, nil
}

func singleWinner(g pairGroup, scoring models.ScoringSystem) (int, error) {
	m := g.matches[0]
	if winner, ok := m.Winner(scoring); ok {
		return winner, nil
	}
	return 0, fmt.Errorf("tied pairing between %d and %d requires manual tiebreak resolution: %w",
		m.Competitor1ID, *m.Competitor2ID, models.ErrPairingGeneration)
}

// aggregateWinner sums game points over all legs. A manual tiebreak on any
// leg decides the pair outright, its sign read from that leg's first side.
func aggregateWinner(g pairGroup, scoring models.ScoringSystem) (int, error) {
	for _, m := range g.matches {
		if m.ManualTiebreakValue == nil {
			continue
		}
		switch {
		case *m.ManualTiebreakValue > 0:
			return m.Competitor1ID, nil
		case *m.ManualTiebreakValue < 0:
			return *m.Competitor2ID, nil
		}
	}

	first, second := g.key[0], g.key[1]
	var pFirst, pSecond float64
	for _, m := range g.matches {
		c1, c2 := m.GamePoints(scoring)
		if m.Competitor1ID == first {
			pFirst += c1
			pSecond += c2
		} else {
			pFirst += c2
			pSecond += c1
		}
	}
	switch {
	case pFirst > pSecond:
		return first, nil
	case pSecond > pFirst:
		return second, nil
	}
	return 0, fmt.Errorf("tied aggregate score between %d and %d (%g-%g) requires manual tiebreak resolution: %w",
		first, second, pFirst, pSecond, models.ErrPairingGeneration)
}
