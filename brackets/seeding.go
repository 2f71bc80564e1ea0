// Package brackets runs knockout brackets: seeding, stage advancement and
// multi-match stages.
package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-pairing/models"
)

// Seeder pairs an ordered list of competitor ids for one bracket round.
type Seeder interface {
	Pairs(ids []int) ([][2]int, error)
	Style() models.SeedingStyle
}

type traditionalSeeder struct{}

func (traditionalSeeder) Style() models.SeedingStyle { return models.SeedingTraditional }

// Pairs matches seed i with seed n+1-i.
func (traditionalSeeder) Pairs(ids []int) ([][2]int, error) {
	if !ValidateBracketSize(len(ids)) {
		return nil, notPowerOfTwo(len(ids))
	}
	n := len(ids)
	pairs := make([][2]int, 0, n/2)
	for i := 0; i < n/2; i++ {
		pairs = append(pairs, [2]int{ids[i], ids[n-1-i]})
	}
	return pairs, nil
}

type adjacentSeeder struct{}

func (adjacentSeeder) Style() models.SeedingStyle { return models.SeedingAdjacent }

func (adjacentSeeder) Pairs(ids []int) ([][2]int, error) {
	if !ValidateBracketSize(len(ids)) {
		return nil, notPowerOfTwo(len(ids))
	}
	pairs := make([][2]int, 0, len(ids)/2)
	for i := 0; i < len(ids); i += 2 {
		pairs = append(pairs, [2]int{ids[i], ids[i+1]})
	}
	return pairs, nil
}

func NewSeeder(style models.SeedingStyle) (Seeder, error) {
	switch style {
	case models.SeedingTraditional, "":
		return traditionalSeeder{}, nil
	case models.SeedingAdjacent:
		return adjacentSeeder{}, nil
	}
	return nil, fmt.Errorf("unknown seeding style %q: %w", style, models.ErrPairingGeneration)
}

// ValidateBracketSize reports whether n is a power of two greater than one.
func ValidateBracketSize(n int) bool {
	return n > 1 && n&(n-1) == 0
}

// BracketSize is the smallest power of two holding n competitors, at least 2.
func BracketSize(n int) int {
	size := 2
	for size < n {
		size *= 2
	}
	return size
}

var stageNames = map[int]string{
	2:  "finals",
	4:  "semifinals",
	8:  "quarterfinals",
	16: "round-of-16",
	32: "round-of-32",
	64: "round-of-64",
}

// StageName names a stage by the number of competitors still in it.
func StageName(remaining int) string {
	if name, ok := stageNames[remaining]; ok {
		return name
	}
	return fmt.Sprintf("round-of-%d", remaining)
}

func notPowerOfTwo(n int) error {
	return fmt.Errorf("competitor count %d is not a power of 2, knockout requires power of 2: %w", n, models.ErrPairingGeneration)
}

// Bracket is a bracket with its seedings, strongest seed first.
type Bracket struct {
	models.KnockoutBracket
	Seedings []models.KnockoutSeeding
}

// SeedOrder returns competitor ids by seed number.
func (b *Bracket) SeedOrder() []int {
	seeds := append([]models.KnockoutSeeding(nil), b.Seedings...)
	sort.Slice(seeds, func(i, j int) bool { return seeds[i].SeedNumber < seeds[j].SeedNumber })
	ids := make([]int, 0, len(seeds))
	for _, s := range seeds {
		ids = append(ids, s.CompetitorID)
	}
	return ids
}

// CreateBracket seeds the active competitors by seed rating (ties by id).
// The active count must already be a power of two.
func CreateBracket(competitors []models.Competitor, style models.SeedingStyle, gamesPerMatch, matchesPerStage int) (*Bracket, error) {
	if _, err := NewSeeder(style); err != nil {
		return nil, err
	}
	active := models.ActiveCompetitors(competitors)
	if !ValidateBracketSize(len(active)) {
		return nil, notPowerOfTwo(len(active))
	}
	if style == "" {
		style = models.SeedingTraditional
	}
	if gamesPerMatch < 1 {
		gamesPerMatch = 1
	}
	if matchesPerStage < 1 {
		matchesPerStage = 1
	}

	sort.SliceStable(active, func(i, j int) bool {
		if active[i].SeedRating != active[j].SeedRating {
			return active[i].SeedRating > active[j].SeedRating
		}
		return active[i].ID < active[j].ID
	})

	b := &Bracket{
		KnockoutBracket: models.KnockoutBracket{
			BracketSize:     BracketSize(len(active)),
			SeedingStyle:    style,
			GamesPerMatch:   gamesPerMatch,
			MatchesPerStage: matchesPerStage,
		},
		Seedings: make([]models.KnockoutSeeding, 0, len(active)),
	}
	for i, c := range active {
		b.Seedings = append(b.Seedings, models.KnockoutSeeding{CompetitorID: c.ID, SeedNumber: i + 1})
	}
	return b, nil
}

// FirstRound pairs the seeds by the bracket's seeding style.
func FirstRound(b *Bracket, competitors []models.Competitor) (models.Round, error) {
	return pairRound(b.KnockoutBracket, 1, b.SeedOrder(), competitors)
}

// pairRound builds a round from ids in bracket order.
func pairRound(b models.KnockoutBracket, number int, ids []int, competitors []models.Competitor) (models.Round, error) {
	seeder, err := NewSeeder(b.SeedingStyle)
	if err != nil {
		return models.Round{}, err
	}
	pairs, err := seeder.Pairs(ids)
	if err != nil {
		return models.Round{}, err
	}

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

	r := models.Round{Number: number, KnockoutStage: StageName(len(ids))}
	for i, p := range pairs {
		m := models.NewMatch(p[0], p[1], i+1)
		m.Games = models.MatchGames(lookup(p[0]), lookup(p[1]), b.GamesPerMatch)
		m.AssignForfeits()
		r.Matches = append(r.Matches, m)
	}
	return r, nil
}
