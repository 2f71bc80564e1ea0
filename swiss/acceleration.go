package swiss

import (
	"math"
	"sort"

	"github.com/Dosada05/tournament-pairing/models"
)

type Acceleration string

const (
	AccelerationNone Acceleration = ""
	AccelerationBaku Acceleration = "baku"
)

// bakuScores are the virtual points group 1 carries into the first rounds.
var bakuScores = []float64{1, 1, 1, 0.5, 0.5}

// AssignBakuGroups returns the acceleration group of every competitor.
// Round 1 splits the included competitors by seed rating, the top
// 2*ceil(n/4) going to group 1. Later rounds keep existing groups and put
// newcomers in group 1 only when they reach the lowest group 1 rating.
func AssignBakuGroups(round int, competitors []models.Competitor, included map[int]bool, current map[int]int) map[int]int {
	groups := make(map[int]int, len(competitors))

	if round == 1 {
		in := make([]models.Competitor, 0, len(competitors))
		for _, c := range competitors {
			if included[c.ID] {
				in = append(in, c)
			} else {
				groups[c.ID] = 0
			}
		}
		sort.SliceStable(in, func(i, j int) bool {
			return in[i].SeedRating > in[j].SeedRating
		})
		size := int(2 * math.Ceil(float64(len(in))/4))
		for i, c := range in {
			if i < size {
				groups[c.ID] = 1
			} else {
				groups[c.ID] = 2
			}
		}
		return groups
	}

	minRating, haveGroup1 := 0, false
	for _, c := range competitors {
		groups[c.ID] = current[c.ID]
		if current[c.ID] == 1 && (!haveGroup1 || c.SeedRating < minRating) {
			minRating, haveGroup1 = c.SeedRating, true
		}
	}
	for _, c := range competitors {
		if groups[c.ID] != 0 {
			continue
		}
		if haveGroup1 && c.SeedRating >= minRating {
			groups[c.ID] = 1
		} else {
			groups[c.ID] = 2
		}
	}
	return groups
}

func accelerationScores(mode Acceleration, group int) []float64 {
	if mode == AccelerationBaku && group == 1 {
		return append([]float64(nil), bakuScores...)
	}
	return nil
}
