package oracle

import (
	"context"
	"sort"
	"strings"
)

// MemoryOracle is a deterministic in-process stand-in for the external
// program. It pairs top-down by score, avoids rematches where it can and
// gives the bye to the lowest player without one.
type MemoryOracle struct {
	// GiveUpHeuristic makes heuristic calls return zero pairs.
	GiveUpHeuristic bool

	Calls []Mode
}

func NewMemoryOracle() *MemoryOracle {
	return &MemoryOracle{}
}

func (o *MemoryOracle) Pair(ctx context.Context, trf string, mode Mode) ([]Pair, error) {
	o.Calls = append(o.Calls, mode)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if mode == Heuristic && o.GiveUpHeuristic {
		return nil, nil
	}

	in, err := ParseTRF(strings.NewReader(trf))
	if err != nil {
		return nil, err
	}

	players := make([]Record, 0, len(in.Records))
	for _, rec := range in.Records {
		if !rec.Excluded {
			players = append(players, rec)
		}
	}
	sort.SliceStable(players, func(i, j int) bool {
		si := players[i].Score + accelerationBonus(in, players[i])
		sj := players[j].Score + accelerationBonus(in, players[j])
		if si != sj {
			return si > sj
		}
		return players[i].Index < players[j].Index
	})

	var bye *Record
	if len(players)%2 == 1 {
		at := len(players) - 1
		for i := len(players) - 1; i >= 0; i-- {
			if !hadBye(players[i]) {
				at = i
				break
			}
		}
		b := players[at]
		bye = &b
		players = append(players[:at:at], players[at+1:]...)
	}

	paired := make([]bool, len(players))
	pairs := make([]Pair, 0, len(players)/2+1)
	for i := range players {
		if paired[i] {
			continue
		}
		j := -1
		for k := i + 1; k < len(players); k++ {
			if paired[k] {
				continue
			}
			if j < 0 {
				j = k
			}
			if !played(players[i], players[k].Index) {
				j = k
				break
			}
		}
		if j < 0 {
			break
		}
		paired[i], paired[j] = true, true
		white, black := players[i], players[j]
		if colorBalance(white) > colorBalance(black) {
			white, black = black, white
		}
		pairs = append(pairs, Pair{White: white.Index, Black: black.Index})
	}
	if bye != nil {
		pairs = append(pairs, Pair{White: bye.Index})
	}
	return pairs, nil
}

// accelerationBonus is the virtual score for the round being paired.
func accelerationBonus(in *Input, rec Record) float64 {
	scores := in.Acceleration[rec.Index]
	round := len(rec.Rounds)
	if round < len(scores) {
		return scores[round]
	}
	return 0
}

func hadBye(rec Record) bool {
	for _, t := range rec.Rounds {
		if t.IsBye() {
			return true
		}
	}
	return false
}

func played(rec Record, opponent int) bool {
	for _, t := range rec.Rounds {
		if t.Opponent == opponent {
			return true
		}
	}
	return false
}

// colorBalance is whites minus blacks.
func colorBalance(rec Record) int {
	balance := 0
	for _, t := range rec.Rounds {
		switch t.Color {
		case ColorWhite:
			balance++
		case ColorBlack:
			balance--
		}
	}
	return balance
}
