package swiss

import (
	"github.com/Dosada05/tournament-pairing/models"
	"github.com/Dosada05/tournament-pairing/oracle"
)

// History builds the oracle history of one competitor for rounds
// 1..current-1. Rounds with no match and no bye are back-filled from the
// late-join points: full points first, then a single half point.
func History(t models.Tournament, competitorID, current int, lateJoinPoints float64) []oracle.Entry {
	scoring := t.Scoring.OrStandard()
	bonus := lateJoinPoints

	entries := make([]oracle.Entry, 0, current)
	for n := 1; n < current; n++ {
		var (
			m     models.Match
			found bool
		)
		if r, ok := t.Round(n); ok {
			m, found = r.MatchFor(competitorID)
		}

		switch {
		case found && !m.IsBye():
			entries = append(entries, pairingEntry(m, competitorID, scoring))
		case found:
			entries = append(entries, oracle.Entry{Color: oracle.ColorNone, Score: score(m.ByeType.Score()), Forfeit: true})
		case bonus >= 1:
			entries = append(entries, oracle.Entry{Color: oracle.ColorNone, Score: score(1), Forfeit: true})
			bonus--
		case bonus == 0.5:
			entries = append(entries, oracle.Entry{Color: oracle.ColorNone, Score: score(0.5), Forfeit: true})
			bonus = 0
		default:
			entries = append(entries, oracle.Entry{Color: oracle.ColorNone, Forfeit: true})
		}
	}
	return entries
}

func pairingEntry(m models.Match, competitorID int, scoring models.ScoringSystem) oracle.Entry {
	opponent, _ := m.Opponent(competitorID)
	e := oracle.Entry{
		OpponentID: &opponent,
		Color:      oracle.ColorWhite,
		Forfeit:    !gamePlayed(m),
	}
	own, other := m.GamePoints(scoring)
	if competitorID != m.Competitor1ID {
		e.Color = oracle.ColorBlack
		own, other = other, own
	}
	if !m.IsComplete() {
		return e
	}
	switch {
	case own > other:
		e.Score = score(1)
	case own < other:
		e.Score = score(0)
	default:
		e.Score = score(0.5)
	}
	return e
}

// gamePlayed is false when every recorded game was decided by forfeit.
func gamePlayed(m models.Match) bool {
	for _, g := range m.Games {
		if g.Result.IsTerminal() && !g.Result.IsForfeit() {
			return true
		}
	}
	return len(m.Games) == 0
}

func score(v float64) *float64 {
	return &v
}
