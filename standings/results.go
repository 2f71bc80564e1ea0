// Package standings turns recorded game results into scores, tiebreaks and
// a total ranking.
package standings

import "github.com/Dosada05/tournament-pairing/models"

// CalculateResults walks the rounds in order and derives one MatchResult
// per competitor per round played. Matches where no game has a result yet
// are skipped. The function is pure: the snapshot is never modified.
func CalculateResults(t models.Tournament) map[int]models.CompetitorScore {
	scoring := t.Scoring.OrStandard()
	scores := make(map[int]models.CompetitorScore, len(t.Competitors))
	for _, c := range t.Competitors {
		scores[c.ID] = models.CompetitorScore{CompetitorID: c.ID, Results: []models.MatchResult{}}
	}

	add := func(id int, r models.MatchResult) {
		s, ok := scores[id]
		if !ok {
			s = models.CompetitorScore{CompetitorID: id}
		}
		s.Results = append(s.Results, r)
		s.MatchPoints += r.MatchPoints
		s.GamePoints += r.GamePoints
		scores[id] = s
	}

	for _, round := range t.Rounds {
		for _, m := range round.Matches {
			if m.IsBye() {
				mp, gp := ByeScore(scoring, m.ByeType, byeGames(t, m))
				add(m.Competitor1ID, models.MatchResult{
					Round:       round.Number,
					GamePoints:  gp,
					MatchPoints: mp,
					IsBye:       true,
				})
				continue
			}
			if !m.HasResults() {
				continue
			}

			c1, c2 := m.Competitor1ID, *m.Competitor2ID
			gp1, gp2 := m.GamePoints(scoring)
			mp1, mp2 := scoring.MatchPoints(gp1, gp2)
			won1, won2 := m.GamesWon()
			forfeit := allForfeits(m)

			add(c1, models.MatchResult{
				Round:              round.Number,
				OpponentID:         intPtr(c2),
				GamePoints:         gp1,
				OpponentGamePoints: gp2,
				MatchPoints:        mp1,
				GamesWon:           won1,
				IsForfeit:          forfeit,
			})
			add(c2, models.MatchResult{
				Round:              round.Number,
				OpponentID:         intPtr(c1),
				GamePoints:         gp2,
				OpponentGamePoints: gp1,
				MatchPoints:        mp2,
				GamesWon:           won2,
				IsForfeit:          forfeit,
			})
		}
	}
	return scores
}

// ByeScore is the fixed award for a bye spanning the given number of games.
// Pairing byes follow ScoringSystem.ByeGamePoints; explicit byes pay their
// nominal value per game.
func ByeScore(s models.ScoringSystem, bye models.ByeType, games int) (int, float64) {
	if games < 1 {
		games = 1
	}
	switch bye {
	case models.ByeZeroPoint:
		return 0, 0
	case models.ByeHalfPoint:
		return s.ByeMatchPoints, s.GameDrawPoints * float64(games)
	case models.ByeFullPoint:
		return s.ByeMatchPoints, s.GameWinPoints * float64(games)
	default:
		return s.ByeMatchPoints, s.ByeGamePoints(games)
	}
}

func byeGames(t models.Tournament, m models.Match) int {
	n := len(m.Games)
	if t.GamesPerMatch > n {
		n = t.GamesPerMatch
	}
	return n
}

func allForfeits(m models.Match) bool {
	if len(m.Games) == 0 {
		return false
	}
	for _, g := range m.Games {
		if !g.Result.IsForfeit() {
			return false
		}
	}
	return true
}

func intPtr(v int) *int {
	return &v
}
