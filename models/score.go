package models

// MatchResult is one competitor's view of one round.
type MatchResult struct {
	Round              int     `json:"round"`
	OpponentID         *int    `json:"opponent_id,omitempty"`
	GamePoints         float64 `json:"game_points"`
	OpponentGamePoints float64 `json:"opponent_game_points"`
	MatchPoints        int     `json:"match_points"`
	GamesWon           int     `json:"games_won"`
	IsBye              bool    `json:"is_bye"`
	IsForfeit          bool    `json:"is_forfeit"`
}

// CompetitorScore accumulates a competitor's results over the tournament.
type CompetitorScore struct {
	CompetitorID int           `json:"competitor_id"`
	MatchPoints  int           `json:"match_points"`
	GamePoints   float64       `json:"game_points"`
	Results      []MatchResult `json:"results"`

	// AccelerationGroup is fixed in round 1 of an accelerated Swiss event:
	// 0 means unassigned.
	AccelerationGroup int `json:"acceleration_group"`
	// LateJoinPoints back-fills rounds missed before joining.
	LateJoinPoints float64 `json:"late_join_points"`
}

// Wins, draws and losses over played (non-bye) matches.
func (s CompetitorScore) Record(scoring ScoringSystem) (wins, draws, losses, byes int) {
	for _, r := range s.Results {
		switch {
		case r.IsBye:
			byes++
		case r.MatchPoints == scoring.MatchWinPoints:
			wins++
		case r.MatchPoints == scoring.MatchDrawPoints:
			draws++
		default:
			losses++
		}
	}
	return wins, draws, losses, byes
}

// TiebreakScores maps tiebreak name to value for one competitor.
type TiebreakScores map[string]float64
