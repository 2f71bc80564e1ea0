package models

// ScoringSystem defines how game results become game points and how game
// point totals become match points.
type ScoringSystem struct {
	Name string `json:"name"`

	GameWinPoints  float64 `json:"game_win_points"`
	GameDrawPoints float64 `json:"game_draw_points"`
	GameLossPoints float64 `json:"game_loss_points"`

	MatchWinPoints  int `json:"match_win_points"`
	MatchDrawPoints int `json:"match_draw_points"`
	MatchLossPoints int `json:"match_loss_points"`

	ByeMatchPoints      int     `json:"bye_match_points"`
	ByeGamePointsFactor float64 `json:"bye_game_points_factor"` // fraction of the maximum game points
}

var (
	StandardScoring = ScoringSystem{
		Name:                "standard",
		GameWinPoints:       1,
		GameDrawPoints:      0.5,
		GameLossPoints:      0,
		MatchWinPoints:      2,
		MatchDrawPoints:     1,
		MatchLossPoints:     0,
		ByeMatchPoints:      1,
		ByeGamePointsFactor: 0.5,
	}

	ThreeOneZeroScoring = ScoringSystem{
		Name:                "three-one-zero",
		GameWinPoints:       1,
		GameDrawPoints:      0.5,
		GameLossPoints:      0,
		MatchWinPoints:      3,
		MatchDrawPoints:     1,
		MatchLossPoints:     0,
		ByeMatchPoints:      1,
		ByeGamePointsFactor: 0.5,
	}

	FootballScoring = ScoringSystem{
		Name:                "football",
		GameWinPoints:       3,
		GameDrawPoints:      1,
		GameLossPoints:      0,
		MatchWinPoints:      3,
		MatchDrawPoints:     1,
		MatchLossPoints:     0,
		ByeMatchPoints:      1,
		ByeGamePointsFactor: 0.5,
	}
)

// ScoringByName returns a preset scoring system. Unknown or empty names
// fall back to StandardScoring.
func ScoringByName(name string) ScoringSystem {
	switch name {
	case ThreeOneZeroScoring.Name:
		return ThreeOneZeroScoring
	case FootballScoring.Name:
		return FootballScoring
	default:
		return StandardScoring
	}
}

// MatchPoints converts the two sides' game point totals into match points.
func (s ScoringSystem) MatchPoints(gamesFor, gamesAgainst float64) (int, int) {
	switch {
	case gamesFor > gamesAgainst:
		return s.MatchWinPoints, s.MatchLossPoints
	case gamesFor < gamesAgainst:
		return s.MatchLossPoints, s.MatchWinPoints
	default:
		return s.MatchDrawPoints, s.MatchDrawPoints
	}
}

// OrStandard returns s, or StandardScoring when s is the zero value.
func (s ScoringSystem) OrStandard() ScoringSystem {
	if s.Name == "" && s.MatchWinPoints == 0 {
		return StandardScoring
	}
	return s
}

// ByeGamePoints is the game point award for a pairing bye spanning the
// given number of games. A single-game bye is worth a win; longer byes pay
// the bye factor of the maximum.
func (s ScoringSystem) ByeGamePoints(games int) float64 {
	if games <= 1 {
		return s.GameWinPoints
	}
	return s.GameWinPoints * float64(games) * s.ByeGamePointsFactor
}
