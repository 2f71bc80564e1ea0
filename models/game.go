package models

import "fmt"

// GameResult is the outcome of a single game. ResultNone marks a game that
// has been paired but not played yet.
type GameResult string

const (
	ResultNone          GameResult = ""
	ResultP1Win         GameResult = "1-0"
	ResultP2Win         GameResult = "0-1"
	ResultDraw          GameResult = "1/2-1/2"
	ResultP1ForfeitWin  GameResult = "1X-0F"
	ResultP2ForfeitWin  GameResult = "0F-1X"
	ResultDoubleForfeit GameResult = "0F-0F"
)

// ParseGameResult accepts the canonical result strings. An empty string is
// a valid undetermined result.
func ParseGameResult(s string) (GameResult, error) {
	switch r := GameResult(s); r {
	case ResultNone, ResultP1Win, ResultP2Win, ResultDraw,
		ResultP1ForfeitWin, ResultP2ForfeitWin, ResultDoubleForfeit:
		return r, nil
	}
	return ResultNone, fmt.Errorf("unknown game result %q", s)
}

func (r GameResult) IsTerminal() bool {
	return r != ResultNone
}

func (r GameResult) IsForfeit() bool {
	return r == ResultP1ForfeitWin || r == ResultP2ForfeitWin || r == ResultDoubleForfeit
}

// Reversed returns the same result seen with the two sides swapped.
func (r GameResult) Reversed() GameResult {
	switch r {
	case ResultP1Win:
		return ResultP2Win
	case ResultP2Win:
		return ResultP1Win
	case ResultP1ForfeitWin:
		return ResultP2ForfeitWin
	case ResultP2ForfeitWin:
		return ResultP1ForfeitWin
	default:
		return r
	}
}

// Points returns (player1, player2) game points under the scoring system.
func (r GameResult) Points(s ScoringSystem) (float64, float64) {
	switch r {
	case ResultP1Win, ResultP1ForfeitWin:
		return s.GameWinPoints, s.GameLossPoints
	case ResultP2Win, ResultP2ForfeitWin:
		return s.GameLossPoints, s.GameWinPoints
	case ResultDraw:
		return s.GameDrawPoints, s.GameDrawPoints
	default:
		return 0, 0
	}
}

// Player is an individual sitting at a board on behalf of a competitor. For
// lone-player tournaments ID and CompetitorID are the same.
type Player struct {
	ID           int `json:"id"`
	CompetitorID int `json:"competitor_id"`
}

// Game is one board of a match. A nil player means the roster slot was not
// filled.
type Game struct {
	Board   int        `json:"board"`
	Player1 *Player    `json:"player1,omitempty"`
	Player2 *Player    `json:"player2,omitempty"`
	Result  GameResult `json:"result"`
}

// SetResult performs the only allowed mutation of a game: undetermined to
// a terminal result.
func (g *Game) SetResult(r GameResult) error {
	if !r.IsTerminal() {
		return fmt.Errorf("board %d: %w", g.Board, ErrResultNotTerminal)
	}
	if g.Result.IsTerminal() {
		return fmt.Errorf("board %d already has result %s: %w", g.Board, g.Result, ErrResultAlreadySet)
	}
	g.Result = r
	return nil
}
