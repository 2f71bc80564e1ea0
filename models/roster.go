package models

// Substitution puts an alternate on a board for a single round. Without a
// ReplacedPlayerID the regular player of that board sits out.
type Substitution struct {
	Board            int  `json:"board"`
	PlayerID         int  `json:"player_id"`
	ReplacedPlayerID *int `json:"replaced_player_id,omitempty"`
}

// Roster is a team's board order plus the substitutions for the round being
// paired.
type Roster struct {
	CompetitorID  int                  `json:"competitor_id" db:"competitor_id"`
	Boards        map[int]int          `json:"boards"` // board number -> player id
	Substitutions map[int]Substitution `json:"substitutions,omitempty"`
}

// Lineup resolves who plays each board 1..boards. Alternates keep their
// assigned boards; remaining regular players fill the other boards in board
// order. Empty slots are nil.
func (r Roster) Lineup(boards int) []*Player {
	replaced := make(map[int]bool)
	for board, sub := range r.Substitutions {
		if sub.ReplacedPlayerID != nil {
			replaced[*sub.ReplacedPlayerID] = true
		} else if pid, ok := r.Boards[board]; ok {
			replaced[pid] = true
		}
	}

	queue := make([]int, 0, boards)
	for b := 1; b <= boards; b++ {
		if pid, ok := r.Boards[b]; ok && !replaced[pid] {
			queue = append(queue, pid)
		}
	}

	lineup := make([]*Player, boards)
	for b := 1; b <= boards; b++ {
		if sub, ok := r.Substitutions[b]; ok {
			lineup[b-1] = &Player{ID: sub.PlayerID, CompetitorID: r.CompetitorID}
			continue
		}
		if len(queue) == 0 {
			continue
		}
		lineup[b-1] = &Player{ID: queue[0], CompetitorID: r.CompetitorID}
		queue = queue[1:]
	}
	return lineup
}

// BoardGames builds the undetermined games of a team match. Colors alternate
// by board: on even boards the second team's player takes player1.
func BoardGames(first, second []*Player) []Game {
	n := len(first)
	if len(second) > n {
		n = len(second)
	}
	games := make([]Game, 0, n)
	for b := 1; b <= n; b++ {
		var p1, p2 *Player
		if b <= len(first) {
			p1 = first[b-1]
		}
		if b <= len(second) {
			p2 = second[b-1]
		}
		if b%2 == 0 {
			p1, p2 = p2, p1
		}
		games = append(games, Game{Board: b, Player1: p1, Player2: p2})
	}
	return games
}

// AssignForfeits records forfeit results on undetermined games with a
// missing player and returns how many were assigned.
func (m *Match) AssignForfeits() int {
	assigned := 0
	for i := range m.Games {
		g := &m.Games[i]
		if g.Result.IsTerminal() {
			continue
		}
		switch {
		case g.Player1 == nil && g.Player2 == nil:
			g.Result = ResultDoubleForfeit
		case g.Player1 == nil:
			g.Result = ResultP2ForfeitWin
		case g.Player2 == nil:
			g.Result = ResultP1ForfeitWin
		default:
			continue
		}
		assigned++
	}
	return assigned
}

// Lineup returns who plays each board for the competitor. A lone player
// sits at every board.
func (c Competitor) Lineup(boards int) []*Player {
	if c.Kind != CompetitorTeam {
		lineup := make([]*Player, boards)
		for i := range lineup {
			lineup[i] = &Player{ID: c.ID, CompetitorID: c.ID}
		}
		return lineup
	}
	if c.Roster == nil {
		return make([]*Player, boards)
	}
	r := *c.Roster
	r.CompetitorID = c.ID
	return r.Lineup(boards)
}

// MatchGames creates the undetermined games of a match. Team matches get
// one game per board; lone players play the given number of games with
// colors alternating.
func MatchGames(white, black Competitor, games int) []Game {
	if games < 1 {
		games = 1
	}
	return BoardGames(white.Lineup(games), black.Lineup(games))
}
