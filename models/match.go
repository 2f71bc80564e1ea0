package models

// ByeType distinguishes the kinds of byes a competitor can receive.
type ByeType string

const (
	ByeNone             ByeType = ""
	ByeFullPointPairing ByeType = "full-point-pairing-bye"
	ByeFullPoint        ByeType = "full-point-bye"
	ByeHalfPoint        ByeType = "half-point-bye"
	ByeZeroPoint        ByeType = "zero-point-bye"
)

// Score is the point value of the bye as reported to the pairing oracle.
func (b ByeType) Score() float64 {
	switch b {
	case ByeFullPointPairing, ByeFullPoint:
		return 1
	case ByeHalfPoint:
		return 0.5
	default:
		return 0
	}
}

// Match pairs two competitors for one or more games. A nil Competitor2ID
// makes the match a bye for Competitor1ID.
type Match struct {
	Competitor1ID       int     `json:"competitor1_id"`
	Competitor2ID       *int    `json:"competitor2_id,omitempty"`
	Games               []Game  `json:"games"`
	ManualTiebreakValue *int    `json:"manual_tiebreak_value,omitempty"`
	PairingOrder        int     `json:"pairing_order"`
	ByeType             ByeType `json:"bye_type,omitempty"`
}

func NewMatch(competitor1ID, competitor2ID, pairingOrder int) Match {
	c2 := competitor2ID
	return Match{
		Competitor1ID: competitor1ID,
		Competitor2ID: &c2,
		PairingOrder:  pairingOrder,
	}
}

func NewBye(competitorID int, byeType ByeType) Match {
	if byeType == ByeNone {
		byeType = ByeFullPointPairing
	}
	return Match{Competitor1ID: competitorID, ByeType: byeType}
}

func (m Match) IsBye() bool {
	return m.Competitor2ID == nil
}

func (m Match) Involves(competitorID int) bool {
	return m.Competitor1ID == competitorID || (m.Competitor2ID != nil && *m.Competitor2ID == competitorID)
}

// Opponent returns the other side of the match for competitorID.
func (m Match) Opponent(competitorID int) (int, bool) {
	if m.Competitor2ID == nil {
		return 0, false
	}
	switch competitorID {
	case m.Competitor1ID:
		return *m.Competitor2ID, true
	case *m.Competitor2ID:
		return m.Competitor1ID, true
	}
	return 0, false
}

// PairKey is the unordered competitor pair, smaller id first.
func (m Match) PairKey() [2]int {
	if m.Competitor2ID == nil {
		return [2]int{m.Competitor1ID, 0}
	}
	a, b := m.Competitor1ID, *m.Competitor2ID
	if b < a {
		a, b = b, a
	}
	return [2]int{a, b}
}

// HasResults reports whether any game of the match has a recorded result.
func (m Match) HasResults() bool {
	for _, g := range m.Games {
		if g.Result.IsTerminal() {
			return true
		}
	}
	return false
}

// HasRecordedResults is HasResults without the forfeits on empty roster
// slots, which pairing assigns by itself.
func (m Match) HasRecordedResults() bool {
	for _, g := range m.Games {
		if g.Result.IsTerminal() && g.Player1 != nil && g.Player2 != nil {
			return true
		}
	}
	return false
}

// IsComplete reports whether the match has games and all of them are decided.
// Byes are always complete.
func (m Match) IsComplete() bool {
	if m.IsBye() {
		return true
	}
	if len(m.Games) == 0 {
		return false
	}
	for _, g := range m.Games {
		if !g.Result.IsTerminal() {
			return false
		}
	}
	return true
}

// reversed reports whether the game's player1 sits for Competitor2.
func (m Match) reversed(g Game) bool {
	if m.Competitor2ID == nil {
		return false
	}
	if g.Player1 != nil {
		return g.Player1.CompetitorID == *m.Competitor2ID && g.Player1.CompetitorID != m.Competitor1ID
	}
	if g.Player2 != nil {
		return g.Player2.CompetitorID == m.Competitor1ID
	}
	return false
}

// GamePoints returns (competitor1, competitor2) game point totals.
func (m Match) GamePoints(s ScoringSystem) (float64, float64) {
	var c1, c2 float64
	for _, g := range m.Games {
		p1, p2 := g.Result.Points(s)
		if m.reversed(g) {
			p1, p2 = p2, p1
		}
		c1 += p1
		c2 += p2
	}
	return c1, c2
}

// GamesWon returns (competitor1, competitor2) counts of won games, forfeit
// wins included.
func (m Match) GamesWon() (int, int) {
	var c1, c2 int
	for _, g := range m.Games {
		r := g.Result
		if m.reversed(g) {
			r = r.Reversed()
		}
		switch r {
		case ResultP1Win, ResultP1ForfeitWin:
			c1++
		case ResultP2Win, ResultP2ForfeitWin:
			c2++
		}
	}
	return c1, c2
}

func (m Match) MatchPoints(s ScoringSystem) (int, int) {
	c1, c2 := m.GamePoints(s)
	return s.MatchPoints(c1, c2)
}

// Winner decides the match by game points, falling back to the sign of the
// manual tiebreak value when the points are level. A bye is won by its
// recipient.
func (m Match) Winner(s ScoringSystem) (int, bool) {
	if m.IsBye() {
		return m.Competitor1ID, true
	}
	c1, c2 := m.GamePoints(s)
	switch {
	case c1 > c2:
		return m.Competitor1ID, true
	case c2 > c1:
		return *m.Competitor2ID, true
	}
	if m.ManualTiebreakValue != nil {
		if *m.ManualTiebreakValue > 0 {
			return m.Competitor1ID, true
		}
		if *m.ManualTiebreakValue < 0 {
			return *m.Competitor2ID, true
		}
	}
	return 0, false
}
