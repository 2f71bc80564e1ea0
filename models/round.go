package models

// Round holds one round's matches in pairing order. Byes are matches
// without a second competitor.
type Round struct {
	Number        int     `json:"number"`
	KnockoutStage string  `json:"knockout_stage,omitempty"`
	Matches       []Match `json:"matches"`
	IsCompleted   bool    `json:"is_completed"`
}

// Pairings returns the non-bye matches.
func (r Round) Pairings() []Match {
	out := make([]Match, 0, len(r.Matches))
	for _, m := range r.Matches {
		if !m.IsBye() {
			out = append(out, m)
		}
	}
	return out
}

func (r Round) Byes() []Match {
	out := make([]Match, 0)
	for _, m := range r.Matches {
		if m.IsBye() {
			out = append(out, m)
		}
	}
	return out
}

// MatchFor finds the match or bye the competitor is part of.
func (r Round) MatchFor(competitorID int) (Match, bool) {
	for _, m := range r.Matches {
		if m.Involves(competitorID) {
			return m, true
		}
	}
	return Match{}, false
}

func (r Round) HasResults() bool {
	for _, m := range r.Matches {
		if m.HasResults() {
			return true
		}
	}
	return false
}

// ResultsComplete reports whether every pairing of the round is decided.
func (r Round) ResultsComplete() bool {
	for _, m := range r.Matches {
		if !m.IsComplete() {
			return false
		}
	}
	return true
}
