package models

// Competitor is either a lone player or a team taking part in a tournament.
type Competitor struct {
	ID         int            `json:"id" db:"id"`
	Name       string         `json:"name" db:"name"`
	SeedRating int            `json:"seed_rating" db:"seed_rating"`
	IsActive   bool           `json:"is_active" db:"is_active"`
	Kind       CompetitorType `json:"kind" db:"kind"`

	Roster *Roster `json:"roster,omitempty" db:"-"`
}

// ActiveCompetitors filters the active ones, keeping the input order.
func ActiveCompetitors(competitors []Competitor) []Competitor {
	out := make([]Competitor, 0, len(competitors))
	for _, c := range competitors {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}
