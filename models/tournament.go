package models

import "time"

// TournamentStatus mirrors the tournament_status enum in the database.
type TournamentStatus string

const (
	StatusSoon         TournamentStatus = "soon"
	StatusRegistration TournamentStatus = "registration"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
	StatusCanceled     TournamentStatus = "canceled"
)

// Tournament is the in-memory snapshot the engine works on.
type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	FormatID    int              `json:"format_id" db:"format_id"`
	Status      TournamentStatus `json:"status" db:"status"`
	TotalRounds int              `json:"total_rounds" db:"total_rounds"`
	StartDate   time.Time        `json:"start_date" db:"start_date"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`

	// GamesPerMatch is the board count for team events, 1 otherwise.
	GamesPerMatch int           `json:"games_per_match" db:"-"`
	Scoring       ScoringSystem `json:"scoring" db:"-"`

	Format      *Format      `json:"format,omitempty" db:"-"`
	Competitors []Competitor `json:"competitors,omitempty" db:"-"`
	Rounds      []Round      `json:"rounds,omitempty" db:"-"`
}

func (t Tournament) Competitor(id int) (Competitor, bool) {
	for _, c := range t.Competitors {
		if c.ID == id {
			return c, true
		}
	}
	return Competitor{}, false
}

func (t Tournament) Round(number int) (Round, bool) {
	for _, r := range t.Rounds {
		if r.Number == number {
			return r, true
		}
	}
	return Round{}, false
}

// RoundsBefore returns the rounds numbered below n, in order.
func (t Tournament) RoundsBefore(n int) []Round {
	out := make([]Round, 0, len(t.Rounds))
	for _, r := range t.Rounds {
		if r.Number < n {
			out = append(out, r)
		}
	}
	return out
}

// SeedRatings indexes competitor seed ratings by id.
func (t Tournament) SeedRatings() map[int]int {
	out := make(map[int]int, len(t.Competitors))
	for _, c := range t.Competitors {
		out[c.ID] = c.SeedRating
	}
	return out
}
