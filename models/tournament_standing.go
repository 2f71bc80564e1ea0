package models

import "time"

type TournamentStanding struct {
	ID           int            `json:"id" db:"id"`
	TournamentID int            `json:"tournament_id" db:"tournament_id"`
	CompetitorID int            `json:"competitor_id" db:"competitor_id"`
	Rank         int            `json:"rank" db:"rank"`
	MatchPoints  int            `json:"match_points" db:"match_points"`
	GamePoints   float64        `json:"game_points" db:"game_points"`
	Wins         int            `json:"wins" db:"wins"`
	Draws        int            `json:"draws" db:"draws"`
	Losses       int            `json:"losses" db:"losses"`
	Byes         int            `json:"byes" db:"byes"`
	GamesWon     int            `json:"games_won" db:"games_won"`
	SeedRating   int            `json:"seed_rating" db:"seed_rating"`
	Tiebreaks    TiebreakScores `json:"tiebreaks" db:"tiebreaks"` // jsonb
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`

	Competitor *Competitor `json:"competitor,omitempty" db:"-"`
}
