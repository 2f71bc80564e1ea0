package models

import "time"

type SeedingStyle string

const (
	SeedingTraditional SeedingStyle = "traditional" // 1 vs N, 2 vs N-1, ...
	SeedingAdjacent    SeedingStyle = "adjacent"    // 1 vs 2, 3 vs 4, ...
)

type KnockoutBracket struct {
	ID              int          `json:"id" db:"id"`
	TournamentID    int          `json:"tournament_id" db:"tournament_id"`
	BracketSize     int          `json:"bracket_size" db:"bracket_size"`
	SeedingStyle    SeedingStyle `json:"seeding_style" db:"seeding_style"`
	GamesPerMatch   int          `json:"games_per_match" db:"games_per_match"`
	MatchesPerStage int          `json:"matches_per_stage" db:"matches_per_stage"`
	IsCompleted     bool         `json:"is_completed" db:"is_completed"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
}

// KnockoutSeeding is written once at bracket creation and never changed.
type KnockoutSeeding struct {
	ID           int  `json:"id" db:"id"`
	BracketID    int  `json:"bracket_id" db:"bracket_id"`
	CompetitorID int  `json:"competitor_id" db:"competitor_id"`
	SeedNumber   int  `json:"seed_number" db:"seed_number"`
	IsManualSeed bool `json:"is_manual_seed" db:"is_manual_seed"`
}

// KnockoutAdvancement records one competitor leaving a stage as a winner.
type KnockoutAdvancement struct {
	ID                 int    `json:"id" db:"id"`
	BracketID          int    `json:"bracket_id" db:"bracket_id"`
	CompetitorID       int    `json:"competitor_id" db:"competitor_id"`
	FromStage          string `json:"from_stage" db:"from_stage"`
	ToStage            string `json:"to_stage" db:"to_stage"`
	SourceRound        int    `json:"source_round" db:"source_round"`
	SourcePairingOrder int    `json:"source_pairing_order" db:"source_pairing_order"`
}
