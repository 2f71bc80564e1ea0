package models

import "encoding/json"

type CompetitorType string

const (
	CompetitorLone CompetitorType = "lone"
	CompetitorTeam CompetitorType = "team"
)

type PairingType string

const (
	PairingSwissDutch          PairingType = "swiss-dutch"
	PairingSwissDutchBakuAccel PairingType = "swiss-dutch-baku-accel"
	PairingKnockoutSingle      PairingType = "knockout-single"
	PairingKnockoutMulti       PairingType = "knockout-multi"
)

func (p PairingType) IsKnockout() bool {
	return p == PairingKnockoutSingle || p == PairingKnockoutMulti
}

// LeagueSettings are the per-format knobs stored as JSON next to the format.
type LeagueSettings struct {
	Tiebreaks     []string     `json:"tiebreaks"`
	SeedingStyle  SeedingStyle `json:"seeding_style"`
	GamesPerMatch int          `json:"games_per_match"` // boards for team formats
	Rounds        int          `json:"rounds"`
	Scoring       string       `json:"scoring"`

	// MatchesPerStage is the number of legs each knockout-multi pair plays.
	MatchesPerStage int `json:"matches_per_stage"`
}

var defaultTiebreaks = []string{"game_points", "head_to_head", "games_won", "sonneborn_berger"}

type Format struct {
	ID             int            `json:"id" db:"id"`
	Name           string         `json:"name" db:"name"`
	PairingType    PairingType    `json:"pairing_type" db:"pairing_type"`
	CompetitorType CompetitorType `json:"competitor_type" db:"competitor_type"`
	SettingsJSON   *string        `json:"-" db:"settings_json"` // Raw JSON string from DB

	// Parsed settings, not stored in DB, populated by service if needed
	ParsedSettings *LeagueSettings `json:"settings,omitempty" db:"-"`
}

// GetSettings parses SettingsJSON and fills defaults for missing values.
func (f *Format) GetSettings() (*LeagueSettings, error) {
	settings := LeagueSettings{}
	if f.SettingsJSON != nil && *f.SettingsJSON != "" {
		if err := json.Unmarshal([]byte(*f.SettingsJSON), &settings); err != nil {
			return nil, err
		}
	}
	if settings.Tiebreaks == nil {
		settings.Tiebreaks = append([]string(nil), defaultTiebreaks...)
	}
	if settings.SeedingStyle == "" {
		settings.SeedingStyle = SeedingTraditional
	}
	if settings.GamesPerMatch < 1 {
		settings.GamesPerMatch = 1
	}
	switch {
	case f.PairingType != PairingKnockoutMulti:
		settings.MatchesPerStage = 1
	case settings.MatchesPerStage < 1:
		settings.MatchesPerStage = 2
	}
	return &settings, nil
}
