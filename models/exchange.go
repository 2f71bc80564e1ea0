package models

import (
	"time"

	"github.com/google/uuid"
)

// OracleExchange indexes one archived oracle call: the encoded input and
// the pairs it produced.
type OracleExchange struct {
	ID           uuid.UUID `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	RoundNumber  int       `json:"round_number" db:"round_number"`
	InputKey     string    `json:"input_key" db:"input_key"`
	OutputKey    string    `json:"output_key" db:"output_key"`
	Attempts     []string  `json:"attempts" db:"attempts"` // oracle modes in call order
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
