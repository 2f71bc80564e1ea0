package models

import "errors"

// Engine error kinds. Callers match them with errors.Is; details are wrapped
// on top with fmt.Errorf.
var (
	ErrPairingsExist     = errors.New("pairings already exist")
	ErrPairingHasResult  = errors.New("pairing has a result")
	ErrPairingGeneration = errors.New("pairing generation failed")

	ErrResultAlreadySet  = errors.New("game result already recorded")
	ErrResultNotTerminal = errors.New("game result must be terminal")
)
