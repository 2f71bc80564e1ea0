package services

import "errors"

// Общие ошибки, используемые в сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	ErrValidationFailed = errors.New("validation failed")

	ErrTournamentNotFound = errors.New("tournament not found")
	ErrFormatNotFound     = errors.New("format not found")
	ErrRoundNotFound      = errors.New("round not found")
	ErrBracketNotFound    = errors.New("knockout bracket not found")
	ErrPairingNotFound    = errors.New("pairing not found")
	ErrGameNotFound       = errors.New("game not found")

	// Ошибки формата турнира
	ErrNotSwiss    = errors.New("tournament format is not a swiss format")
	ErrNotKnockout = errors.New("tournament format is not a knockout format")

	ErrBracketExists    = errors.New("tournament already has a knockout bracket")
	ErrRoundAdvanced    = errors.New("knockout round already advanced")
	ErrTournamentClosed = errors.New("tournament is completed or canceled")
)
