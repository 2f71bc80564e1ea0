package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/Dosada05/tournament-pairing/repositories"
)

type ResultService interface {
	// RecordResult sets the result of one board of a paired match. A board
	// that already has a result cannot be changed.
	RecordResult(ctx context.Context, tournamentID, roundNumber, pairingOrder, board int, result models.GameResult) (*models.Match, error)
	// SetManualTiebreak sets or clears the value that decides a tied
	// knockout match. Nil clears it.
	SetManualTiebreak(ctx context.Context, tournamentID, roundNumber, pairingOrder int, value *int) (*models.Match, error)
}

type resultService struct {
	transactor     repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	roundRepo      repositories.RoundRepository
	logger         *slog.Logger
}

func NewResultService(
	transactor repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	roundRepo repositories.RoundRepository,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		transactor:     transactor,
		tournamentRepo: tournamentRepo,
		roundRepo:      roundRepo,
		logger:         logger,
	}
}

// pairing finds the non-bye match with the given order in an open tournament.
func (s *resultService) pairing(ctx context.Context, tournamentID, roundNumber, pairingOrder int) (*models.Match, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if err := checkOpen(*t); err != nil {
		return nil, err
	}
	rounds, err := s.roundRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rounds: %w", err)
	}
	for i := range rounds {
		if rounds[i].Number != roundNumber {
			continue
		}
		for j := range rounds[i].Matches {
			if m := &rounds[i].Matches[j]; !m.IsBye() && m.PairingOrder == pairingOrder {
				return m, nil
			}
		}
		return nil, fmt.Errorf("round %d pairing %d: %w", roundNumber, pairingOrder, ErrPairingNotFound)
	}
	return nil, fmt.Errorf("round %d: %w", roundNumber, ErrRoundNotFound)
}

func (s *resultService) RecordResult(ctx context.Context, tournamentID, roundNumber, pairingOrder, board int, result models.GameResult) (*models.Match, error) {
	m, err := s.pairing(ctx, tournamentID, roundNumber, pairingOrder)
	if err != nil {
		return nil, err
	}
	var game *models.Game
	for i := range m.Games {
		if m.Games[i].Board == board {
			game = &m.Games[i]
			break
		}
	}
	if game == nil {
		return nil, fmt.Errorf("round %d pairing %d board %d: %w", roundNumber, pairingOrder, board, ErrGameNotFound)
	}
	if err := game.SetResult(result); err != nil {
		return nil, err
	}

	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.roundRepo.UpdateGameResult(ctx, exec, tournamentID, roundNumber, pairingOrder, board, result)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "game result recorded",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round", roundNumber),
		slog.Int("pairing_order", pairingOrder),
		slog.Int("board", board),
		slog.String("result", string(result)))
	return m, nil
}

func (s *resultService) SetManualTiebreak(ctx context.Context, tournamentID, roundNumber, pairingOrder int, value *int) (*models.Match, error) {
	m, err := s.pairing(ctx, tournamentID, roundNumber, pairingOrder)
	if err != nil {
		return nil, err
	}

	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.roundRepo.UpdateManualTiebreak(ctx, exec, tournamentID, roundNumber, pairingOrder, value)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrPairingNotFound) {
			return nil, ErrPairingNotFound
		}
		return nil, err
	}
	m.ManualTiebreakValue = value

	s.logger.InfoContext(ctx, "manual tiebreak set",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round", roundNumber),
		slog.Int("pairing_order", pairingOrder),
		slog.Bool("cleared", value == nil))
	return m, nil
}
