package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/Dosada05/tournament-pairing/oracle"
	"github.com/Dosada05/tournament-pairing/repositories"
	"github.com/Dosada05/tournament-pairing/standings"
	"github.com/Dosada05/tournament-pairing/storage"
	"github.com/Dosada05/tournament-pairing/swiss"
)

type PairingService interface {
	GeneratePairings(ctx context.Context, tournamentID, round int, overwrite bool) (*models.Round, error)
	DeletePairings(ctx context.Context, tournamentID, round int) (*models.Round, error)
}

type pairingService struct {
	transactor     repositories.Transactor
	loader         *snapshotLoader
	roundRepo      repositories.RoundRepository
	competitorRepo repositories.CompetitorRepository
	exchangeRepo   repositories.OracleExchangeRepository
	generator      *swiss.Generator
	archive        *storage.ExchangeArchive // nil disables archiving
	logger         *slog.Logger
}

func NewPairingService(
	transactor repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	formatRepo repositories.FormatRepository,
	competitorRepo repositories.CompetitorRepository,
	rosterRepo repositories.RosterRepository,
	roundRepo repositories.RoundRepository,
	exchangeRepo repositories.OracleExchangeRepository,
	generator *swiss.Generator,
	archive *storage.ExchangeArchive,
	logger *slog.Logger,
) PairingService {
	return &pairingService{
		transactor:     transactor,
		loader:         newSnapshotLoader(tournamentRepo, formatRepo, competitorRepo, rosterRepo, roundRepo),
		roundRepo:      roundRepo,
		competitorRepo: competitorRepo,
		exchangeRepo:   exchangeRepo,
		generator:      generator,
		archive:        archive,
		logger:         logger,
	}
}

func (s *pairingService) GeneratePairings(ctx context.Context, tournamentID, round int, overwrite bool) (*models.Round, error) {
	if round < 1 {
		return nil, fmt.Errorf("%w: round number must be positive, got %d", ErrValidationFailed, round)
	}
	snap, err := s.loader.load(ctx, tournamentID, round)
	if err != nil {
		return nil, err
	}
	t := snap.Tournament
	if err := checkOpen(t); err != nil {
		return nil, err
	}
	if t.Format.PairingType.IsKnockout() {
		return nil, fmt.Errorf("tournament %d uses %s: %w", tournamentID, t.Format.PairingType, ErrNotSwiss)
	}
	if err := standings.DefaultRegistry().Validate(snap.Settings.Tiebreaks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	req := swiss.Request{
		Tournament:         t,
		Round:              round,
		TotalRounds:        t.TotalRounds,
		Overwrite:          overwrite,
		Tiebreaks:          snap.Settings.Tiebreaks,
		Unavailable:        snap.Unavailable,
		AccelerationGroups: snap.State.AccelerationGroups,
		LateJoinPoints:     snap.State.LateJoinPoints,
	}
	if t.Format.PairingType == models.PairingSwissDutchBakuAccel {
		req.Acceleration = swiss.AccelerationBaku
	}

	res, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.logger.WarnContext(ctx, "pairing generation failed",
			slog.Int("tournament_id", tournamentID), slog.Int("round", round), slog.Any("error", err))
		return nil, err
	}

	exchange := s.archiveExchange(ctx, tournamentID, round, res)

	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.roundRepo.SaveRound(ctx, exec, tournamentID, res.Round); err != nil {
			return fmt.Errorf("failed to save round %d: %w", round, err)
		}
		if req.Acceleration == swiss.AccelerationBaku {
			if err := s.competitorRepo.UpdateAccelerationGroups(ctx, exec, res.AccelerationGroups); err != nil {
				return fmt.Errorf("failed to save acceleration groups: %w", err)
			}
		}
		if exchange != nil {
			if err := s.exchangeRepo.Create(ctx, exec, exchange); err != nil {
				return fmt.Errorf("failed to record oracle exchange: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if exchange != nil {
			if dErr := s.archive.Discard(ctx, exchange); dErr != nil {
				s.logger.WarnContext(ctx, "failed to discard archived exchange",
					slog.String("exchange_id", exchange.ID.String()), slog.Any("error", dErr))
			}
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "round paired",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round", round),
		slog.Int("pairings", len(res.Round.Pairings())),
		slog.Int("byes", len(res.Round.Byes())),
		slog.Int("discarded", len(res.Discarded)),
		slog.Int("oracle_calls", len(res.Attempts)),
	)
	return &res.Round, nil
}

// archiveExchange stores the oracle input and output when the oracle was
// consulted. Archive failures are logged and do not fail the generation.
func (s *pairingService) archiveExchange(ctx context.Context, tournamentID, round int, res *swiss.Result) *models.OracleExchange {
	if s.archive == nil || len(res.Attempts) == 0 {
		return nil
	}
	exchange, err := s.archive.Store(ctx, tournamentID, round, res.Input, oracle.EncodePairs(res.Pairs))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to archive oracle exchange",
			slog.Int("tournament_id", tournamentID), slog.Int("round", round), slog.Any("error", err))
		return nil
	}
	exchange.Attempts = make([]string, 0, len(res.Attempts))
	for _, m := range res.Attempts {
		exchange.Attempts = append(exchange.Attempts, m.String())
	}
	return exchange
}

func (s *pairingService) DeletePairings(ctx context.Context, tournamentID, round int) (*models.Round, error) {
	snap, err := s.loader.load(ctx, tournamentID, 0)
	if err != nil {
		return nil, err
	}
	t := snap.Tournament
	if err := checkOpen(t); err != nil {
		return nil, err
	}
	if t.Format.PairingType.IsKnockout() {
		return nil, fmt.Errorf("tournament %d uses %s: %w", tournamentID, t.Format.PairingType, ErrNotSwiss)
	}
	existing, ok := t.Round(round)
	if !ok {
		return nil, fmt.Errorf("round %d of tournament %d: %w", round, tournamentID, ErrRoundNotFound)
	}

	kept, removed, err := swiss.DeletePairings(existing)
	if err != nil {
		return nil, err
	}
	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.roundRepo.SaveRound(ctx, exec, tournamentID, kept)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save round %d: %w", round, err)
	}

	s.logger.InfoContext(ctx, "pairings deleted",
		slog.Int("tournament_id", tournamentID), slog.Int("round", round), slog.Int("removed", len(removed)))
	return &kept, nil
}
