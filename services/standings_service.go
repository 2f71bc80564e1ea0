package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/Dosada05/tournament-pairing/repositories"
	"github.com/Dosada05/tournament-pairing/standings"
)

type StandingsService interface {
	// Recalculate ranks the tournament from its rounds and stores the table.
	Recalculate(ctx context.Context, tournamentID int) ([]models.TournamentStanding, error)
	// Get returns the stored table, computing it first if none is stored.
	Get(ctx context.Context, tournamentID int) ([]models.TournamentStanding, error)
}

type standingsService struct {
	transactor   repositories.Transactor
	loader       *snapshotLoader
	standingRepo repositories.TournamentStandingRepository
	logger       *slog.Logger
}

func NewStandingsService(
	transactor repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	formatRepo repositories.FormatRepository,
	competitorRepo repositories.CompetitorRepository,
	rosterRepo repositories.RosterRepository,
	roundRepo repositories.RoundRepository,
	standingRepo repositories.TournamentStandingRepository,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		transactor:   transactor,
		loader:       newSnapshotLoader(tournamentRepo, formatRepo, competitorRepo, rosterRepo, roundRepo),
		standingRepo: standingRepo,
		logger:       logger,
	}
}

// ComputeStandings ranks a tournament snapshot by the given tiebreak order.
func ComputeStandings(t models.Tournament, order []string) ([]models.TournamentStanding, error) {
	if err := standings.DefaultRegistry().Validate(order); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	scoring := t.Scoring.OrStandard()
	scores := standings.CalculateResults(t)
	tiebreaks := standings.NewCalculator(scoring).Calculate(scores, order)
	table := standings.Rank(scores, tiebreaks, order, t.SeedRatings(), scoring)

	now := time.Now()
	for i := range table {
		table[i].TournamentID = t.ID
		table[i].UpdatedAt = now
		if c, ok := t.Competitor(table[i].CompetitorID); ok {
			c := c
			table[i].Competitor = &c
		}
	}
	return table, nil
}

func (s *standingsService) Recalculate(ctx context.Context, tournamentID int) ([]models.TournamentStanding, error) {
	snap, err := s.loader.load(ctx, tournamentID, 0)
	if err != nil {
		return nil, err
	}
	table, err := ComputeStandings(snap.Tournament, snap.Settings.Tiebreaks)
	if err != nil {
		return nil, err
	}

	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.standingRepo.ReplaceForTournament(ctx, exec, tournamentID, table)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store standings: %w", err)
	}

	s.logger.InfoContext(ctx, "standings recalculated",
		slog.Int("tournament_id", tournamentID), slog.Int("competitors", len(table)))
	return table, nil
}

func (s *standingsService) Get(ctx context.Context, tournamentID int) ([]models.TournamentStanding, error) {
	table, err := s.standingRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load standings: %w", err)
	}
	if len(table) > 0 {
		return table, nil
	}
	return s.Recalculate(ctx, tournamentID)
}
