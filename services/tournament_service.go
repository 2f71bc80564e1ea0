package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/Dosada05/tournament-pairing/repositories"
	"github.com/Dosada05/tournament-pairing/standings"
)

var knownPairingTypes = map[models.PairingType]bool{
	models.PairingSwissDutch:          true,
	models.PairingSwissDutchBakuAccel: true,
	models.PairingKnockoutSingle:      true,
	models.PairingKnockoutMulti:       true,
}

type TournamentService interface {
	CreateFormat(ctx context.Context, format *models.Format) error
	CreateTournament(ctx context.Context, tournament *models.Tournament) error
	// AddCompetitor registers a competitor and, for teams, its board order.
	AddCompetitor(ctx context.Context, tournamentID int, competitor *models.Competitor) error
	GetTournament(ctx context.Context, tournamentID int) (*models.Tournament, error)
}

type tournamentService struct {
	transactor     repositories.Transactor
	loader         *snapshotLoader
	tournamentRepo repositories.TournamentRepository
	formatRepo     repositories.FormatRepository
	competitorRepo repositories.CompetitorRepository
	rosterRepo     repositories.RosterRepository
	logger         *slog.Logger
}

func NewTournamentService(
	transactor repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	formatRepo repositories.FormatRepository,
	competitorRepo repositories.CompetitorRepository,
	rosterRepo repositories.RosterRepository,
	roundRepo repositories.RoundRepository,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		transactor:     transactor,
		loader:         newSnapshotLoader(tournamentRepo, formatRepo, competitorRepo, rosterRepo, roundRepo),
		tournamentRepo: tournamentRepo,
		formatRepo:     formatRepo,
		competitorRepo: competitorRepo,
		rosterRepo:     rosterRepo,
		logger:         logger,
	}
}

func (s *tournamentService) CreateFormat(ctx context.Context, format *models.Format) error {
	format.Name = strings.TrimSpace(format.Name)
	if format.Name == "" {
		return fmt.Errorf("%w: format name is required", ErrValidationFailed)
	}
	if !knownPairingTypes[format.PairingType] {
		return fmt.Errorf("%w: unknown pairing type %q", ErrValidationFailed, format.PairingType)
	}
	if format.CompetitorType != models.CompetitorLone && format.CompetitorType != models.CompetitorTeam {
		return fmt.Errorf("%w: unknown competitor type %q", ErrValidationFailed, format.CompetitorType)
	}
	settings, err := format.GetSettings()
	if err != nil {
		return fmt.Errorf("%w: settings: %v", ErrValidationFailed, err)
	}
	if err := standings.DefaultRegistry().Validate(settings.Tiebreaks); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if settings.SeedingStyle != models.SeedingTraditional && settings.SeedingStyle != models.SeedingAdjacent {
		return fmt.Errorf("%w: unknown seeding style %q", ErrValidationFailed, settings.SeedingStyle)
	}

	if err := s.formatRepo.Create(ctx, nil, format); err != nil {
		if errors.Is(err, repositories.ErrFormatNameConflict) || errors.Is(err, repositories.ErrFormatInvalidType) {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		return err
	}
	format.ParsedSettings = settings
	return nil
}

func (s *tournamentService) CreateTournament(ctx context.Context, tournament *models.Tournament) error {
	tournament.Name = strings.TrimSpace(tournament.Name)
	if tournament.Name == "" {
		return fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if tournament.TotalRounds < 0 {
		return fmt.Errorf("%w: total rounds must not be negative", ErrValidationFailed)
	}
	if tournament.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrValidationFailed)
	}
	if tournament.Status == "" {
		tournament.Status = models.StatusRegistration
	}

	if err := s.tournamentRepo.Create(ctx, nil, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentInvalidFormat) {
			return ErrFormatNotFound
		}
		return err
	}
	s.logger.InfoContext(ctx, "tournament created",
		slog.Int("tournament_id", tournament.ID), slog.Int("format_id", tournament.FormatID))
	return nil
}

func (s *tournamentService) AddCompetitor(ctx context.Context, tournamentID int, competitor *models.Competitor) error {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return handleRepositoryError(err)
	}
	if err := checkOpen(*t); err != nil {
		return err
	}
	format, err := s.formatRepo.GetByID(ctx, nil, t.FormatID)
	if err != nil {
		return handleRepositoryError(err)
	}

	competitor.Name = strings.TrimSpace(competitor.Name)
	if competitor.Name == "" {
		return fmt.Errorf("%w: competitor name is required", ErrValidationFailed)
	}
	competitor.Kind = format.CompetitorType
	competitor.IsActive = true
	if competitor.Roster != nil && competitor.Kind != models.CompetitorTeam {
		return fmt.Errorf("%w: only team competitors carry a roster", ErrValidationFailed)
	}
	if competitor.Roster != nil {
		for board := range competitor.Roster.Boards {
			if board < 1 {
				return fmt.Errorf("%w: board numbers start at 1", ErrValidationFailed)
			}
		}
	}

	return s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.competitorRepo.Create(ctx, exec, tournamentID, competitor); err != nil {
			return err
		}
		if competitor.Roster == nil {
			return nil
		}
		competitor.Roster.CompetitorID = competitor.ID
		return s.rosterRepo.ReplaceBoards(ctx, exec, *competitor.Roster)
	})
}

func (s *tournamentService) GetTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	snap, err := s.loader.load(ctx, tournamentID, 0)
	if err != nil {
		return nil, err
	}
	t := snap.Tournament
	t.Format.ParsedSettings = snap.Settings
	return &t, nil
}
