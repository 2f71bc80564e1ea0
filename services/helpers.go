package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/Dosada05/tournament-pairing/repositories"
	"golang.org/x/sync/errgroup"
)

// snapshot is everything the engine needs about one tournament, loaded
// outside of any transaction.
type snapshot struct {
	Tournament  models.Tournament
	Settings    *models.LeagueSettings
	State       *repositories.PairingState
	Unavailable map[int]bool
}

type snapshotLoader struct {
	tournamentRepo repositories.TournamentRepository
	formatRepo     repositories.FormatRepository
	competitorRepo repositories.CompetitorRepository
	rosterRepo     repositories.RosterRepository
	roundRepo      repositories.RoundRepository
}

func newSnapshotLoader(
	tournamentRepo repositories.TournamentRepository,
	formatRepo repositories.FormatRepository,
	competitorRepo repositories.CompetitorRepository,
	rosterRepo repositories.RosterRepository,
	roundRepo repositories.RoundRepository,
) *snapshotLoader {
	return &snapshotLoader{
		tournamentRepo: tournamentRepo,
		formatRepo:     formatRepo,
		competitorRepo: competitorRepo,
		rosterRepo:     rosterRepo,
		roundRepo:      roundRepo,
	}
}

// load reads the tournament with its format, competitors, rosters and
// rounds. Rosters, substitutions and unavailability are those of round;
// round 0 skips unavailability.
func (l *snapshotLoader) load(ctx context.Context, tournamentID, round int) (*snapshot, error) {
	t, err := l.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	format, err := l.formatRepo.GetByID(ctx, nil, t.FormatID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	settings, err := format.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("%w: format %d settings: %v", ErrValidationFailed, format.ID, err)
	}

	var (
		competitors []models.Competitor
		rosters     map[int]*models.Roster
		rounds      []models.Round
		state       *repositories.PairingState
		unavailable = make(map[int]bool)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		competitors, err = l.competitorRepo.ListByTournament(gctx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load competitors: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rounds, err = l.roundRepo.ListByTournament(gctx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load rounds: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		state, err = l.competitorRepo.GetPairingState(gctx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load pairing state: %w", err)
		}
		return nil
	})
	if format.CompetitorType == models.CompetitorTeam {
		g.Go(func() error {
			var err error
			rosters, err = l.rosterRepo.ListByTournament(gctx, nil, tournamentID, round)
			if err != nil {
				return fmt.Errorf("failed to load rosters: %w", err)
			}
			return nil
		})
	}
	if round > 0 {
		g.Go(func() error {
			var err error
			unavailable, err = l.competitorRepo.ListUnavailable(gctx, nil, tournamentID, round)
			if err != nil {
				return fmt.Errorf("failed to load unavailability: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range competitors {
		if ro, ok := rosters[competitors[i].ID]; ok {
			competitors[i].Roster = ro
		}
	}

	t.Format = format
	t.Competitors = competitors
	t.Rounds = rounds
	t.Scoring = models.ScoringByName(settings.Scoring)
	t.GamesPerMatch = 1
	if format.CompetitorType == models.CompetitorTeam {
		t.GamesPerMatch = settings.GamesPerMatch
	}
	if t.TotalRounds == 0 {
		t.TotalRounds = settings.Rounds
	}
	if state == nil {
		state = &repositories.PairingState{}
	}

	return &snapshot{
		Tournament:  *t,
		Settings:    settings,
		State:       state,
		Unavailable: unavailable,
	}, nil
}

// handleRepositoryError maps repository not-found errors to service errors.
func handleRepositoryError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrFormatNotFound):
		return ErrFormatNotFound
	case errors.Is(err, repositories.ErrBracketNotFound):
		return ErrBracketNotFound
	case errors.Is(err, repositories.ErrBracketExists):
		return ErrBracketExists
	case errors.Is(err, repositories.ErrAlreadyAdvanced):
		return ErrRoundAdvanced
	default:
		return err
	}
}

func checkOpen(t models.Tournament) error {
	if t.Status == models.StatusCompleted || t.Status == models.StatusCanceled {
		return fmt.Errorf("tournament %d is %s: %w", t.ID, t.Status, ErrTournamentClosed)
	}
	return nil
}
