package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-pairing/brackets"
	"github.com/Dosada05/tournament-pairing/models"
	"github.com/Dosada05/tournament-pairing/repositories"
)

// BracketView is a stored bracket with the round it produced.
type BracketView struct {
	Bracket  models.KnockoutBracket   `json:"bracket"`
	Seedings []models.KnockoutSeeding `json:"seedings"`
	Round    *models.Round            `json:"round,omitempty"`
	State    brackets.State           `json:"state"`
}

// Progress is the outcome of advancing a knockout round: either the next
// leg of a multi-match stage, the next stage, or the champion.
type Progress struct {
	Round       *models.Round                `json:"round,omitempty"`
	NextLeg     []models.Match               `json:"next_leg,omitempty"`
	Advanced    []models.KnockoutAdvancement `json:"advanced,omitempty"`
	Completed   bool                         `json:"completed"`
	ChampionID  int                          `json:"champion_id,omitempty"`
	StageStatus brackets.StageStatus         `json:"stage_status"`
}

type KnockoutService interface {
	CreateBracket(ctx context.Context, tournamentID int) (*BracketView, error)
	Advance(ctx context.Context, tournamentID, roundNumber int) (*Progress, error)
}

type knockoutService struct {
	transactor     repositories.Transactor
	loader         *snapshotLoader
	tournamentRepo repositories.TournamentRepository
	roundRepo      repositories.RoundRepository
	bracketRepo    repositories.BracketRepository
	logger         *slog.Logger
}

func NewKnockoutService(
	transactor repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	formatRepo repositories.FormatRepository,
	competitorRepo repositories.CompetitorRepository,
	rosterRepo repositories.RosterRepository,
	roundRepo repositories.RoundRepository,
	bracketRepo repositories.BracketRepository,
	logger *slog.Logger,
) KnockoutService {
	return &knockoutService{
		transactor:     transactor,
		loader:         newSnapshotLoader(tournamentRepo, formatRepo, competitorRepo, rosterRepo, roundRepo),
		tournamentRepo: tournamentRepo,
		roundRepo:      roundRepo,
		bracketRepo:    bracketRepo,
		logger:         logger,
	}
}

func (s *knockoutService) knockoutSnapshot(ctx context.Context, tournamentID int) (*snapshot, error) {
	snap, err := s.loader.load(ctx, tournamentID, 0)
	if err != nil {
		return nil, err
	}
	if err := checkOpen(snap.Tournament); err != nil {
		return nil, err
	}
	if !snap.Tournament.Format.PairingType.IsKnockout() {
		return nil, fmt.Errorf("tournament %d uses %s: %w", tournamentID, snap.Tournament.Format.PairingType, ErrNotKnockout)
	}
	return snap, nil
}

func (s *knockoutService) CreateBracket(ctx context.Context, tournamentID int) (*BracketView, error) {
	snap, err := s.knockoutSnapshot(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	t := snap.Tournament

	b, err := brackets.CreateBracket(t.Competitors, snap.Settings.SeedingStyle, t.GamesPerMatch, snap.Settings.MatchesPerStage)
	if err != nil {
		return nil, err
	}
	b.TournamentID = tournamentID
	first, err := brackets.FirstRound(b, t.Competitors)
	if err != nil {
		return nil, err
	}

	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.bracketRepo.Create(ctx, exec, &b.KnockoutBracket, b.Seedings); err != nil {
			return handleRepositoryError(err)
		}
		if err := s.roundRepo.SaveRound(ctx, exec, tournamentID, first); err != nil {
			return fmt.Errorf("failed to save first round: %w", err)
		}
		if t.Status != models.StatusActive {
			if err := s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusActive); err != nil {
				return fmt.Errorf("failed to activate tournament: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "knockout bracket created",
		slog.Int("tournament_id", tournamentID),
		slog.Int("bracket_id", b.ID),
		slog.Int("bracket_size", b.BracketSize),
		slog.String("seeding_style", string(b.SeedingStyle)),
	)
	return &BracketView{
		Bracket:  b.KnockoutBracket,
		Seedings: b.Seedings,
		Round:    &first,
		State:    brackets.StateRoundPaired,
	}, nil
}

// Advance moves the bracket past roundNumber. In a multi-match stage whose
// current leg is finished the return leg is paired into the same round;
// otherwise the stage must be complete and its winners go on.
func (s *knockoutService) Advance(ctx context.Context, tournamentID, roundNumber int) (*Progress, error) {
	snap, err := s.knockoutSnapshot(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	t := snap.Tournament

	bracket, _, err := s.bracketRepo.GetByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	r, ok := t.Round(roundNumber)
	if !ok {
		return nil, fmt.Errorf("round %d of tournament %d: %w", roundNumber, tournamentID, ErrRoundNotFound)
	}

	if brackets.CanGenerateNextMatchSet(*bracket, r) {
		return s.nextLeg(ctx, t, *bracket, r)
	}

	adv, err := brackets.Advance(*bracket, t, roundNumber, t.Scoring)
	if err != nil {
		return nil, err
	}

	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		done, err := s.bracketRepo.CountAdvancements(ctx, exec, bracket.ID, roundNumber)
		if err != nil {
			return err
		}
		if done > 0 {
			return ErrRoundAdvanced
		}
		if err := s.bracketRepo.CreateAdvancements(ctx, exec, adv.Records); err != nil {
			return handleRepositoryError(err)
		}
		if adv.Completed {
			if err := s.bracketRepo.MarkCompleted(ctx, exec, bracket.ID); err != nil {
				return handleRepositoryError(err)
			}
			return s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusCompleted)
		}
		return s.roundRepo.SaveRound(ctx, exec, tournamentID, *adv.Next)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to advance round %d: %w", roundNumber, err)
	}

	p := &Progress{
		Round:       adv.Next,
		Advanced:    adv.Records,
		Completed:   adv.Completed,
		ChampionID:  adv.ChampionID,
		StageStatus: brackets.Status(*bracket, r),
	}
	if adv.Completed {
		s.logger.InfoContext(ctx, "knockout bracket completed",
			slog.Int("tournament_id", tournamentID), slog.Int("champion_id", adv.ChampionID))
	} else {
		s.logger.InfoContext(ctx, "knockout round advanced",
			slog.Int("tournament_id", tournamentID),
			slog.Int("from_round", roundNumber),
			slog.Int("advanced", len(adv.Records)),
		)
	}
	return p, nil
}

func (s *knockoutService) nextLeg(ctx context.Context, t models.Tournament, b models.KnockoutBracket, r models.Round) (*Progress, error) {
	legs, err := brackets.NextMatchSet(b, r, t.Competitors)
	if err != nil {
		return nil, err
	}
	r.Matches = append(append([]models.Match(nil), r.Matches...), legs...)

	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.roundRepo.SaveRound(ctx, exec, t.ID, r)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save next leg of round %d: %w", r.Number, err)
	}

	status := brackets.Status(b, r)
	s.logger.InfoContext(ctx, "knockout leg paired",
		slog.Int("tournament_id", t.ID),
		slog.Int("round", r.Number),
		slog.Int("leg", status.CurrentMatchNumber),
	)
	return &Progress{Round: &r, NextLeg: legs, StageStatus: status}, nil
}
