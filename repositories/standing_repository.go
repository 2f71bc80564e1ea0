package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-pairing/models"
)

var (
	ErrStandingCompetitorInvalid = errors.New("standing competitor conflict or invalid")
	ErrStandingTournamentInvalid = errors.New("standing tournament conflict or invalid")
)

type TournamentStandingRepository interface {
	// ReplaceForTournament drops the stored table and writes standings in
	// its place. Call it inside a transaction.
	ReplaceForTournament(ctx context.Context, exec SQLExecutor, tournamentID int, standings []models.TournamentStanding) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.TournamentStanding, error)
}

type postgresTournamentStandingRepository struct {
	db *sql.DB // Main DB connection, used if exec is nil
}

func NewPostgresTournamentStandingRepository(db *sql.DB) TournamentStandingRepository {
	return &postgresTournamentStandingRepository{db: db}
}

func (r *postgresTournamentStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentStandingRepository) ReplaceForTournament(ctx context.Context, exec SQLExecutor, tournamentID int, standings []models.TournamentStanding) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM tournament_standings WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to clear standings of tournament %d: %w", tournamentID, err)
	}
	if len(standings) == 0 {
		return nil
	}

	stmt, err := executor.PrepareContext(ctx, `
		INSERT INTO tournament_standings
		    (tournament_id, competitor_id, rank, match_points, game_points, wins, draws, losses, byes,
		     games_won, seed_rating, tiebreaks, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)
	if err != nil {
		return fmt.Errorf("ReplaceForTournament failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, s := range standings {
		tiebreaks, err := json.Marshal(s.Tiebreaks)
		if err != nil {
			return fmt.Errorf("failed to encode tiebreaks of competitor %d: %w", s.CompetitorID, err)
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
		_, err = stmt.ExecContext(ctx,
			tournamentID, s.CompetitorID, s.Rank, s.MatchPoints, s.GamePoints, s.Wins, s.Draws, s.Losses, s.Byes,
			s.GamesWon, s.SeedRating, tiebreaks, s.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("ReplaceForTournament failed for competitor %d: %w", s.CompetitorID, constraintError(err, map[string]error{
				"tournament_standings_competitor_id_fkey": ErrStandingCompetitorInvalid,
				"tournament_standings_tournament_id_fkey": ErrStandingTournamentInvalid,
			}))
		}
	}
	return nil
}

func (r *postgresTournamentStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.TournamentStanding, error) {
	query := `
		SELECT id, tournament_id, competitor_id, rank, match_points, game_points, wins, draws, losses, byes,
		       games_won, seed_rating, tiebreaks, updated_at
		FROM tournament_standings
		WHERE tournament_id = $1
		ORDER BY rank ASC, competitor_id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]models.TournamentStanding, 0)
	for rows.Next() {
		var (
			s         models.TournamentStanding
			tiebreaks []byte
		)
		if err := rows.Scan(
			&s.ID, &s.TournamentID, &s.CompetitorID, &s.Rank, &s.MatchPoints, &s.GamePoints,
			&s.Wins, &s.Draws, &s.Losses, &s.Byes, &s.GamesWon, &s.SeedRating, &tiebreaks, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(tiebreaks, &s.Tiebreaks); err != nil {
			return nil, fmt.Errorf("failed to decode tiebreaks of competitor %d: %w", s.CompetitorID, err)
		}
		standings = append(standings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return standings, nil
}
