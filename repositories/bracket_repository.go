package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-pairing/models"
)

var (
	ErrBracketNotFound = errors.New("knockout bracket not found")
	ErrBracketExists   = errors.New("tournament already has a knockout bracket")
	ErrAlreadyAdvanced = errors.New("knockout round already advanced")
)

type BracketRepository interface {
	// Create stores the bracket and its seedings, filling in their ids.
	Create(ctx context.Context, exec SQLExecutor, b *models.KnockoutBracket, seedings []models.KnockoutSeeding) error
	GetByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.KnockoutBracket, []models.KnockoutSeeding, error)
	MarkCompleted(ctx context.Context, exec SQLExecutor, bracketID int) error
	CreateAdvancements(ctx context.Context, exec SQLExecutor, records []models.KnockoutAdvancement) error
	CountAdvancements(ctx context.Context, exec SQLExecutor, bracketID, sourceRound int) (int, error)
}

type postgresBracketRepository struct {
	db *sql.DB
}

func NewPostgresBracketRepository(db *sql.DB) BracketRepository {
	return &postgresBracketRepository{db: db}
}

func (r *postgresBracketRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresBracketRepository) Create(ctx context.Context, exec SQLExecutor, b *models.KnockoutBracket, seedings []models.KnockoutSeeding) error {
	executor := r.getExecutor(exec)
	err := executor.QueryRowContext(ctx, `
		INSERT INTO knockout_brackets (tournament_id, bracket_size, seeding_style, games_per_match, matches_per_stage)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		b.TournamentID, b.BracketSize, b.SeedingStyle, b.GamesPerMatch, b.MatchesPerStage,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return constraintError(err, map[string]error{
			"knockout_brackets_tournament_id_key": ErrBracketExists,
		})
	}

	stmt, err := executor.PrepareContext(ctx, `
		INSERT INTO knockout_seedings (bracket_id, competitor_id, seed_number, is_manual_seed)
		VALUES ($1, $2, $3, $4)
		RETURNING id`)
	if err != nil {
		return fmt.Errorf("failed to prepare seeding insert: %w", err)
	}
	defer stmt.Close()

	for i := range seedings {
		s := &seedings[i]
		s.BracketID = b.ID
		if err := stmt.QueryRowContext(ctx, s.BracketID, s.CompetitorID, s.SeedNumber, s.IsManualSeed).Scan(&s.ID); err != nil {
			return fmt.Errorf("failed to store seed %d: %w", s.SeedNumber, err)
		}
	}
	return nil
}

func (r *postgresBracketRepository) GetByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.KnockoutBracket, []models.KnockoutSeeding, error) {
	executor := r.getExecutor(exec)
	b := &models.KnockoutBracket{}
	err := executor.QueryRowContext(ctx, `
		SELECT id, tournament_id, bracket_size, seeding_style, games_per_match, matches_per_stage, is_completed, created_at
		FROM knockout_brackets
		WHERE tournament_id = $1`, tournamentID).Scan(
		&b.ID, &b.TournamentID, &b.BracketSize, &b.SeedingStyle, &b.GamesPerMatch,
		&b.MatchesPerStage, &b.IsCompleted, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrBracketNotFound
		}
		return nil, nil, err
	}

	rows, err := executor.QueryContext(ctx, `
		SELECT id, bracket_id, competitor_id, seed_number, is_manual_seed
		FROM knockout_seedings
		WHERE bracket_id = $1
		ORDER BY seed_number ASC`, b.ID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	seedings := make([]models.KnockoutSeeding, 0, b.BracketSize)
	for rows.Next() {
		var s models.KnockoutSeeding
		if err := rows.Scan(&s.ID, &s.BracketID, &s.CompetitorID, &s.SeedNumber, &s.IsManualSeed); err != nil {
			return nil, nil, err
		}
		seedings = append(seedings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return b, seedings, nil
}

func (r *postgresBracketRepository) MarkCompleted(ctx context.Context, exec SQLExecutor, bracketID int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE knockout_brackets SET is_completed = TRUE WHERE id = $1`, bracketID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrBracketNotFound)
}

func (r *postgresBracketRepository) CreateAdvancements(ctx context.Context, exec SQLExecutor, records []models.KnockoutAdvancement) error {
	if len(records) == 0 {
		return nil
	}
	stmt, err := r.getExecutor(exec).PrepareContext(ctx, `
		INSERT INTO knockout_advancements
		    (bracket_id, competitor_id, from_stage, to_stage, source_round, source_pairing_order)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("failed to prepare advancement insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range records {
		if _, err := stmt.ExecContext(ctx, a.BracketID, a.CompetitorID, a.FromStage, a.ToStage, a.SourceRound, a.SourcePairingOrder); err != nil {
			return fmt.Errorf("failed to record advancement of competitor %d: %w", a.CompetitorID,
				constraintError(err, map[string]error{
					"knockout_advancements_once": ErrAlreadyAdvanced,
				}))
		}
	}
	return nil
}

func (r *postgresBracketRepository) CountAdvancements(ctx context.Context, exec SQLExecutor, bracketID, sourceRound int) (int, error) {
	var n int
	err := r.getExecutor(exec).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM knockout_advancements
		WHERE bracket_id = $1 AND source_round = $2`, bracketID, sourceRound).Scan(&n)
	return n, err
}
