package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/lib/pq"
)

var ErrExchangeTournamentInvalid = errors.New("oracle exchange tournament conflict or invalid")

type OracleExchangeRepository interface {
	Create(ctx context.Context, exec SQLExecutor, e *models.OracleExchange) error
	ListByRound(ctx context.Context, exec SQLExecutor, tournamentID, round int) ([]models.OracleExchange, error)
}

type postgresOracleExchangeRepository struct {
	db *sql.DB
}

func NewPostgresOracleExchangeRepository(db *sql.DB) OracleExchangeRepository {
	return &postgresOracleExchangeRepository{db: db}
}

func (r *postgresOracleExchangeRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresOracleExchangeRepository) Create(ctx context.Context, exec SQLExecutor, e *models.OracleExchange) error {
	query := `
		INSERT INTO oracle_exchanges (id, tournament_id, round_number, input_key, output_key, attempts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		e.ID, e.TournamentID, e.RoundNumber, e.InputKey, e.OutputKey, pq.Array(e.Attempts),
	).Scan(&e.CreatedAt)

	return constraintError(err, map[string]error{
		"oracle_exchanges_tournament_id_fkey": ErrExchangeTournamentInvalid,
	})
}

func (r *postgresOracleExchangeRepository) ListByRound(ctx context.Context, exec SQLExecutor, tournamentID, round int) ([]models.OracleExchange, error) {
	query := `
		SELECT id, tournament_id, round_number, input_key, output_key, attempts, created_at
		FROM oracle_exchanges
		WHERE tournament_id = $1 AND round_number = $2
		ORDER BY created_at ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID, round)
	if err != nil {
		return nil, fmt.Errorf("failed to list oracle exchanges: %w", err)
	}
	defer rows.Close()

	out := make([]models.OracleExchange, 0)
	for rows.Next() {
		var e models.OracleExchange
		if err := rows.Scan(&e.ID, &e.TournamentID, &e.RoundNumber, &e.InputKey, &e.OutputKey, pq.Array(&e.Attempts), &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
