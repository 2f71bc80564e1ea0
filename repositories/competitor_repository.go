package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/lib/pq"
)

var (
	ErrCompetitorNotFound          = errors.New("competitor not found")
	ErrCompetitorTournamentInvalid = errors.New("competitor tournament conflict or invalid")
)

// PairingState is the per-competitor Swiss bookkeeping kept between rounds.
type PairingState struct {
	AccelerationGroups map[int]int
	LateJoinPoints     map[int]float64
}

type CompetitorRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournamentID int, c *models.Competitor) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Competitor, error)
	GetPairingState(ctx context.Context, exec SQLExecutor, tournamentID int) (*PairingState, error)
	UpdateAccelerationGroups(ctx context.Context, exec SQLExecutor, groups map[int]int) error
	ListUnavailable(ctx context.Context, exec SQLExecutor, tournamentID, round int) (map[int]bool, error)
}

type postgresCompetitorRepository struct {
	db *sql.DB
}

func NewPostgresCompetitorRepository(db *sql.DB) CompetitorRepository {
	return &postgresCompetitorRepository{db: db}
}

func (r *postgresCompetitorRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCompetitorRepository) Create(ctx context.Context, exec SQLExecutor, tournamentID int, c *models.Competitor) error {
	query := `
		INSERT INTO competitors (tournament_id, name, seed_rating, is_active, kind)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		tournamentID, c.Name, c.SeedRating, c.IsActive, c.Kind,
	).Scan(&c.ID)

	return constraintError(err, map[string]error{
		"competitors_tournament_id_fkey": ErrCompetitorTournamentInvalid,
	})
}

// ListByTournament returns competitors ordered by id. Rosters are not
// loaded here.
func (r *postgresCompetitorRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Competitor, error) {
	query := `
		SELECT id, name, seed_rating, is_active, kind
		FROM competitors
		WHERE tournament_id = $1
		ORDER BY id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	competitors := make([]models.Competitor, 0)
	for rows.Next() {
		var c models.Competitor
		if err := rows.Scan(&c.ID, &c.Name, &c.SeedRating, &c.IsActive, &c.Kind); err != nil {
			return nil, err
		}
		competitors = append(competitors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return competitors, nil
}

func (r *postgresCompetitorRepository) GetPairingState(ctx context.Context, exec SQLExecutor, tournamentID int) (*PairingState, error) {
	query := `
		SELECT id, acceleration_group, late_join_points
		FROM competitors
		WHERE tournament_id = $1`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	state := &PairingState{
		AccelerationGroups: make(map[int]int),
		LateJoinPoints:     make(map[int]float64),
	}
	for rows.Next() {
		var (
			id, group int
			lateJoin  float64
		)
		if err := rows.Scan(&id, &group, &lateJoin); err != nil {
			return nil, err
		}
		if group > 0 {
			state.AccelerationGroups[id] = group
		}
		if lateJoin > 0 {
			state.LateJoinPoints[id] = lateJoin
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return state, nil
}

// UpdateAccelerationGroups writes all groups with one statement.
func (r *postgresCompetitorRepository) UpdateAccelerationGroups(ctx context.Context, exec SQLExecutor, groups map[int]int) error {
	if len(groups) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(groups))
	values := make([]int64, 0, len(groups))
	for id, g := range groups {
		ids = append(ids, int64(id))
		values = append(values, int64(g))
	}
	query := `
		UPDATE competitors AS c SET acceleration_group = g.grp
		FROM unnest($1::int[], $2::int[]) AS g(id, grp)
		WHERE c.id = g.id`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, pq.Array(ids), pq.Array(values))
	if err != nil {
		return fmt.Errorf("failed to update acceleration groups: %w", err)
	}
	return nil
}

func (r *postgresCompetitorRepository) ListUnavailable(ctx context.Context, exec SQLExecutor, tournamentID, round int) (map[int]bool, error) {
	query := `
		SELECT u.competitor_id
		FROM competitor_unavailability u
		JOIN competitors c ON c.id = u.competitor_id
		WHERE c.tournament_id = $1 AND u.round_number = $2`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}
