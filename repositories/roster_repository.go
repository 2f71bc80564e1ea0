package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/tournament-pairing/models"
)

type RosterRepository interface {
	ReplaceBoards(ctx context.Context, exec SQLExecutor, roster models.Roster) error
	// ListByTournament returns the rosters of team competitors with the
	// substitutions registered for the given round.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID, round int) (map[int]*models.Roster, error)
}

type postgresRosterRepository struct {
	db *sql.DB
}

func NewPostgresRosterRepository(db *sql.DB) RosterRepository {
	return &postgresRosterRepository{db: db}
}

func (r *postgresRosterRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRosterRepository) ReplaceBoards(ctx context.Context, exec SQLExecutor, roster models.Roster) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM roster_boards WHERE competitor_id = $1`, roster.CompetitorID); err != nil {
		return fmt.Errorf("failed to clear roster of competitor %d: %w", roster.CompetitorID, err)
	}
	if len(roster.Boards) == 0 {
		return nil
	}

	stmt, err := executor.PrepareContext(ctx, `INSERT INTO roster_boards (competitor_id, board, player_id) VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("ReplaceBoards failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for board, playerID := range roster.Boards {
		if _, err := stmt.ExecContext(ctx, roster.CompetitorID, board, playerID); err != nil {
			return fmt.Errorf("ReplaceBoards failed for board %d: %w", board, err)
		}
	}
	return nil
}

func (r *postgresRosterRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID, round int) (map[int]*models.Roster, error) {
	executor := r.getExecutor(exec)
	rosters := make(map[int]*models.Roster)
	get := func(id int) *models.Roster {
		ro, ok := rosters[id]
		if !ok {
			ro = &models.Roster{CompetitorID: id, Boards: make(map[int]int)}
			rosters[id] = ro
		}
		return ro
	}

	boards, err := executor.QueryContext(ctx, `
		SELECT rb.competitor_id, rb.board, rb.player_id
		FROM roster_boards rb
		JOIN competitors c ON c.id = rb.competitor_id
		WHERE c.tournament_id = $1`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster boards for tournament %d: %w", tournamentID, err)
	}
	defer boards.Close()
	for boards.Next() {
		var competitorID, board, playerID int
		if err := boards.Scan(&competitorID, &board, &playerID); err != nil {
			return nil, err
		}
		get(competitorID).Boards[board] = playerID
	}
	if err := boards.Err(); err != nil {
		return nil, err
	}

	subs, err := executor.QueryContext(ctx, `
		SELECT rs.competitor_id, rs.board, rs.player_id, rs.replaced_player_id
		FROM roster_substitutions rs
		JOIN competitors c ON c.id = rs.competitor_id
		WHERE c.tournament_id = $1 AND rs.round_number = $2`, tournamentID, round)
	if err != nil {
		return nil, fmt.Errorf("failed to list substitutions for round %d: %w", round, err)
	}
	defer subs.Close()
	for subs.Next() {
		var (
			competitorID int
			sub          models.Substitution
			replaced     sql.NullInt64
		)
		if err := subs.Scan(&competitorID, &sub.Board, &sub.PlayerID, &replaced); err != nil {
			return nil, err
		}
		if replaced.Valid {
			id := int(replaced.Int64)
			sub.ReplacedPlayerID = &id
		}
		ro := get(competitorID)
		if ro.Substitutions == nil {
			ro.Substitutions = make(map[int]models.Substitution)
		}
		ro.Substitutions[sub.Board] = sub
	}
	return rosters, subs.Err()
}
