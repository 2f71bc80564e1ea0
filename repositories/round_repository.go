package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-pairing/models"
	"github.com/lib/pq"
)

var (
	ErrPairingCompetitorInvalid = errors.New("pairing competitor conflict or invalid")
	ErrGameNotFound             = errors.New("game not found")
	ErrPairingNotFound          = errors.New("pairing not found")
)

type RoundRepository interface {
	// ListByTournament loads every round with its matches and games, rounds
	// by number and matches by pairing order with byes last.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Round, error)
	// SaveRound replaces the stored matches of round.Number with round.Matches.
	SaveRound(ctx context.Context, exec SQLExecutor, tournamentID int, round models.Round) error
	// UpdateGameResult stores the result of one board of a pairing.
	UpdateGameResult(ctx context.Context, exec SQLExecutor, tournamentID, roundNumber, pairingOrder, board int, result models.GameResult) error
	// UpdateManualTiebreak sets or clears the manual tiebreak of a pairing.
	UpdateManualTiebreak(ctx context.Context, exec SQLExecutor, tournamentID, roundNumber, pairingOrder int, value *int) error
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

func (r *postgresRoundRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRoundRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Round, error) {
	executor := r.getExecutor(exec)

	rows, err := executor.QueryContext(ctx, `
		SELECT r.number, r.knockout_stage, r.is_completed,
		       p.id, p.competitor1_id, p.competitor2_id, p.pairing_order, p.bye_type, p.manual_tiebreak_value
		FROM rounds r
		LEFT JOIN pairings p ON p.round_id = r.id
		WHERE r.tournament_id = $1
		ORDER BY r.number ASC, (p.competitor2_id IS NULL) ASC, p.pairing_order ASC, p.id ASC`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	var (
		rounds     []models.Round
		pairingIDs []int64
		// position of each pairing id: round index, match index
		where = make(map[int64][2]int)
	)
	for rows.Next() {
		var (
			number      int
			stage       sql.NullString
			completed   bool
			pairingID   sql.NullInt64
			c1          sql.NullInt64
			c2          sql.NullInt64
			order       sql.NullInt64
			byeType     sql.NullString
			manualValue sql.NullInt64
		)
		if err := rows.Scan(&number, &stage, &completed, &pairingID, &c1, &c2, &order, &byeType, &manualValue); err != nil {
			return nil, err
		}
		if len(rounds) == 0 || rounds[len(rounds)-1].Number != number {
			rounds = append(rounds, models.Round{
				Number:        number,
				KnockoutStage: stage.String,
				IsCompleted:   completed,
				Matches:       []models.Match{},
			})
		}
		if !pairingID.Valid {
			continue
		}

		m := models.Match{
			Competitor1ID: int(c1.Int64),
			PairingOrder:  int(order.Int64),
			ByeType:       models.ByeType(byeType.String),
		}
		if c2.Valid {
			id := int(c2.Int64)
			m.Competitor2ID = &id
		}
		if manualValue.Valid {
			v := int(manualValue.Int64)
			m.ManualTiebreakValue = &v
		}
		ri := len(rounds) - 1
		rounds[ri].Matches = append(rounds[ri].Matches, m)
		where[pairingID.Int64] = [2]int{ri, len(rounds[ri].Matches) - 1}
		pairingIDs = append(pairingIDs, pairingID.Int64)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(pairingIDs) == 0 {
		return rounds, nil
	}

	games, err := executor.QueryContext(ctx, `
		SELECT pairing_id, board, player1_id, player1_competitor_id, player2_id, player2_competitor_id, result
		FROM games
		WHERE pairing_id = ANY($1)
		ORDER BY pairing_id, board`, pq.Array(pairingIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list games for tournament %d: %w", tournamentID, err)
	}
	defer games.Close()

	for games.Next() {
		var (
			pairingID        int64
			g                models.Game
			p1, p1c, p2, p2c sql.NullInt64
			result           string
		)
		if err := games.Scan(&pairingID, &g.Board, &p1, &p1c, &p2, &p2c, &result); err != nil {
			return nil, err
		}
		if g.Result, err = models.ParseGameResult(result); err != nil {
			return nil, fmt.Errorf("pairing %d board %d: %w", pairingID, g.Board, err)
		}
		g.Player1 = scanPlayer(p1, p1c)
		g.Player2 = scanPlayer(p2, p2c)
		pos := where[pairingID]
		m := &rounds[pos[0]].Matches[pos[1]]
		m.Games = append(m.Games, g)
	}
	return rounds, games.Err()
}

func scanPlayer(id, competitorID sql.NullInt64) *models.Player {
	if !id.Valid {
		return nil
	}
	return &models.Player{ID: int(id.Int64), CompetitorID: int(competitorID.Int64)}
}

func playerArgs(p *models.Player) (interface{}, interface{}) {
	if p == nil {
		return nil, nil
	}
	return p.ID, p.CompetitorID
}

func (r *postgresRoundRepository) SaveRound(ctx context.Context, exec SQLExecutor, tournamentID int, round models.Round) error {
	executor := r.getExecutor(exec)

	var stage interface{}
	if round.KnockoutStage != "" {
		stage = round.KnockoutStage
	}
	var roundID int
	err := executor.QueryRowContext(ctx, `
		INSERT INTO rounds (tournament_id, number, knockout_stage, is_completed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT rounds_tournament_number_key
		DO UPDATE SET knockout_stage = EXCLUDED.knockout_stage, is_completed = EXCLUDED.is_completed
		RETURNING id`, tournamentID, round.Number, stage, round.IsCompleted).Scan(&roundID)
	if err != nil {
		return fmt.Errorf("failed to upsert round %d: %w", round.Number, err)
	}

	if _, err := executor.ExecContext(ctx, `DELETE FROM pairings WHERE round_id = $1`, roundID); err != nil {
		return fmt.Errorf("failed to clear pairings of round %d: %w", round.Number, err)
	}
	if len(round.Matches) == 0 {
		return nil
	}

	gameStmt, err := executor.PrepareContext(ctx, `
		INSERT INTO games (pairing_id, board, player1_id, player1_competitor_id, player2_id, player2_competitor_id, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("SaveRound failed to prepare statement: %w", err)
	}
	defer gameStmt.Close()

	matches := append([]models.Match(nil), round.Matches...)
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].PairingOrder < matches[j].PairingOrder })
	for _, m := range matches {
		var byeType interface{}
		if m.IsBye() {
			byeType = string(m.ByeType)
		}
		var pairingID int64
		err := executor.QueryRowContext(ctx, `
			INSERT INTO pairings (round_id, competitor1_id, competitor2_id, pairing_order, bye_type, manual_tiebreak_value)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			roundID, m.Competitor1ID, m.Competitor2ID, m.PairingOrder, byeType, m.ManualTiebreakValue,
		).Scan(&pairingID)
		if err != nil {
			return constraintError(err, map[string]error{
				"pairings_competitor1_id_fkey": ErrPairingCompetitorInvalid,
				"pairings_competitor2_id_fkey": ErrPairingCompetitorInvalid,
			})
		}
		for _, g := range m.Games {
			p1, p1c := playerArgs(g.Player1)
			p2, p2c := playerArgs(g.Player2)
			if _, err := gameStmt.ExecContext(ctx, pairingID, g.Board, p1, p1c, p2, p2c, string(g.Result)); err != nil {
				return fmt.Errorf("SaveRound failed for pairing %d board %d: %w", pairingID, g.Board, err)
			}
		}
	}
	return nil
}

func (r *postgresRoundRepository) UpdateGameResult(ctx context.Context, exec SQLExecutor, tournamentID, roundNumber, pairingOrder, board int, result models.GameResult) error {
	executor := r.getExecutor(exec)

	res, err := executor.ExecContext(ctx, `
		UPDATE games g SET result = $5
		FROM pairings p, rounds r
		WHERE g.pairing_id = p.id AND p.round_id = r.id
		  AND r.tournament_id = $1 AND r.number = $2
		  AND p.pairing_order = $3 AND p.competitor2_id IS NOT NULL
		  AND g.board = $4`,
		tournamentID, roundNumber, pairingOrder, board, string(result))
	if err != nil {
		return fmt.Errorf("failed to update result of round %d pairing %d board %d: %w", roundNumber, pairingOrder, board, err)
	}
	return checkAffectedRows(res, ErrGameNotFound)
}

func (r *postgresRoundRepository) UpdateManualTiebreak(ctx context.Context, exec SQLExecutor, tournamentID, roundNumber, pairingOrder int, value *int) error {
	executor := r.getExecutor(exec)

	res, err := executor.ExecContext(ctx, `
		UPDATE pairings p SET manual_tiebreak_value = $4
		FROM rounds r
		WHERE p.round_id = r.id
		  AND r.tournament_id = $1 AND r.number = $2
		  AND p.pairing_order = $3 AND p.competitor2_id IS NOT NULL`,
		tournamentID, roundNumber, pairingOrder, value)
	if err != nil {
		return fmt.Errorf("failed to update tiebreak of round %d pairing %d: %w", roundNumber, pairingOrder, err)
	}
	return checkAffectedRows(res, ErrPairingNotFound)
}
