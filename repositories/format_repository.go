package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-pairing/models"
)

var (
	ErrFormatNotFound     = errors.New("format not found")
	ErrFormatNameConflict = errors.New("format name conflict")
	ErrFormatInvalidType  = errors.New("invalid competitor_type value for format")
)

type FormatRepository interface {
	Create(ctx context.Context, exec SQLExecutor, format *models.Format) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Format, error)
}

type postgresFormatRepository struct {
	db *sql.DB
}

func NewPostgresFormatRepository(db *sql.DB) FormatRepository {
	return &postgresFormatRepository{db: db}
}

func (r *postgresFormatRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresFormatRepository) Create(ctx context.Context, exec SQLExecutor, format *models.Format) error {
	query := `
		INSERT INTO formats (name, pairing_type, competitor_type, settings_json)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		format.Name,
		format.PairingType,
		format.CompetitorType,
		format.SettingsJSON,
	).Scan(&format.ID)

	return constraintError(err, map[string]error{
		"formats_name_key":           ErrFormatNameConflict,
		"chk_format_competitor_type": ErrFormatInvalidType,
	})
}

// GetByID loads the format and parses its settings, so callers always see
// ParsedSettings with defaults applied.
func (r *postgresFormatRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Format, error) {
	query := `
		SELECT id, name, pairing_type, competitor_type, settings_json
		FROM formats
		WHERE id = $1`
	format := &models.Format{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, id).Scan(
		&format.ID,
		&format.Name,
		&format.PairingType,
		&format.CompetitorType,
		&format.SettingsJSON, // settings_json may be NULL
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFormatNotFound
		}
		return nil, err
	}

	settings, err := format.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to parse settings of format %d: %w", id, err)
	}
	format.ParsedSettings = settings
	return format, nil
}
