package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const settingColumns = `id, clinic_id, key, value, type, COALESCE(description, '')`

// PostgresRepository stores settings in the clinic_settings table.
type PostgresRepository struct {
	db pgxDB
}

// NewPostgresRepository creates a repository backed by a pgx pool (or any
// compatible querier, such as a pgxmock pool in tests).
func NewPostgresRepository(db pgxDB) *PostgresRepository {
	if db == nil {
		panic("settings: pgx db required")
	}
	return &PostgresRepository{db: db}
}

// ListByClinic returns the clinic's settings ordered by key.
func (r *PostgresRepository) ListByClinic(ctx context.Context, clinicID string) ([]Setting, error) {
	rows, err := r.db.Query(ctx, `SELECT `+settingColumns+` FROM clinic_settings WHERE clinic_id = $1 ORDER BY key`, clinicID)
	if err != nil {
		return nil, fmt.Errorf("settings: list: %w", err)
	}
	defer rows.Close()

	out := []Setting{}
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, fmt.Errorf("settings: scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("settings: list rows: %w", err)
	}
	return out, nil
}

// Update overwrites value, type and description of the row with id.
func (r *PostgresRepository) Update(ctx context.Context, id string, s Setting) (Setting, error) {
	if err := s.Validate(); err != nil {
		return Setting{}, err
	}
	row := r.db.QueryRow(ctx, `
		UPDATE clinic_settings
		SET value = $2, type = $3, description = NULLIF($4, ''), updated_at = now()
		WHERE id = $1
		RETURNING `+settingColumns,
		id, s.Value, string(s.Type), s.Description,
	)
	out, err := scanSetting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Setting{}, fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	if err != nil {
		return Setting{}, fmt.Errorf("settings: update: %w", err)
	}
	return out, nil
}

// Create inserts a new row. A row for the same clinic and key is overwritten
// so a racing create never leaves duplicates.
func (r *PostgresRepository) Create(ctx context.Context, s Setting) (Setting, error) {
	if err := s.Validate(); err != nil {
		return Setting{}, err
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO clinic_settings (id, clinic_id, key, value, type, description)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		ON CONFLICT (clinic_id, key) DO UPDATE
		SET value = EXCLUDED.value, type = EXCLUDED.type, description = EXCLUDED.description, updated_at = now()
		RETURNING `+settingColumns,
		uuid.NewString(), s.ClinicID, s.Key, s.Value, string(s.Type), s.Description,
	)
	out, err := scanSetting(row)
	if err != nil {
		return Setting{}, fmt.Errorf("settings: create: %w", err)
	}
	return out, nil
}

// Ping verifies the database is reachable.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `SELECT 1`)
	return err
}

func scanSetting(row pgx.Row) (Setting, error) {
	var (
		s   Setting
		typ string
	)
	if err := row.Scan(&s.ID, &s.ClinicID, &s.Key, &s.Value, &typ, &s.Description); err != nil {
		return Setting{}, err
	}
	s.Type = ValueType(typ)
	return s, nil
}
