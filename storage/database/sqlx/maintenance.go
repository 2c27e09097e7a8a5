package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core/maintenance"
)

// settingsRow maps the maintenance_settings singleton (id is always 1).
type settingsRow struct {
	ID        int16       `db:"id"`
	Active    bool        `db:"active"`
	StartAt   null.String `db:"start_at"`
	EndAt     null.String `db:"end_at"`
	Message   null.String `db:"message"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r settingsRow) unmarshal() maintenance.Window {
	return maintenance.Window{
		Active:    r.Active,
		StartAt:   r.StartAt.String,
		EndAt:     r.EndAt.String,
		Message:   r.Message.String,
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func marshalWindow(w maintenance.Window) settingsRow {
	row := settingsRow{
		ID:        1,
		Active:    w.Active,
		UpdatedAt: w.UpdatedAt,
	}
	if w.StartAt != "" {
		row.StartAt = null.StringFrom(w.StartAt)
	}
	if w.EndAt != "" {
		row.EndAt = null.StringFrom(w.EndAt)
	}
	if w.Message != "" {
		row.Message = null.StringFrom(w.Message)
	}
	return row
}

type maintenanceRepository struct {
	db *sqlx.DB
}

var _ maintenance.Repository = (*maintenanceRepository)(nil) // interface compliance check

func NewMaintenanceRepository(db *sqlx.DB) maintenance.Repository {
	return &maintenanceRepository{db: db}
}

func (repo *maintenanceRepository) GetSettings(ctx context.Context) (maintenance.Window, error) {
	var row settingsRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM maintenance_settings WHERE id = 1`); err != nil {
		if err == sql.ErrNoRows {
			return maintenance.Window{}, maintenance.ErrNotFound
		}
		return maintenance.Window{}, errors.Wrap(err, "getting maintenance settings")
	}
	return row.unmarshal(), nil
}

func (repo *maintenanceRepository) SaveSettings(ctx context.Context, w maintenance.Window) (maintenance.Window, error) {
	row := marshalWindow(w)
	if _, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO maintenance_settings (id, active, start_at, end_at, message, updated_at)
		VALUES (:id, :active, :start_at, :end_at, :message, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			active = EXCLUDED.active, start_at = EXCLUDED.start_at, end_at = EXCLUDED.end_at,
			message = EXCLUDED.message, updated_at = EXCLUDED.updated_at`,
		row,
	); err != nil {
		return maintenance.Window{}, errors.Wrap(err, "saving maintenance settings")
	}
	return w, nil
}
