package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type classRow struct {
	ID         string      `db:"id"`
	Name       string      `db:"name"`
	Level      string      `db:"level"`
	TeacherID  null.String `db:"teacher_id"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
	ArchivedAt null.Time   `db:"archived_at"`
}

func (r classRow) unmarshal() attendance.Class {
	return attendance.Class{
		ID:         r.ID,
		Name:       r.Name,
		Level:      r.Level,
		TeacherID:  r.TeacherID.String,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
		ArchivedAt: r.ArchivedAt.Time.UTC(),
	}
}

func marshalClass(cls attendance.Class) classRow {
	row := classRow{
		ID:        cls.ID,
		Name:      cls.Name,
		Level:     cls.Level,
		CreatedAt: cls.CreatedAt,
		UpdatedAt: cls.UpdatedAt,
	}
	if cls.TeacherID != "" {
		row.TeacherID = null.StringFrom(cls.TeacherID)
	}
	if !cls.ArchivedAt.IsZero() {
		row.ArchivedAt = null.TimeFrom(cls.ArchivedAt)
	}
	return row
}

type recordRow struct {
	ID        string    `db:"id"`
	ClassID   string    `db:"class_id"`
	StudentID string    `db:"student_id"`
	Date      time.Time `db:"date"`
	Status    string    `db:"status"`
	Remark    string    `db:"remark"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	DeletedAt null.Time `db:"deleted_at"`
}

func (r recordRow) unmarshal() attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		ClassID:   r.ClassID,
		StudentID: r.StudentID,
		Date:      r.Date.UTC(),
		Status:    r.Status,
		Remark:    r.Remark,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		DeletedAt: r.DeletedAt.Time.UTC(),
	}
}

func marshalRecord(rec attendance.Record) recordRow {
	row := recordRow{
		ID:        rec.ID,
		ClassID:   rec.ClassID,
		StudentID: rec.StudentID,
		Date:      rec.Date,
		Status:    rec.Status,
		Remark:    rec.Remark,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if !rec.DeletedAt.IsZero() {
		row.DeletedAt = null.TimeFrom(rec.DeletedAt)
	}
	return row
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) CreateClass(ctx context.Context, cls attendance.Class) (attendance.Class, error) {
	cls.ID = uuid.New().String()
	if _, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO class (id, name, level, teacher_id, created_at, updated_at, archived_at)
		VALUES (:id, :name, :level, :teacher_id, :created_at, :updated_at, :archived_at)`,
		marshalClass(cls),
	); err != nil {
		return attendance.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo *attendanceRepository) QueryClasses(ctx context.Context, includeArchived bool) ([]attendance.Class, error) {
	query := `SELECT * FROM class`
	if !includeArchived {
		query += " WHERE archived_at IS NULL"
	}
	query += " ORDER BY name"

	var rows []classRow
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]attendance.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.unmarshal())
	}
	return classes, nil
}

func (repo *attendanceRepository) GetClassByID(ctx context.Context, id string) (attendance.Class, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.Class{}, attendance.ErrClassNotFound
	}
	var row classRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM class WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Class{}, attendance.ErrClassNotFound
		}
		return attendance.Class{}, errors.Wrap(err, "getting class")
	}
	return row.unmarshal(), nil
}

func (repo *attendanceRepository) UpdateClass(ctx context.Context, cls attendance.Class) (attendance.Class, error) {
	if _, err := repo.db.NamedExecContext(ctx, `
		UPDATE class SET
			name = :name, level = :level, teacher_id = :teacher_id,
			updated_at = :updated_at, archived_at = :archived_at
		WHERE id = :id`,
		marshalClass(cls),
	); err != nil {
		return attendance.Class{}, errors.Wrap(err, "updating class")
	}
	return cls, nil
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	rec.ID = uuid.New().String()
	if _, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO attendance_record (id, class_id, student_id, date, status, remark, created_at, updated_at, deleted_at)
		VALUES (:id, :class_id, :student_id, :date, :status, :remark, :created_at, :updated_at, :deleted_at)`,
		marshalRecord(rec),
	); err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return attendance.Record{}, attendance.ErrRecordExists
		}
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return rec, nil
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, filter *attendance.QueryFilter) ([]attendance.Record, error) {
	query := `SELECT * FROM attendance_record`
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	includeDeleted := filter != nil && filter.IncludeDeleted
	if !includeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}
	if filter != nil {
		if filter.ClassID != "" {
			conds = append(conds, "class_id = "+arg(filter.ClassID))
		}
		if filter.StudentID != "" {
			conds = append(conds, "student_id = "+arg(filter.StudentID))
		}
		if filter.Status != "" {
			conds = append(conds, "status = "+arg(filter.Status))
		}
		if !filter.DateFrom.IsZero() {
			conds = append(conds, "date >= "+arg(filter.DateFrom.UTC()))
		}
		if !filter.DateTo.IsZero() {
			conds = append(conds, "date <= "+arg(filter.DateTo.UTC()))
		}
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date, created_at"

	var rows []recordRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.unmarshal())
	}
	return records, nil
}

func (repo *attendanceRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	var row recordRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM attendance_record WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting attendance record")
	}
	return row.unmarshal(), nil
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if _, err := repo.db.NamedExecContext(ctx, `
		UPDATE attendance_record SET
			status = :status, remark = :remark, updated_at = :updated_at, deleted_at = :deleted_at
		WHERE id = :id`,
		marshalRecord(rec),
	); err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating attendance record")
	}
	return rec, nil
}
