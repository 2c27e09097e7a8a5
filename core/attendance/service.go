package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var (
	// errors
	ErrClassNotFound  = errors.New("class not found")
	ErrRecordNotFound = errors.New("attendance record not found")
	ErrRecordExists   = errors.New("an attendance record already exists for this student, class and date")
)

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		QueryClasses(ctx context.Context, includeArchived bool) ([]Class, error)
		GetClassByID(ctx context.Context, id string) (Class, error)
		UpdateClass(ctx context.Context, cls Class) (Class, error)

		CreateRecord(ctx context.Context, rec Record) (Record, error)
		QueryRecords(ctx context.Context, filter *QueryFilter) ([]Record, error)
		GetRecordByID(ctx context.Context, id string) (Record, error)
		UpdateRecord(ctx context.Context, rec Record) (Record, error)
	}

	Service interface {
		CreateClass(ctx context.Context, nc NewClass) (Class, error)
		QueryClasses(ctx context.Context, includeArchived bool) ([]Class, error)
		GetClassByID(ctx context.Context, id string) (Class, error)
		ArchiveClass(ctx context.Context, id string) (Class, error)
		RestoreClass(ctx context.Context, id string) (Class, error)

		CreateRecord(ctx context.Context, nr NewRecord) (Record, error)
		QueryRecords(ctx context.Context, filter *QueryFilter) ([]Record, error)
		GetRecordByID(ctx context.Context, id string) (Record, error)
		UpdateRecord(ctx context.Context, id string, ur UpdateRecord) (Record, error)
		DeleteRecord(ctx context.Context, id string) (Record, error)
		RestoreRecord(ctx context.Context, id string) (Record, error)
	}

	service struct {
		repo   Repository
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, logger core.Logger) Service {
	return &service{repo: repo, logger: logger}
}

func (svc *service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	cls := Class{
		Name:      nc.Name,
		Level:     nc.Level,
		TeacherID: nc.TeacherID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *service) QueryClasses(ctx context.Context, includeArchived bool) ([]Class, error) {
	return svc.repo.QueryClasses(ctx, includeArchived)
}

func (svc *service) GetClassByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClassByID(ctx, id)
}

func (svc *service) ArchiveClass(ctx context.Context, id string) (Class, error) {
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, err
	}
	if cls.IsArchived() {
		return cls, nil // idempotent
	}
	cls.ArchivedAt = time.Now().UTC()
	cls.UpdatedAt = cls.ArchivedAt
	return svc.repo.UpdateClass(ctx, cls)
}

func (svc *service) RestoreClass(ctx context.Context, id string) (Class, error) {
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, err
	}
	if !cls.IsArchived() {
		return cls, nil // idempotent
	}
	cls.ArchivedAt = time.Time{}
	cls.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(ctx, cls)
}

func (svc *service) CreateRecord(ctx context.Context, nr NewRecord) (Record, error) {
	if _, err := svc.repo.GetClassByID(ctx, nr.ClassID); err != nil {
		if errors.Cause(err) == ErrClassNotFound {
			return Record{}, core.NewValidationError(err, core.FieldError{Field: "class_id", Error: err.Error()})
		}
		return Record{}, errors.Wrap(err, "checking class")
	}

	date, err := time.ParseInLocation(dateLayout, nr.Date, time.UTC)
	if err != nil {
		// NewRecord.Validate guarantees the layout; repos never see raw input
		return Record{}, errors.Wrap(err, "parsing date")
	}

	now := time.Now().UTC()
	rec := Record{
		ClassID:   nr.ClassID,
		StudentID: nr.StudentID,
		Date:      date,
		Status:    nr.Status,
		Remark:    nr.Remark,
		CreatedAt: now,
		UpdatedAt: now,
	}
	rec, err = svc.repo.CreateRecord(ctx, rec)
	if errors.Cause(err) == ErrRecordExists {
		return Record{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: err.Error()})
	}
	return rec, err
}

func (svc *service) QueryRecords(ctx context.Context, filter *QueryFilter) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, filter)
}

func (svc *service) GetRecordByID(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetRecordByID(ctx, id)
}

func (svc *service) UpdateRecord(ctx context.Context, id string, ur UpdateRecord) (Record, error) {
	rec, err := svc.repo.GetRecordByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if ur.Status != "" {
		rec.Status = ur.Status
	}
	if ur.Remark != "" {
		rec.Remark = ur.Remark
	}
	rec.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateRecord(ctx, rec)
}

func (svc *service) DeleteRecord(ctx context.Context, id string) (Record, error) {
	rec, err := svc.repo.GetRecordByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.IsDeleted() {
		return rec, nil // idempotent
	}
	rec.DeletedAt = time.Now().UTC()
	rec.UpdatedAt = rec.DeletedAt
	return svc.repo.UpdateRecord(ctx, rec)
}

func (svc *service) RestoreRecord(ctx context.Context, id string) (Record, error) {
	rec, err := svc.repo.GetRecordByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !rec.IsDeleted() {
		return rec, nil // idempotent
	}
	rec.DeletedAt = time.Time{}
	rec.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateRecord(ctx, rec)
}
