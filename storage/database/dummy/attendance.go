package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTables
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) CreateClass(_ context.Context, cls attendance.Class) (attendance.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls.ID = uuid.New().String()
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *attendanceRepository) QueryClasses(_ context.Context, includeArchived bool) ([]attendance.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classes := make([]attendance.Class, 0, len(repo.db.classes))
	for _, cls := range repo.db.classes {
		if !includeArchived && cls.IsArchived() {
			continue
		}
		classes = append(classes, *cls)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *attendanceRepository) GetClassByID(_ context.Context, id string) (attendance.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return *cls, nil
	}
	return attendance.Class{}, attendance.ErrClassNotFound
}

func (repo *attendanceRepository) UpdateClass(_ context.Context, cls attendance.Class) (attendance.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.classes[cls.ID]; !ok {
		return attendance.Class{}, attendance.ErrClassNotFound
	}
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *attendanceRepository) CreateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, r := range repo.db.records {
		if r.ClassID == rec.ClassID && r.StudentID == rec.StudentID && r.Date.Equal(rec.Date) {
			return attendance.Record{}, attendance.ErrRecordExists
		}
	}

	rec.ID = uuid.New().String()
	repo.db.records[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter *attendance.QueryFilter) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	includeDeleted := filter != nil && filter.IncludeDeleted

	records := make([]attendance.Record, 0, len(repo.db.records))
	for _, rec := range repo.db.records {
		if rec.IsDeleted() && !includeDeleted {
			continue
		}
		if filter != nil {
			if filter.ClassID != "" && rec.ClassID != filter.ClassID {
				continue
			}
			if filter.StudentID != "" && rec.StudentID != filter.StudentID {
				continue
			}
			if filter.Status != "" && rec.Status != filter.Status {
				continue
			}
			if !filter.DateFrom.IsZero() && rec.Date.Before(filter.DateFrom) {
				continue
			}
			if !filter.DateTo.IsZero() && rec.Date.After(filter.DateTo) {
				continue
			}
		}
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

func (repo *attendanceRepository) GetRecordByID(_ context.Context, id string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.records[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (repo *attendanceRepository) UpdateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.records[rec.ID]; !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	repo.db.records[rec.ID] = &rec
	return rec, nil
}
