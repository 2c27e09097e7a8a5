package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	dummydb "github.com/trezcool/mahudhurio/storage/database/dummy"
	testutil "github.com/trezcool/mahudhurio/tests"
)

func newService(t *testing.T) attendance.Service {
	t.Helper()

	conf := testutil.NewConfig()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	return attendance.NewService(dummydb.NewAttendanceRepository(db), testutil.NewLogger(conf))
}

func createClass(t *testing.T, svc attendance.Service, name string) attendance.Class {
	t.Helper()

	cls, err := svc.CreateClass(context.Background(), attendance.NewClass{Name: name, Level: "P1"})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}

func createRecord(t *testing.T, svc attendance.Service, classID, studentID, date, status string) attendance.Record {
	t.Helper()

	rec, err := svc.CreateRecord(context.Background(), attendance.NewRecord{
		ClassID:   classID,
		StudentID: studentID,
		Date:      date,
		Status:    status,
	})
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	return rec
}

func TestService_classes(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	cls := createClass(t, svc, "Histoire")
	if cls.ID == "" || cls.IsArchived() {
		t.Fatalf("CreateClass() = %+v", cls)
	}

	t.Run("get by ID", func(t *testing.T) {
		got, err := svc.GetClassByID(ctx, cls.ID)
		if err != nil {
			t.Fatalf("GetClassByID() failed: %v", err)
		}
		if got.Name != "Histoire" {
			t.Errorf("GetClassByID() = %+v", got)
		}
	})

	t.Run("unknown ID", func(t *testing.T) {
		if _, err := svc.GetClassByID(ctx, "b7f9c8a1-0000-0000-0000-000000000001"); errors.Cause(err) != attendance.ErrClassNotFound {
			t.Errorf("GetClassByID() error = %v, want ErrClassNotFound", err)
		}
	})

	t.Run("archive hides from queries", func(t *testing.T) {
		other := createClass(t, svc, "Chimie")

		archived, err := svc.ArchiveClass(ctx, other.ID)
		if err != nil {
			t.Fatalf("ArchiveClass() failed: %v", err)
		}
		if !archived.IsArchived() {
			t.Fatalf("ArchiveClass() = %+v", archived)
		}
		// idempotent
		again, err := svc.ArchiveClass(ctx, other.ID)
		if err != nil {
			t.Fatalf("ArchiveClass() twice failed: %v", err)
		}
		if !again.ArchivedAt.Equal(archived.ArchivedAt) {
			t.Errorf("ArchiveClass() twice moved the timestamp")
		}

		live, err := svc.QueryClasses(ctx, false)
		if err != nil {
			t.Fatalf("QueryClasses() failed: %v", err)
		}
		assert.Equal(t, []string{"Histoire"}, classNames(live))

		all, err := svc.QueryClasses(ctx, true)
		if err != nil {
			t.Fatalf("QueryClasses() failed: %v", err)
		}
		assert.Equal(t, []string{"Chimie", "Histoire"}, classNames(all))

		restored, err := svc.RestoreClass(ctx, other.ID)
		if err != nil {
			t.Fatalf("RestoreClass() failed: %v", err)
		}
		if restored.IsArchived() {
			t.Errorf("RestoreClass() = %+v", restored)
		}
	})
}

func classNames(classes []attendance.Class) []string {
	names := make([]string, 0, len(classes))
	for _, cls := range classes {
		names = append(names, cls.Name)
	}
	return names
}

func TestService_records(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	cls := createClass(t, svc, "Histoire")
	studentID := "d0e1f2a3-0000-0000-0000-000000000001"

	rec := createRecord(t, svc, cls.ID, studentID, "2021-06-01", attendance.StatusPresent)
	if want := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC); !rec.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", rec.Date, want)
	}

	t.Run("unknown class is a validation error", func(t *testing.T) {
		_, err := svc.CreateRecord(ctx, attendance.NewRecord{
			ClassID:   "b7f9c8a1-0000-0000-0000-000000000001",
			StudentID: studentID,
			Date:      "2021-06-01",
			Status:    attendance.StatusPresent,
		})
		if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
			t.Errorf("CreateRecord() error = %v, want ValidationError", err)
		}
	})

	t.Run("duplicate (class, student, date) is a validation error", func(t *testing.T) {
		_, err := svc.CreateRecord(ctx, attendance.NewRecord{
			ClassID:   cls.ID,
			StudentID: studentID,
			Date:      "2021-06-01",
			Status:    attendance.StatusLate,
		})
		if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
			t.Errorf("CreateRecord() error = %v, want ValidationError", err)
		}
	})

	t.Run("update merges provided fields", func(t *testing.T) {
		got, err := svc.UpdateRecord(ctx, rec.ID, attendance.UpdateRecord{Status: attendance.StatusExcused, Remark: "sick"})
		if err != nil {
			t.Fatalf("UpdateRecord() failed: %v", err)
		}
		if got.Status != attendance.StatusExcused || got.Remark != "sick" {
			t.Errorf("UpdateRecord() = %+v", got)
		}
		if got.StudentID != studentID || !got.Date.Equal(rec.Date) {
			t.Errorf("UpdateRecord() touched immutable fields: %+v", got)
		}
	})

	t.Run("filtered queries", func(t *testing.T) {
		createRecord(t, svc, cls.ID, studentID, "2021-06-02", attendance.StatusAbsent)

		recs, err := svc.QueryRecords(ctx, &attendance.QueryFilter{Status: attendance.StatusAbsent})
		if err != nil {
			t.Fatalf("QueryRecords() failed: %v", err)
		}
		if len(recs) != 1 || recs[0].Status != attendance.StatusAbsent {
			t.Errorf("QueryRecords(status) = %+v", recs)
		}

		recs, err = svc.QueryRecords(ctx, &attendance.QueryFilter{
			ClassID:  cls.ID,
			DateFrom: time.Date(2021, 6, 2, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("QueryRecords() failed: %v", err)
		}
		if len(recs) != 1 || !recs[0].Date.Equal(time.Date(2021, 6, 2, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("QueryRecords(date_from) = %+v", recs)
		}
	})

	t.Run("soft delete and restore", func(t *testing.T) {
		deleted, err := svc.DeleteRecord(ctx, rec.ID)
		if err != nil {
			t.Fatalf("DeleteRecord() failed: %v", err)
		}
		if !deleted.IsDeleted() {
			t.Fatalf("DeleteRecord() = %+v", deleted)
		}
		// idempotent
		if again, err := svc.DeleteRecord(ctx, rec.ID); err != nil || !again.DeletedAt.Equal(deleted.DeletedAt) {
			t.Errorf("DeleteRecord() twice = (%+v, %v)", again, err)
		}

		recs, err := svc.QueryRecords(ctx, nil)
		if err != nil {
			t.Fatalf("QueryRecords() failed: %v", err)
		}
		for _, r := range recs {
			if r.ID == rec.ID {
				t.Errorf("deleted record still listed: %+v", r)
			}
		}

		recs, err = svc.QueryRecords(ctx, &attendance.QueryFilter{IncludeDeleted: true})
		if err != nil {
			t.Fatalf("QueryRecords() failed: %v", err)
		}
		var found bool
		for _, r := range recs {
			found = found || r.ID == rec.ID
		}
		if !found {
			t.Error("deleted record missing from include_deleted query")
		}

		restored, err := svc.RestoreRecord(ctx, rec.ID)
		if err != nil {
			t.Fatalf("RestoreRecord() failed: %v", err)
		}
		if restored.IsDeleted() {
			t.Errorf("RestoreRecord() = %+v", restored)
		}
	})
}
