package attendance

import (
	"time"

	"github.com/trezcool/mahudhurio/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusExcused = "excused"
)

var AllStatuses = []string{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

const dateLayout = "2006-01-02"

type Class struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Level      string    `json:"level"`
	TeacherID  string    `json:"teacher_id"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
	ArchivedAt time.Time `json:"-"`          // UTC; zero = live
}

func (c *Class) IsArchived() bool { return !c.ArchivedAt.IsZero() }

type Record struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	StudentID string    `json:"student_id"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
	Remark    string    `json:"remark"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
	DeletedAt time.Time `json:"-"`          // UTC; zero = live
}

func (r *Record) IsDeleted() bool { return !r.DeletedAt.IsZero() }

type NewClass struct {
	Name      string `json:"name" validate:"required"`
	Level     string `json:"level" validate:"omitempty"`
	TeacherID string `json:"teacher_id" validate:"omitempty,uuid4"`
}

func (nc *NewClass) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Level = core.CleanString(nc.Level)
	return core.Validate.Struct(nc)
}

type NewRecord struct {
	ClassID   string `json:"class_id" validate:"required,uuid4"`
	StudentID string `json:"student_id" validate:"required,uuid4"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Status    string `json:"status" validate:"required,attstatus"`
	Remark    string `json:"remark" validate:"omitempty,max=500"`
}

func (nr *NewRecord) Validate() error {
	nr.Date = core.CleanString(nr.Date)
	nr.Status = core.CleanString(nr.Status, true /* lower */)
	nr.Remark = core.CleanString(nr.Remark)
	return core.Validate.Struct(nr)
}

type UpdateRecord struct {
	Status string `json:"status" validate:"omitempty,attstatus"`
	Remark string `json:"remark" validate:"omitempty,max=500"`
}

func (ur *UpdateRecord) Validate() error {
	ur.Status = core.CleanString(ur.Status, true /* lower */)
	ur.Remark = core.CleanString(ur.Remark)
	return core.Validate.Struct(ur)
}

// QueryFilter applies AND operation on available fields.
type QueryFilter struct {
	ClassID        string    `query:"class_id"`
	StudentID      string    `query:"student_id"`
	Status         string    `query:"status"`
	DateFrom       time.Time `query:"date_from"`
	DateTo         time.Time `query:"date_to"`
	IncludeDeleted bool      `query:"include_deleted"`
}
