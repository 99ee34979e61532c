package leavetype

import (
	"time"

	"github.com/google/uuid"
)

// LeaveType is an immutable catalog entry: seeded once at startup and
// read-only afterwards.
type LeaveType struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"type:varchar(50);not null;uniqueIndex:uq_leave_type_name"`
	Description string    `gorm:"type:text"`
	DaysPerYear int       `gorm:"type:int;not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveType) TableName() string {
	return "leave_types"
}
