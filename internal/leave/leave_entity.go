package leave

import (
	"time"

	"github.com/google/uuid"
)

// LeaveRequest is one time-off application. Rows are never deleted; the
// status column is the full history marker (REJECTED and CANCELLED stay
// around permanently).
type LeaveRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_user_created"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_type"`

	StartDate time.Time `gorm:"type:date;not null;index:idx_leave_requests_start"`
	EndDate   time.Time `gorm:"type:date;not null"`
	DaysCount int       `gorm:"type:int;not null;default:1"`
	Reason    string    `gorm:"type:text"`

	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leave_requests_status"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	RejectionReason *string `gorm:"type:text"`

	// Display fields joined on read, never persisted.
	UserName      string `gorm:"->;-:migration" json:"-"`
	UserEmail     string `gorm:"->;-:migration" json:"-"`
	LeaveTypeName string `gorm:"->;-:migration" json:"-"`
	ApproverName  string `gorm:"->;-:migration" json:"-"`

	CreatedAt time.Time `gorm:"index:idx_leave_requests_user_created"`
	UpdatedAt time.Time
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}
