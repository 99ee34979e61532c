package balance

import (
	"time"

	"github.com/google/uuid"
)

// LeaveBalance holds the allotted and consumed day counters for one
// (user, leave type, year). The remaining count is always derived, never
// stored, so it cannot go stale.
type LeaveBalance struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_balance_user_type_year"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_balance_user_type_year"`
	Year        int       `gorm:"type:int;not null;uniqueIndex:uq_balance_user_type_year"`

	TotalDays int `gorm:"type:int;not null;default:0"`
	UsedDays  int `gorm:"type:int;not null;default:0"`

	// Joined for display reads, not a column.
	LeaveTypeName string `gorm:"->;-:migration" json:"-"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}

func (b LeaveBalance) RemainingDays() int {
	return b.TotalDays - b.UsedDays
}
