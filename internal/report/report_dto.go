package report

// SummaryRow is one (user, leave type) cell of the summary report. The
// cross join means every pair appears even with zero requests; counters are
// zero-filled by the query.
type SummaryRow struct {
	UserID         string `gorm:"column:user_id" json:"user_id"`
	UserName       string `gorm:"column:user_name" json:"user_name"`
	UserEmail      string `gorm:"column:user_email" json:"user_email"`
	LeaveType      string `gorm:"column:leave_type" json:"leave_type"`
	ApprovedCount  int    `gorm:"column:approved_count" json:"approved_count"`
	RejectedCount  int    `gorm:"column:rejected_count" json:"rejected_count"`
	PendingCount   int    `gorm:"column:pending_count" json:"pending_count"`
	TotalDaysTaken int    `gorm:"column:total_days_taken" json:"total_days_taken"`
	TotalDays      int    `gorm:"column:total_days" json:"total_days"`
	UsedDays       int    `gorm:"column:used_days" json:"used_days"`
	RemainingDays  int    `gorm:"column:remaining_days" json:"remaining_days"`
}

// StatsRow aggregates one leave type across all users for a year.
type StatsRow struct {
	LeaveType      string `gorm:"column:leave_type" json:"leave_type"`
	EmployeesUsed  int    `gorm:"column:employees_used" json:"employees_used"`
	TotalDaysTaken int    `gorm:"column:total_days_taken" json:"total_days_taken"`
	PendingCount   int    `gorm:"column:pending_count" json:"pending_count"`
	ApprovedCount  int    `gorm:"column:approved_count" json:"approved_count"`
	RejectedCount  int    `gorm:"column:rejected_count" json:"rejected_count"`
}

// SummaryFilter narrows the summary to one user and/or one calendar month
// of the request start date.
type SummaryFilter struct {
	Year   int
	UserID string
	Month  int
}
