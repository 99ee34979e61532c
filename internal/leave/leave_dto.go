package leave

import "time"

type CreateLeaveRequest struct {
	LeaveTypeID string `json:"leave_type_id" binding:"required,uuid"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	Reason      string `json:"reason"`
}

type RejectLeaveRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListQuery carries the optional filters shared by the own-requests and
// admin listings.
type ListQuery struct {
	Status   string
	Year     int
	UserID   string
	Page     int
	PageSize int
}

type LeaveRequestResponse struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	UserName        string  `json:"user_name,omitempty"`
	UserEmail       string  `json:"user_email,omitempty"`
	LeaveTypeID     string  `json:"leave_type_id"`
	LeaveTypeName   string  `json:"leave_type_name,omitempty"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	DaysCount       int     `json:"days_count"`
	Reason          string  `json:"reason,omitempty"`
	Status          string  `json:"status"`
	ApprovedBy      *string `json:"approved_by,omitempty"`
	ApprovedByName  string  `json:"approved_by_name,omitempty"`
	ApprovedAt      *string `json:"approved_at,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

func mapToResponse(lr LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:             lr.ID.String(),
		UserID:         lr.UserID.String(),
		UserName:       lr.UserName,
		UserEmail:      lr.UserEmail,
		LeaveTypeID:    lr.LeaveTypeID.String(),
		LeaveTypeName:  lr.LeaveTypeName,
		StartDate:      lr.StartDate.Format("2006-01-02"),
		EndDate:        lr.EndDate.Format("2006-01-02"),
		DaysCount:      lr.DaysCount,
		Reason:         lr.Reason,
		Status:         lr.Status,
		ApprovedByName: lr.ApproverName,
		CreatedAt:      lr.CreatedAt.Format(time.RFC3339),
	}
	if lr.ApprovedBy != nil {
		v := lr.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if lr.ApprovedAt != nil {
		v := lr.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	resp.RejectionReason = lr.RejectionReason
	return resp
}

func mapToListResponse(requests []LeaveRequest) []LeaveRequestResponse {
	resp := make([]LeaveRequestResponse, len(requests))
	for i, lr := range requests {
		resp[i] = mapToResponse(lr)
	}
	return resp
}
