package balance

type BalanceResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	LeaveTypeID   string `json:"leave_type_id"`
	LeaveTypeName string `json:"leave_type_name"`
	Year          int    `json:"year"`
	TotalDays     int    `json:"total_days"`
	UsedDays      int    `json:"used_days"`
	RemainingDays int    `json:"remaining_days"`
}

func mapToResponse(b LeaveBalance) BalanceResponse {
	return BalanceResponse{
		ID:            b.ID.String(),
		UserID:        b.UserID.String(),
		LeaveTypeID:   b.LeaveTypeID.String(),
		LeaveTypeName: b.LeaveTypeName,
		Year:          b.Year,
		TotalDays:     b.TotalDays,
		UsedDays:      b.UsedDays,
		RemainingDays: b.RemainingDays(),
	}
}

func mapToListResponse(balances []LeaveBalance) []BalanceResponse {
	resp := make([]BalanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = mapToResponse(b)
	}
	return resp
}
