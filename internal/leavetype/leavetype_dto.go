package leavetype

type LeaveTypeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DaysPerYear int    `json:"days_per_year"`
}

func mapToResponse(t LeaveType) LeaveTypeResponse {
	return LeaveTypeResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		DaysPerYear: t.DaysPerYear,
	}
}

func mapToListResponse(types []LeaveType) []LeaveTypeResponse {
	resp := make([]LeaveTypeResponse, len(types))
	for i, t := range types {
		resp[i] = mapToResponse(t)
	}
	return resp
}
