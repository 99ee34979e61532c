package user

import "time"

// Identity carries the claims we trust from the authentication middleware.
type Identity struct {
	ExternalID  string `json:"external_id" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"display_name" binding:"required"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type UserResponse struct {
	ID          string     `json:"id"`
	ExternalID  string     `json:"external_id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	Role        string     `json:"role"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func mapToResponse(u *User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		ExternalID:  u.ExternalID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func mapToListResponse(users []User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, mapToResponse(&users[i]))
	}
	return out
}
