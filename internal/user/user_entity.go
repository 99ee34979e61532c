package user

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User mirrors what the identity provider told us about a person, plus the
// locally-managed role. ExternalID is the SSO subject and the upsert key.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ExternalID  string    `gorm:"type:varchar(100);not null;uniqueIndex:uq_users_external_id"`
	Email       string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_users_email"`
	DisplayName string    `gorm:"type:varchar(200);not null"`
	FirstName   string    `gorm:"type:varchar(100)"`
	LastName    string    `gorm:"type:varchar(100)"`
	Role        string    `gorm:"type:varchar(20);not null;default:'USER'"`
	LastLoginAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string {
	return "users"
}
