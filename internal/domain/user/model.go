package user

import (
	"time"

	"victim-aid-go/internal/domain/access"
)

type User struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Username     string      `gorm:"size:150;not null;uniqueIndex" json:"username"`
	Email        string      `gorm:"size:254;not null" json:"email"`
	FirstName    string      `gorm:"size:150;not null" json:"first_name"`
	LastName     string      `gorm:"size:150;not null" json:"last_name"`
	Role         access.Role `gorm:"type:varchar(20);not null" json:"role"`
	PasswordHash string      `gorm:"size:100;not null" json:"-"`
	IsActive     bool        `gorm:"not null" json:"is_active"`
	LastLoginAt  *time.Time  `json:"last_login_at"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u User) Actor() access.Actor {
	return access.Actor{UserID: u.ID, Role: u.Role}
}

type ListFilter struct {
	Search string
	Role   *access.Role
	Active *bool
	Limit  int
	Offset int
}

type CreateInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Role      string
	Password  string
}
