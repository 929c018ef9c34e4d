package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Role determines which routes a user may call
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleMember   Role = "member"
	RoleExternal Role = "external"
)

// User is a login account, optionally linked to a member.
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"column:username;unique;not null;size:50;index" json:"username"`
	Password  string    `gorm:"column:password;not null;size:100" json:"-"`
	Role      Role      `gorm:"column:role;type:varchar(20);not null;default:'member'" json:"role"`
	MemberID  *uint     `gorm:"column:member_id" json:"memberId,omitempty"`
	Member    *Member   `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate guard kept minimal: username length only, the rest is
// validated at the DTO layer.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if len(u.Username) < 3 || len(u.Username) > 50 {
		return errors.New("username must be between 3 and 50 characters")
	}
	return nil
}
