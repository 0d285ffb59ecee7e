package models

import "time"

// User account types as stored. Privilege is derived from the pair
// (Type, Approved), not from Type alone: an unapproved admin has no
// more capability than an anonymous visitor.
const (
	UserTypeRegular = "user"
	UserTypeAdmin   = "admin"
)

// User represents an account in the users collection.
type User struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name       string    `json:"name" gorm:"type:varchar(100)" validate:"required,min=2,max=100"`
	Email      string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	WhatsApp   string    `json:"whatsapp" gorm:"type:varchar(20)"`
	Password   string    `json:"-" gorm:"type:varchar(255)"`
	Type       string    `json:"type" gorm:"type:varchar(10);default:user"`
	Approved   bool      `json:"approved"`
	SuperAdmin bool      `json:"superAdmin"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// IsPendingAdmin reports whether the account is an admin awaiting approval.
func (u *User) IsPendingAdmin() bool {
	return u.Type == UserTypeAdmin && !u.Approved
}
