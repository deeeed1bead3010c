package model

import "strings"

// Role is the closed set of account roles.  Authorization code switches
// on these values; any other string read from storage is treated as an
// ordinary user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a stored role string onto the enumeration.  Comparison
// is case-insensitive and unknown values fall back to RoleUser.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// User represents an application account as stored in the `users` table
// and in the `users` array of the JSON document store.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name, stored as typed (trimmed).
//  PasswordHash – bcrypt hash of the password.
//  Role         – user or admin.  Changed only by direct admin action.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`                   // users.id
	Username     string `gorm:"size:191;uniqueIndex;not null" json:"username"`        // users.username
	PasswordHash string `gorm:"column:password;size:255;not null" json:"password"`    // users.password
	Role         Role   `gorm:"type:varchar(16);not null;default:'user'" json:"role"` // users.role
}

// TableName pins the table name used by the SQL store.
func (User) TableName() string { return "users" }

// IsAdmin reports whether the account carries the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
