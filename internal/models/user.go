package models

import "time"

// UserRole represents the available portal roles.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// Valid reports whether the role is known.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleTeacher || r == RoleStudent
}

// User is a login credential. Passwords are stored and compared as plain text.
type User struct {
	ID       string   `json:"id"`
	Password string   `json:"password"`
	Role     UserRole `json:"role"`
	Name     string   `json:"name"`
}

// Session is the logged-in user persisted under the currentUser key.
type Session struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Role      UserRole  `json:"role"`
	LoginTime time.Time `json:"loginTime"`
}
