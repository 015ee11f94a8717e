package model

import "time"

// UserID is the student identifier chosen at registration
type UserID string

// User is a registered account. PasswordHash must never leave the
// credential check path; use Redacted() everywhere else.
type User struct {
	ID           UserID
	Name         string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// RedactedUser is the projection of a User safe to hand to callers
type RedactedUser struct {
	ID        UserID
	Name      string
	Email     string
	IsAdmin   bool
	CreatedAt time.Time
}

// Redacted returns the user with the password hash stripped
func (u *User) Redacted() RedactedUser {
	return RedactedUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}
