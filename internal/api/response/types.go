package response

import (
	"time"

	"github.com/campuslock/lockerd/internal/model"
	"github.com/campuslock/lockerd/internal/services/auth"
)

// User represents a user in API responses (never includes the password
// hash)
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// UserFromModel converts a redacted user to a response User
func UserFromModel(u model.RedactedUser) User {
	return User{
		ID:      string(u.ID),
		Name:    u.Name,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		User:         UserFromModel(s.User),
		SessionToken: s.Token,
	}
}

// Locker represents a locker in API responses. The current access code is
// deliberately omitted; it is only returned by the generate endpoint.
type Locker struct {
	ID           int         `json:"id"`
	Status       string      `json:"status"`
	RentedBy     *string     `json:"rented_by"`
	RentalStart  *time.Time  `json:"rental_start"`
	DueDate      *time.Time  `json:"due_date"`
	AccessEvents []time.Time `json:"access_events,omitempty"`
}

// LockerFromModel converts a model.Locker to a response Locker
func LockerFromModel(l *model.Locker) Locker {
	var rentedBy *string
	if l.RentedBy != "" {
		r := string(l.RentedBy)
		rentedBy = &r
	}

	var rentalStart, dueDate *time.Time
	if !l.RentalStart.IsZero() {
		t := l.RentalStart
		rentalStart = &t
	}
	if !l.DueDate.IsZero() {
		t := l.DueDate
		dueDate = &t
	}

	var events []time.Time
	for _, e := range l.AccessEvents {
		events = append(events, e.Timestamp)
	}

	return Locker{
		ID:           int(l.ID),
		Status:       string(l.Status),
		RentedBy:     rentedBy,
		RentalStart:  rentalStart,
		DueDate:      dueDate,
		AccessEvents: events,
	}
}

// LockerList is the response for listing lockers
type LockerList struct {
	Lockers []Locker `json:"lockers"`
}

// LockerListFromModel converts a slice of lockers
func LockerListFromModel(lockers []*model.Locker) LockerList {
	result := make([]Locker, len(lockers))
	for i, l := range lockers {
		result[i] = LockerFromModel(l)
	}
	return LockerList{Lockers: result}
}

// ReturnResponse is the response after returning a locker
type ReturnResponse struct {
	Penalty int `json:"penalty"`
}

// AccessCodeResponse is the response after generating an access code
type AccessCodeResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Waitlist is the response for listing the waitlist
type Waitlist struct {
	Entries []string `json:"entries"`
}

// AuditEntry represents an audit log entry in API responses
type AuditEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details"`
}

// AuditEntryFromModel converts a model.AuditEntry
func AuditEntryFromModel(e *model.AuditEntry) AuditEntry {
	return AuditEntry{
		Timestamp: e.Timestamp,
		Actor:     string(e.Actor),
		Action:    string(e.Action),
		Details:   e.Details,
	}
}

// AuditLog is the response for listing the audit log
type AuditLog struct {
	Entries []AuditEntry `json:"entries"`
}

// AuditLogFromModel converts a slice of audit entries
func AuditLogFromModel(entries []*model.AuditEntry) AuditLog {
	result := make([]AuditEntry, len(entries))
	for i, e := range entries {
		result[i] = AuditEntryFromModel(e)
	}
	return AuditLog{Entries: result}
}

// UserList is the response for listing users (administrative)
type UserList struct {
	Users []User `json:"users"`
}

// UserListFromModel converts a slice of redacted users
func UserListFromModel(users []model.RedactedUser) UserList {
	result := make([]User, len(users))
	for i, u := range users {
		result[i] = UserFromModel(u)
	}
	return UserList{Users: result}
}
