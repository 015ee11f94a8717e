package model

import "time"

// LockerID identifies a locker. Lockers are numbered 1..N at provisioning
// and are never added or removed at runtime.
type LockerID int

// LockerStatus represents the current lifecycle state of a locker
type LockerStatus string

const (
	LockerStatusAvailable   LockerStatus = "available"
	LockerStatusRented      LockerStatus = "rented"
	LockerStatusOverdue     LockerStatus = "overdue"     // Past due date, marked by the sweep
	LockerStatusMaintenance LockerStatus = "maintenance" // Administrative hold, no occupant
)

// ValidLockerStatus reports whether s is one of the known statuses
func ValidLockerStatus(s LockerStatus) bool {
	switch s {
	case LockerStatusAvailable, LockerStatusRented, LockerStatusOverdue, LockerStatusMaintenance:
		return true
	}
	return false
}

// AccessEvent records a single access-code issuance for a locker
type AccessEvent struct {
	Timestamp time.Time
}

// Locker is a single rentable locker.
//
// Invariants (enforced by the rental controller):
//   - RentedBy and DueDate are set iff Status is rented or overdue
//   - maintenance implies no occupant and no due date
type Locker struct {
	ID     LockerID
	Status LockerStatus

	RentedBy    UserID
	RentalStart time.Time
	DueDate     time.Time

	AccessEvents []AccessEvent

	// Current access code and its expiry. The code is only meaningful
	// while the locker is occupied and the expiry has not passed.
	AccessCode          string
	AccessCodeExpiresAt time.Time
}

// NewLocker returns a freshly provisioned locker in its pristine state
func NewLocker(id LockerID) *Locker {
	return &Locker{
		ID:     id,
		Status: LockerStatusAvailable,
	}
}

// IsOccupied returns true if the locker has an active rental
func (l *Locker) IsOccupied() bool {
	return l.Status == LockerStatusRented || l.Status == LockerStatusOverdue
}

// Reset clears the locker back to its pristine provisioned state
func (l *Locker) Reset() {
	*l = *NewLocker(l.ID)
}
