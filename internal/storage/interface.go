package storage

import (
	"context"

	"github.com/campuslock/lockerd/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// User operations
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	DeleteUser(ctx context.Context, id model.UserID) error

	// Locker operations
	SaveLocker(ctx context.Context, locker *model.Locker) error
	GetLocker(ctx context.Context, id model.LockerID) (*model.Locker, error)
	ListLockers(ctx context.Context) ([]*model.Locker, error)

	// Waitlist operations (FIFO; the waitlist service handles dedup)
	AppendWaitlist(ctx context.Context, email string) error
	PopWaitlist(ctx context.Context) (string, bool, error)
	WaitlistContains(ctx context.Context, email string) (bool, error)
	GetWaitlist(ctx context.Context) ([]string, error)

	// Audit operations (append-only, listed newest-first)
	AppendAudit(ctx context.Context, entry *model.AuditEntry) error
	ListAudit(ctx context.Context) ([]*model.AuditEntry, error)
}
