package rental

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/campuslock/lockerd/internal/dependencies/clock"
	"github.com/campuslock/lockerd/internal/dependencies/random"
	"github.com/campuslock/lockerd/internal/model"
	"github.com/campuslock/lockerd/internal/services/audit"
	"github.com/campuslock/lockerd/internal/services/waitlist"
	"github.com/campuslock/lockerd/internal/storage"
)

// Config holds configuration for the rental controller
type Config struct {
	// TotalLockers is the number of lockers provisioned at startup.
	// The fleet size is fixed for the life of the process.
	TotalLockers int
	// RentalDuration is how long a rental lasts before it is due
	RentalDuration time.Duration
	// OverduePenalty is the flat penalty charged when returning an
	// overdue locker
	OverduePenalty int
	// AccessCodeTTL is how long a generated access code stays valid
	AccessCodeTTL time.Duration
}

// DefaultConfig returns default rental configuration
func DefaultConfig() Config {
	return Config{
		TotalLockers:   20,
		RentalDuration: 2 * time.Minute,
		OverduePenalty: 20,
		AccessCodeTTL:  30 * time.Second,
	}
}

// Controller manages the locker rental lifecycle state machine
type Controller struct {
	storage  storage.Storage
	waitlist *waitlist.Service
	audit    *audit.Service
	clock    clock.Clock
	random   random.Random
	cfg      Config
	logger   *slog.Logger
}

// NewController creates a new rental controller
func NewController(
	storage storage.Storage,
	waitlistService *waitlist.Service,
	auditService *audit.Service,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	if cfg.TotalLockers == 0 {
		cfg = DefaultConfig()
	}
	return &Controller{
		storage:  storage,
		waitlist: waitlistService,
		audit:    auditService,
		clock:    clock,
		random:   random,
		cfg:      cfg,
		logger:   logger,
	}
}

// Provision creates lockers 1..TotalLockers that do not already exist.
// Existing lockers keep their persisted state across restarts.
func (c *Controller) Provision(ctx context.Context) error {
	for i := 1; i <= c.cfg.TotalLockers; i++ {
		id := model.LockerID(i)
		_, err := c.storage.GetLocker(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, model.ErrLockerNotFound) {
			return err
		}
		if err := c.storage.SaveLocker(ctx, model.NewLocker(id)); err != nil {
			return err
		}
	}

	c.logger.Info("lockers provisioned", slog.Int("total", c.cfg.TotalLockers))
	return nil
}

// GetLocker retrieves a locker by id
func (c *Controller) GetLocker(ctx context.Context, id model.LockerID) (*model.Locker, error) {
	return c.storage.GetLocker(ctx, id)
}

// ListLockers returns all lockers ordered by id
func (c *Controller) ListLockers(ctx context.Context) ([]*model.Locker, error) {
	return c.storage.ListLockers(ctx)
}

// Rent rents an available locker to a user. The due date is the rental
// start plus the configured rental duration.
func (c *Controller) Rent(ctx context.Context, actor model.AuditActor, lockerID model.LockerID, userID model.UserID) (*model.Locker, error) {
	locker, err := c.storage.GetLocker(ctx, lockerID)
	if err != nil {
		return nil, err
	}

	if locker.Status != model.LockerStatusAvailable {
		return nil, model.ErrLockerNotAvailable
	}

	now := c.clock.Now()
	locker.Status = model.LockerStatusRented
	locker.RentedBy = userID
	locker.RentalStart = now
	locker.DueDate = now.Add(c.cfg.RentalDuration)

	if err := c.storage.SaveLocker(ctx, locker); err != nil {
		return nil, err
	}

	if err := c.audit.Record(ctx, actor, model.AuditRentLocker, map[string]any{
		"locker_id":  int(lockerID),
		"student_id": string(userID),
	}); err != nil {
		return nil, err
	}

	return locker, nil
}

// Return returns a locker rented by the given user. The returned int is
// the penalty: the flat overdue penalty if the rental was overdue, zero
// otherwise.
func (c *Controller) Return(ctx context.Context, actor model.AuditActor, lockerID model.LockerID, userID model.UserID) (int, error) {
	locker, err := c.storage.GetLocker(ctx, lockerID)
	if err != nil {
		return 0, err
	}

	if !locker.IsOccupied() {
		return 0, model.ErrLockerNotRented
	}
	if locker.RentedBy != userID {
		return 0, model.ErrNotLockerOwner
	}

	return c.performReturn(ctx, actor, locker, model.AuditReturnLocker)
}

// ForceReturn returns a locker regardless of who rented it
// (administrative). Returning an unoccupied locker is a no-op with zero
// penalty.
func (c *Controller) ForceReturn(ctx context.Context, actor model.AuditActor, lockerID model.LockerID) (int, error) {
	locker, err := c.storage.GetLocker(ctx, lockerID)
	if err != nil {
		return 0, err
	}

	if !locker.IsOccupied() {
		return 0, nil
	}

	return c.performReturn(ctx, actor, locker, model.AuditForceReturnLocker)
}

// performReturn computes the penalty, resets the locker to its pristine
// state, records the audit entry and notifies the waitlist head if any.
func (c *Controller) performReturn(ctx context.Context, actor model.AuditActor, locker *model.Locker, action model.AuditAction) (int, error) {
	penalty := 0
	if locker.Status == model.LockerStatusOverdue {
		penalty = c.cfg.OverduePenalty
	}

	occupant := locker.RentedBy
	locker.Reset()

	if err := c.storage.SaveLocker(ctx, locker); err != nil {
		return 0, err
	}

	if err := c.audit.Record(ctx, actor, action, map[string]any{
		"locker_id":  int(locker.ID),
		"student_id": string(occupant),
		"penalty":    penalty,
	}); err != nil {
		return 0, err
	}

	// A locker just freed up: let the next person in line know.
	// Notification only; the locker is not reserved for them.
	if _, _, err := c.waitlist.NotifyNext(ctx); err != nil {
		return 0, err
	}

	return penalty, nil
}

// UpdateStatus overwrites a locker's status (administrative). Edits that
// would violate the occupancy invariants are rejected: an occupied locker
// must be force-returned before it can be made available or put into
// maintenance, and a locker cannot be marked rented or overdue by hand
// without an occupant already recorded.
func (c *Controller) UpdateStatus(ctx context.Context, actor model.AuditActor, lockerID model.LockerID, status model.LockerStatus) error {
	if !model.ValidLockerStatus(status) {
		return model.ErrInvalidStatusTransition
	}

	locker, err := c.storage.GetLocker(ctx, lockerID)
	if err != nil {
		return err
	}

	switch status {
	case model.LockerStatusAvailable, model.LockerStatusMaintenance:
		if locker.IsOccupied() {
			return model.ErrInvalidStatusTransition
		}
	case model.LockerStatusRented, model.LockerStatusOverdue:
		if !locker.IsOccupied() {
			return model.ErrInvalidStatusTransition
		}
	}

	previous := locker.Status
	if previous == status {
		return nil
	}
	locker.Status = status

	if err := c.storage.SaveLocker(ctx, locker); err != nil {
		return err
	}

	return c.audit.Record(ctx, actor, model.AuditUpdateLockerStatus, map[string]any{
		"locker_id": int(lockerID),
		"from":      string(previous),
		"to":        string(status),
	})
}

// GenerateAccessCode issues a 6-digit access code for a locker the user
// currently rents. The code is valid for the configured TTL and replaces
// any previous code.
func (c *Controller) GenerateAccessCode(ctx context.Context, actor model.AuditActor, lockerID model.LockerID, userID model.UserID) (string, error) {
	locker, err := c.storage.GetLocker(ctx, lockerID)
	if err != nil {
		return "", err
	}

	if !locker.IsOccupied() {
		return "", model.ErrLockerNotRented
	}
	if locker.RentedBy != userID {
		return "", model.ErrNotLockerOwner
	}

	now := c.clock.Now()
	code := fmt.Sprintf("%06d", 100000+c.random.Intn(900000))

	locker.AccessCode = code
	locker.AccessCodeExpiresAt = now.Add(c.cfg.AccessCodeTTL)
	locker.AccessEvents = append(locker.AccessEvents, model.AccessEvent{Timestamp: now})

	if err := c.storage.SaveLocker(ctx, locker); err != nil {
		return "", err
	}

	if err := c.audit.Record(ctx, actor, model.AuditGenerateAccessCode, map[string]any{
		"locker_id": int(lockerID),
	}); err != nil {
		return "", err
	}

	return code, nil
}

// VerifyAccessCode checks a code against the locker's current code and
// expiry
func (c *Controller) VerifyAccessCode(ctx context.Context, lockerID model.LockerID, code string) error {
	locker, err := c.storage.GetLocker(ctx, lockerID)
	if err != nil {
		return err
	}

	if locker.AccessCode == "" || locker.AccessCode != code {
		return model.ErrInvalidAccessCode
	}
	if c.clock.Now().After(locker.AccessCodeExpiresAt) {
		return model.ErrInvalidAccessCode
	}

	return nil
}

// SweepOverdue transitions every rented locker past its due date to
// overdue, recording one LOCKER_OVERDUE audit entry per transition.
// Already-overdue lockers are left untouched, so repeated sweeps are
// idempotent. Returns the number of lockers transitioned.
func (c *Controller) SweepOverdue(ctx context.Context) (int, error) {
	lockers, err := c.storage.ListLockers(ctx)
	if err != nil {
		return 0, err
	}

	now := c.clock.Now()
	marked := 0

	for _, locker := range lockers {
		if locker.Status != model.LockerStatusRented || locker.DueDate.After(now) {
			continue
		}

		locker.Status = model.LockerStatusOverdue
		if err := c.storage.SaveLocker(ctx, locker); err != nil {
			return marked, err
		}

		if err := c.audit.Record(ctx, model.SystemActor, model.AuditLockerOverdue, map[string]any{
			"locker_id":  int(locker.ID),
			"student_id": string(locker.RentedBy),
		}); err != nil {
			return marked, err
		}

		c.logger.Info("locker overdue",
			slog.Int("locker_id", int(locker.ID)),
			slog.String("student_id", string(locker.RentedBy)))
		marked++
	}

	return marked, nil
}
