package waitlist

import (
	"context"
	"log/slog"

	"github.com/campuslock/lockerd/internal/model"
	"github.com/campuslock/lockerd/internal/services/audit"
	"github.com/campuslock/lockerd/internal/storage"
)

// Service manages the FIFO waitlist. Entries are identified by email and
// deduplicated on insert.
type Service struct {
	storage storage.Storage
	audit   *audit.Service
	logger  *slog.Logger
}

// New creates a new waitlist service
func New(storage storage.Storage, audit *audit.Service, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		audit:   audit,
		logger:  logger,
	}
}

// Join appends an email to the waitlist tail. Joining twice is a no-op.
func (s *Service) Join(ctx context.Context, email string) error {
	present, err := s.storage.WaitlistContains(ctx, email)
	if err != nil {
		return err
	}
	if present {
		return nil
	}

	if err := s.storage.AppendWaitlist(ctx, email); err != nil {
		return err
	}

	return s.audit.Record(ctx, model.AuditActor(email), model.AuditJoinWaitlist, nil)
}

// NotifyNext pops the head entry and records that it was notified.
// It does not reserve or assign a locker. Returns false if the waitlist
// was empty.
func (s *Service) NotifyNext(ctx context.Context) (string, bool, error) {
	email, ok, err := s.storage.PopWaitlist(ctx)
	if err != nil || !ok {
		return "", false, err
	}

	s.logger.Info("notifying waitlist head", slog.String("email", email))

	if err := s.audit.Record(ctx, model.SystemActor, model.AuditNotifyWaitlist, map[string]any{
		"notified_email": email,
	}); err != nil {
		return "", false, err
	}

	return email, true, nil
}

// List returns the current waitlist in FIFO order
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.storage.GetWaitlist(ctx)
}
