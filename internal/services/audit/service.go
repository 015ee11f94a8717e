package audit

import (
	"context"
	"log/slog"

	"github.com/campuslock/lockerd/internal/dependencies/clock"
	"github.com/campuslock/lockerd/internal/model"
	"github.com/campuslock/lockerd/internal/storage"
)

// Service records and lists audit log entries. Entries are append-only
// and listed newest-first.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new audit service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
	}
}

// Record appends an audit entry stamped with the current time
func (s *Service) Record(ctx context.Context, actor model.AuditActor, action model.AuditAction, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}

	entry := &model.AuditEntry{
		Timestamp: s.clock.Now(),
		Actor:     actor,
		Action:    action,
		Details:   details,
	}

	if err := s.storage.AppendAudit(ctx, entry); err != nil {
		s.logger.Error("failed to append audit entry",
			slog.String("action", string(action)),
			slog.String("error", err.Error()))
		return err
	}

	return nil
}

// List returns all audit entries, newest first
func (s *Service) List(ctx context.Context) ([]*model.AuditEntry, error) {
	return s.storage.ListAudit(ctx)
}
