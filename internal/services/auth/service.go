package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/campuslock/lockerd/internal/dependencies/clock"
	"github.com/campuslock/lockerd/internal/dependencies/random"
	"github.com/campuslock/lockerd/internal/model"
	"github.com/campuslock/lockerd/internal/services/audit"
	"github.com/campuslock/lockerd/internal/storage"
)

// Session tokens are url-safe by construction
const (
	tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenLength   = 24
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// Session represents an authenticated session. It carries the redacted
// user projection; the password hash never leaves the credential check.
type Session struct {
	Token     string
	UserID    model.UserID
	User      model.RedactedUser
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Service handles registration, login and session management
type Service struct {
	storage storage.Storage
	audit   *audit.Service
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
	adminEmails     map[string]bool
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
	// AdminEmails lists accounts that get the admin role at registration
	AdminEmails []string
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new auth service
func New(storage storage.Storage, auditService *audit.Service, clock clock.Clock, rand random.Random, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	adminEmails := make(map[string]bool, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		adminEmails[email] = true
	}
	return &Service{
		storage:         storage,
		audit:           auditService,
		clock:           clock,
		random:          rand,
		logger:          logger,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
		adminEmails:     adminEmails,
	}
}

// Register creates a new user account and logs it in
func (s *Service) Register(ctx context.Context, id model.UserID, name, email, password string) (*Session, error) {
	// Check email uniqueness
	_, err := s.storage.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, model.ErrDuplicateEmail
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	// Check student ID uniqueness
	_, err = s.storage.GetUser(ctx, id)
	if err == nil {
		return nil, model.ErrDuplicateID
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	// Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      s.adminEmails[email],
		CreatedAt:    s.clock.Now(),
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, model.AuditActor(email), model.AuditRegisterSuccess, map[string]any{
		"student_id": string(id),
	}); err != nil {
		return nil, err
	}

	// New accounts are logged in immediately
	return s.createSession(user)
}

// Login authenticates a user by email and password.
// Failures never reveal which field was wrong.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, s.failLogin(ctx, email)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, s.failLogin(ctx, email)
	}

	if err := s.audit.Record(ctx, model.AuditActor(email), model.AuditLoginSuccess, nil); err != nil {
		return nil, err
	}

	return s.createSession(user)
}

// failLogin records the failed attempt keyed by the attempted email
func (s *Service) failLogin(ctx context.Context, email string) error {
	if err := s.audit.Record(ctx, model.AuditActor(email), model.AuditLoginFail, nil); err != nil {
		return err
	}
	return ErrInvalidCredentials
}

// Logout ends the session for the given token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil
	}

	if err := s.audit.Record(ctx, model.AuditActor(session.User.Email), model.AuditLogout, nil); err != nil {
		return err
	}

	s.InvalidateSession(token)
	return nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// ListUsers returns redacted projections of all registered users
func (s *Service) ListUsers(ctx context.Context) ([]model.RedactedUser, error) {
	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]model.RedactedUser, len(users))
	for i, u := range users {
		result[i] = u.Redacted()
	}
	return result, nil
}

// RemoveUser deletes a user account (administrative). Any sessions for the
// user are invalidated.
func (s *Service) RemoveUser(ctx context.Context, actor model.AuditActor, id model.UserID) error {
	user, err := s.storage.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteUser(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	for token, session := range s.sessions {
		if session.UserID == id {
			delete(s.sessions, token)
		}
	}
	s.mu.Unlock()

	return s.audit.Record(ctx, actor, model.AuditRemoveUser, map[string]any{
		"student_id": string(id),
		"email":      user.Email,
	})
}

// createSession creates a new session for a user
func (s *Service) createSession(user *model.User) (*Session, error) {
	token := "sess_" + s.random.String(tokenLength, tokenAlphabet)
	now := s.clock.Now()

	session := &Session{
		Token:     token,
		UserID:    user.ID,
		User:      user.Redacted(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	return session, nil
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}
