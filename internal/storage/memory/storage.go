package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/campuslock/lockerd/internal/model"
	"github.com/campuslock/lockerd/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
//
// Reads return copies of the stored records, never pointers into the maps.
// Callers mutate their copy and persist it with SaveUser/SaveLocker, so
// concurrent readers (the overdue sweeper in particular) never share memory
// with a writer once the storage lock is released.
type Storage struct {
	mu sync.RWMutex

	users      map[model.UserID]*model.User
	emailIndex map[string]model.UserID
	lockers    map[model.LockerID]*model.Locker
	waitlist   []string
	auditLog   []*model.AuditEntry // newest first
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:      make(map[model.UserID]*model.User),
		emailIndex: make(map[string]model.UserID),
		lockers:    make(map[model.LockerID]*model.Locker),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func copyUser(u *model.User) *model.User {
	c := *u
	return &c
}

func copyLocker(l *model.Locker) *model.Locker {
	c := *l
	if l.AccessEvents != nil {
		c.AccessEvents = make([]model.AccessEvent, len(l.AccessEvents))
		copy(c.AccessEvents, l.AccessEvents)
	}
	return &c
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = copyUser(user)
	s.emailIndex[user.Email] = user.ID
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return copyUser(user), nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return copyUser(user), nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		delete(s.emailIndex, user.Email)
	}
	delete(s.users, id)
	return nil
}

// Locker operations

func (s *Storage) SaveLocker(ctx context.Context, locker *model.Locker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockers[locker.ID] = copyLocker(locker)
	return nil
}

func (s *Storage) GetLocker(ctx context.Context, id model.LockerID) (*model.Locker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	locker, ok := s.lockers[id]
	if !ok {
		return nil, model.ErrLockerNotFound
	}
	return copyLocker(locker), nil
}

func (s *Storage) ListLockers(ctx context.Context) ([]*model.Locker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lockers := make([]*model.Locker, 0, len(s.lockers))
	for _, l := range s.lockers {
		lockers = append(lockers, copyLocker(l))
	}
	sort.Slice(lockers, func(i, j int) bool { return lockers[i].ID < lockers[j].ID })
	return lockers, nil
}

// Waitlist operations

func (s *Storage) AppendWaitlist(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waitlist = append(s.waitlist, email)
	return nil
}

func (s *Storage) PopWaitlist(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.waitlist) == 0 {
		return "", false, nil
	}
	head := s.waitlist[0]
	s.waitlist = s.waitlist[1:]
	return head, true, nil
}

func (s *Storage) WaitlistContains(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.waitlist {
		if e == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *Storage) GetWaitlist(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]string, len(s.waitlist))
	copy(result, s.waitlist)
	return result, nil
}

// Audit operations

func (s *Storage) AppendAudit(ctx context.Context, entry *model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLog = append([]*model.AuditEntry{entry}, s.auditLog...)
	return nil
}

func (s *Storage) ListAudit(ctx context.Context) ([]*model.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.AuditEntry, len(s.auditLog))
	copy(result, s.auditLog)
	return result, nil
}
