package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campuslock/lockerd/internal/model"
	"github.com/campuslock/lockerd/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index updates
	pipe := s.client.Pipeline()
	pipe.Set(ctx, userKey(user.ID), data, 0)
	pipe.Set(ctx, emailIndexKey(user.Email), string(user.ID), 0)
	pipe.SAdd(ctx, usersIndexKey(), string(user.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	// Look up user ID from email index
	userIDStr, err := s.client.Get(ctx, emailIndexKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	return s.GetUser(ctx, model.UserID(userIDStr))
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	ids, err := s.client.SMembers(ctx, usersIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []*model.User{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(model.UserID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	users := make([]*model.User, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // User may have been removed
		}
		var user model.User
		if err := json.Unmarshal([]byte(val.(string)), &user); err != nil {
			continue // Skip invalid data
		}
		users = append(users, &user)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id model.UserID) error {
	// Fetch first so the email index can be cleaned up
	user, err := s.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, userKey(id))
	pipe.Del(ctx, emailIndexKey(user.Email))
	pipe.SRem(ctx, usersIndexKey(), string(id))
	_, err = pipe.Exec(ctx)
	return err
}

// Locker operations

func (s *Storage) SaveLocker(ctx context.Context, locker *model.Locker) error {
	data, err := json.Marshal(locker)
	if err != nil {
		return err
	}

	key := lockerKey(locker.ID)

	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, lockersIndexKey(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetLocker(ctx context.Context, id model.LockerID) (*model.Locker, error) {
	data, err := s.client.Get(ctx, lockerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrLockerNotFound
		}
		return nil, err
	}

	var locker model.Locker
	if err := json.Unmarshal(data, &locker); err != nil {
		return nil, err
	}
	return &locker, nil
}

func (s *Storage) ListLockers(ctx context.Context) ([]*model.Locker, error) {
	keys, err := s.client.SMembers(ctx, lockersIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return []*model.Locker{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	lockers := make([]*model.Locker, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue
		}
		var locker model.Locker
		if err := json.Unmarshal([]byte(val.(string)), &locker); err != nil {
			continue // Skip invalid data
		}
		lockers = append(lockers, &locker)
	}

	sort.Slice(lockers, func(i, j int) bool { return lockers[i].ID < lockers[j].ID })
	return lockers, nil
}

// Waitlist operations

func (s *Storage) AppendWaitlist(ctx context.Context, email string) error {
	// Use pipeline for atomic list append + membership set update
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, waitlistKey(), email)
	pipe.SAdd(ctx, waitlistMembersKey(), email)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) PopWaitlist(ctx context.Context) (string, bool, error) {
	head, err := s.client.LPop(ctx, waitlistKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}

	if err := s.client.SRem(ctx, waitlistMembersKey(), head).Err(); err != nil {
		return "", false, err
	}
	return head, true, nil
}

func (s *Storage) WaitlistContains(ctx context.Context, email string) (bool, error) {
	return s.client.SIsMember(ctx, waitlistMembersKey(), email).Result()
}

func (s *Storage) GetWaitlist(ctx context.Context) ([]string, error) {
	return s.client.LRange(ctx, waitlistKey(), 0, -1).Result()
}

// Audit operations

func (s *Storage) AppendAudit(ctx context.Context, entry *model.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	// LPush keeps the log newest-first
	return s.client.LPush(ctx, auditLogKey(), data).Err()
}

func (s *Storage) ListAudit(ctx context.Context) ([]*model.AuditEntry, error) {
	values, err := s.client.LRange(ctx, auditLogKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*model.AuditEntry, 0, len(values))
	for _, val := range values {
		var entry model.AuditEntry
		if err := json.Unmarshal([]byte(val), &entry); err != nil {
			continue // Skip invalid data
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}
