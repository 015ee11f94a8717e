package redis

import (
	"fmt"

	"github.com/campuslock/lockerd/internal/model"
)

// Key prefix for all locker-service data
const keyPrefix = "lockerd"

// Key generation functions for each entity type

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// emailIndexKey returns the Redis key for the email -> user_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// usersIndexKey returns the Redis key for the SET of all user ids
func usersIndexKey() string {
	return fmt.Sprintf("%s:idx:users", keyPrefix)
}

// lockerKey returns the Redis key for a Locker
func lockerKey(id model.LockerID) string {
	return fmt.Sprintf("%s:locker:%d", keyPrefix, id)
}

// lockersIndexKey returns the Redis key for the SET of all locker keys
func lockersIndexKey() string {
	return fmt.Sprintf("%s:idx:lockers", keyPrefix)
}

// waitlistKey returns the Redis key for the waitlist LIST (FIFO)
func waitlistKey() string {
	return fmt.Sprintf("%s:waitlist", keyPrefix)
}

// waitlistMembersKey returns the Redis key for the waitlist membership SET
func waitlistMembersKey() string {
	return fmt.Sprintf("%s:waitlist:members", keyPrefix)
}

// auditLogKey returns the Redis key for the audit log LIST (newest first)
func auditLogKey() string {
	return fmt.Sprintf("%s:audit_log", keyPrefix)
}
