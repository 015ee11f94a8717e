package model

import "time"

// AuditActor identifies who performed an audited action: a user's email,
// or SystemActor for actions the service takes on its own.
type AuditActor string

// SystemActor is the actor recorded for sweep-driven transitions and
// other service-initiated audit entries.
const SystemActor AuditActor = "SYSTEM"

// AuditAction is the kind of an audit log entry
type AuditAction string

const (
	AuditRegisterSuccess    AuditAction = "REGISTER_SUCCESS"
	AuditLoginSuccess       AuditAction = "LOGIN_SUCCESS"
	AuditLoginFail          AuditAction = "LOGIN_FAIL"
	AuditLogout             AuditAction = "LOGOUT"
	AuditRentLocker         AuditAction = "RENT_LOCKER"
	AuditReturnLocker       AuditAction = "RETURN_LOCKER"
	AuditForceReturnLocker  AuditAction = "FORCE_RETURN_LOCKER"
	AuditUpdateLockerStatus AuditAction = "UPDATE_LOCKER_STATUS"
	AuditLockerOverdue      AuditAction = "LOCKER_OVERDUE"
	AuditGenerateAccessCode AuditAction = "GENERATE_ACCESS_CODE"
	AuditJoinWaitlist       AuditAction = "JOIN_WAITLIST"
	AuditNotifyWaitlist     AuditAction = "NOTIFY_WAITLIST"
	AuditRemoveUser         AuditAction = "REMOVE_USER"
)

// AuditEntry is a single immutable audit log record
type AuditEntry struct {
	Timestamp time.Time
	Actor     AuditActor
	Action    AuditAction
	Details   map[string]any
}
