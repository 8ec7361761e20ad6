package domain

import "github.com/google/uuid"

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the caller holds the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Authenticated reports whether the principal identifies a user.
func (p Principal) Authenticated() bool {
	return p.UserID != uuid.Nil
}

// IsOwner reports whether caller owns task. Administrators get no special
// treatment: tasks are private to their owner.
func IsOwner(caller Principal, task *Task) bool {
	if task == nil || !caller.Authenticated() {
		return false
	}
	return task.UserID == caller.UserID
}

// CanAccessUser reports whether caller may read or modify the user record:
// its own record, or any record for administrators.
func CanAccessUser(caller Principal, user *User) bool {
	if user == nil || !caller.Authenticated() {
		return false
	}
	return caller.IsAdmin() || user.ID == caller.UserID
}
