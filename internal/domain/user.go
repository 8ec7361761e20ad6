package domain

import (
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// User validation errors. Each wraps ErrValidation.
var (
	ErrEmptyUserID         = NewValidationError("id", "cannot be empty", ErrInvalidID)
	ErrEmptyUsername       = NewValidationError("username", "cannot be empty", nil)
	ErrInvalidUsername     = NewValidationError("username", "may contain only letters, digits and @/./+/-/_", nil)
	ErrUsernameTooShort    = NewValidationError("username", "must be at least 3 characters long", nil)
	ErrUsernameTooLong     = NewValidationError("username", "must be at most 150 characters long", nil)
	ErrPasswordTooShort    = NewValidationError("password", "must be at least 8 characters long", nil)
	ErrPasswordTooLong     = NewValidationError("password", "must be at most 72 bytes long", nil)
	ErrEmptyPassword       = NewValidationError("password", "cannot be empty", nil)
	ErrInvalidRole         = NewValidationError("role", "must be one of user, admin", nil)
	ErrEmptyHashedPassword = NewValidationError("hashed_password", "cannot be empty", nil)
)

const (
	minUsernameLength = 3
	maxUsernameLength = 150
	minPasswordLength = 8
	maxPasswordLength = 72 // bytes; bcrypt ignores the rest
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// Role distinguishes administrators from regular users.
type Role string

const (
	// RoleUser is the default role assigned at registration.
	RoleUser Role = "user"
	// RoleAdmin can see and manage every user record.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an account of the task tracker.
type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Password       string    `json:"-"` // Plaintext password, used temporarily during registration/updates
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a regular User with the given username and plaintext password.
// The caller is responsible for hashing the password before storing the user.
func NewUser(username, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Username:  username,
		Password:  password,
		Role:      RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// IsAdmin reports whether the user holds the administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if err := ValidateUsername(u.Username); err != nil {
		return err
	}

	if !u.Role.Valid() {
		return ErrInvalidRole
	}

	// A plaintext password is only present during creation or a password
	// change; stored users carry the hash instead.
	if u.Password != "" {
		return ValidatePassword(u.Password)
	}
	if u.HashedPassword == "" {
		return ErrEmptyPassword
	}

	return nil
}

// ValidateUsername checks length and allowed characters of a username.
func ValidateUsername(username string) error {
	switch {
	case username == "":
		return ErrEmptyUsername
	case utf8.RuneCountInString(username) < minUsernameLength:
		return ErrUsernameTooShort
	case utf8.RuneCountInString(username) > maxUsernameLength:
		return ErrUsernameTooLong
	case !usernamePattern.MatchString(username):
		return ErrInvalidUsername
	}
	return nil
}

// ValidatePassword checks the length bounds of a plaintext password.
func ValidatePassword(password string) error {
	switch {
	case password == "":
		return ErrEmptyPassword
	case len(password) < minPasswordLength:
		return ErrPasswordTooShort
	case len(password) > maxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}
