package auth

import (
	"errors"
	"regexp"
	"slices"
)

// usernamePattern bounds account names to 1-64 characters of letters,
// digits, dot, underscore and hyphen. The repetition range enforces the
// length limit, so callers need no separate check.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// IsValidUsername reports whether username is acceptable as an account
// name.
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// Role is an authorisation tier. Every account holds exactly one.
type Role string

const (
	// RoleOperator can command doors (open, close, stop, reset) and read
	// state, history and metrics. The day-to-day account for staff
	// driving doors from a panel or dashboard.
	RoleOperator Role = "operator"

	// RoleAdmin has everything operator can do plus door initialization
	// and system internals. Installer or site engineer.
	RoleAdmin Role = "admin"
)

// ValidRoles lists every role an account may hold.
var ValidRoles = []Role{RoleOperator, RoleAdmin}

// IsValidRole reports whether r names a known account tier.
func IsValidRole(r Role) bool {
	return slices.Contains(ValidRoles, r)
}

// User is an authenticated account. Accounts are declared in the
// service configuration, not a database; the password is stored as an
// Argon2id PHC hash.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // excluded from all JSON output
	Role         Role   `json:"role"`
}

// Errors shared by the credential and token operations in this package.
var (
	ErrInvalidCredentials = errors.New("username or password incorrect")
	ErrUserNotFound       = errors.New("no such user")
	ErrTokenExpired       = errors.New("access token expired")
	ErrTokenInvalid       = errors.New("access token invalid")
)
