package auth

import (
	"sort"

	"github.com/google/uuid"
)

// UserStore holds the configured accounts, keyed by username. Accounts
// are declared in the service configuration and loaded once at startup;
// the store is immutable after construction, so reads need no locking.
type UserStore struct {
	users map[string]User

	// dummyHash is verified against when a username is unknown, so a
	// login probe for a missing account takes as long as a wrong
	// password for an existing one.
	dummyHash string
}

// NewUserStore builds a store from the configured accounts. Duplicate
// usernames keep the last entry.
func NewUserStore(users []User) *UserStore {
	m := make(map[string]User, len(users))
	for _, u := range users {
		m[u.Username] = u
	}

	dummy, err := HashPassword(uuid.NewString())
	if err != nil {
		dummy = ""
	}

	return &UserStore{users: m, dummyHash: dummy}
}

// GetByUsername retrieves an account by username.
func (s *UserStore) GetByUsername(username string) (*User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// Authenticate verifies a username/password pair against the store.
// Both unknown usernames and wrong passwords return
// ErrInvalidCredentials, after a full hash verification in either case.
func (s *UserStore) Authenticate(username, password string) (*User, error) {
	user, err := s.GetByUsername(username)
	if err != nil {
		if s.dummyHash != "" {
			VerifyPassword(password, s.dummyHash) //nolint:errcheck // timing equalisation only
		}
		return nil, ErrInvalidCredentials
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// List returns all accounts ordered by username.
func (s *UserStore) List() []User {
	result := make([]User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result
}

// Count returns the number of configured accounts.
func (s *UserStore) Count() int {
	return len(s.users)
}
