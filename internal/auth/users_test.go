package auth

import (
	"errors"
	"testing"
)

func testStore(t *testing.T) *UserStore {
	t.Helper()

	hash, err := HashPassword("hunter2-but-much-longer")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	return NewUserStore([]User{
		{Username: "alice", PasswordHash: hash, Role: RoleAdmin},
		{Username: "bob", PasswordHash: hash, Role: RoleOperator},
	})
}

func TestUserStore_GetByUsername(t *testing.T) {
	store := testStore(t)

	user, err := store.GetByUsername("alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}

	if user.Username != "alice" {
		t.Errorf("Username = %q, want %q", user.Username, "alice")
	}
	if user.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q", user.Role, RoleAdmin)
	}

	_, err = store.GetByUsername("mallory")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByUsername(unknown) error = %v, want ErrUserNotFound", err)
	}
}

func TestUserStore_Authenticate(t *testing.T) {
	store := testStore(t)

	user, err := store.Authenticate("bob", "hunter2-but-much-longer")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	if user.Username != "bob" {
		t.Errorf("Username = %q, want %q", user.Username, "bob")
	}
	if user.Role != RoleOperator {
		t.Errorf("Role = %q, want %q", user.Role, RoleOperator)
	}
}

func TestUserStore_Authenticate_WrongPassword(t *testing.T) {
	store := testStore(t)

	_, err := store.Authenticate("bob", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestUserStore_Authenticate_UnknownUser(t *testing.T) {
	store := testStore(t)

	// Unknown usernames must look identical to wrong passwords, so the
	// error is ErrInvalidCredentials, not ErrUserNotFound.
	_, err := store.Authenticate("mallory", "any-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate(unknown) error = %v, want ErrInvalidCredentials", err)
	}
}

func TestUserStore_List(t *testing.T) {
	store := testStore(t)

	users := store.List()
	if len(users) != 2 {
		t.Fatalf("List() returned %d users, want 2", len(users))
	}

	if users[0].Username != "alice" || users[1].Username != "bob" {
		t.Errorf("List() order = [%q, %q], want sorted by username",
			users[0].Username, users[1].Username)
	}

	if store.Count() != 2 {
		t.Errorf("Count() = %d, want 2", store.Count())
	}
}

func TestUserStore_DuplicateUsernames(t *testing.T) {
	store := NewUserStore([]User{
		{Username: "alice", PasswordHash: "first", Role: RoleOperator},
		{Username: "alice", PasswordHash: "second", Role: RoleAdmin},
	})

	if store.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", store.Count())
	}

	user, err := store.GetByUsername("alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}

	// Last entry wins
	if user.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q (last entry)", user.Role, RoleAdmin)
	}
}
