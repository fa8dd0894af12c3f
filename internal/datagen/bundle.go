// Package datagen builds scenario data for login and registration tests:
// unique usernames and emails, valid registration bundles, and invalid
// variants that each break exactly one field.
package datagen

import (
	"log/slog"

	"github.com/kuitang/quiz-uitest/internal/logutil"
)

// Bundle is the set of form inputs for one scenario. It is never persisted;
// only its effect on the users table is.
type Bundle struct {
	Name       string
	Email      string
	Username   string
	Password   string
	RePassword string
}

// Fields returns the bundle keyed by form field name.
func (b Bundle) Fields() map[string]string {
	return map[string]string{
		"name":       b.Name,
		"email":      b.Email,
		"username":   b.Username,
		"password":   b.Password,
		"repassword": b.RePassword,
	}
}

// LogValue keeps passwords out of logs.
func (b Bundle) LogValue() slog.Value {
	fields := logutil.RedactFields(b.Fields())
	return slog.GroupValue(
		slog.String("name", fields["name"]),
		slog.String("email", fields["email"]),
		slog.String("username", fields["username"]),
		slog.String("password", fields["password"]),
		slog.String("repassword", fields["repassword"]),
		slog.Bool("passwords_match", b.Password == b.RePassword),
	)
}

// Fixed bundles used by the login and registration scenarios.

// LongPassword is accepted by the application and hashed without error.
const LongPassword = "MyVeryLongPassword123!@#$%^&*()_+{}[]"

// ValidLogin is the canonical pre-registered account.
func ValidLogin() Bundle {
	return Bundle{
		Name:       "Test User",
		Email:      "test@example.com",
		Username:   "testuser",
		Password:   "Test@123",
		RePassword: "Test@123",
	}
}

// ValidRegister is the canonical new-account form.
func ValidRegister() Bundle {
	return Bundle{
		Name:       "John Doe",
		Email:      "john@example.com",
		Username:   "newuser",
		Password:   "NewPass@123",
		RePassword: "NewPass@123",
	}
}

// ExistingUser is inserted before duplicate-username scenarios.
func ExistingUser() Bundle {
	return Bundle{
		Name:       "Existing User",
		Email:      "existing@example.com",
		Username:   "existinguser",
		Password:   "Existing@123",
		RePassword: "Existing@123",
	}
}

// ReservedUsernames is the pool of usernames the fixed scenarios use. Every
// one of them is deleted before and after each test, so tests must not rely
// on any of them surviving across tests.
var ReservedUsernames = []string{
	"testuser",
	"newuser",
	"existinguser",
	"longpasstest",
	"user@name#123",
	"nonexistentuser",
	"testuser2",
	"user_test_123",
}
