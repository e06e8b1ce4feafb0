package courseauth

import (
	"context"
	"time"
)

// Role is the closed set of account roles on the platform.
type Role string

const (
	// RoleLearner is the default role assigned at registration.
	RoleLearner Role = "learner"
	// RoleInstructor marks accounts that author and run courses.
	RoleInstructor Role = "instructor"
	// RoleAdministrator marks platform operators.
	RoleAdministrator Role = "administrator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleLearner, RoleInstructor, RoleAdministrator:
		return true
	}
	return false
}

// Account is the credential-store record for a platform user. The Service
// reads it and updates last-login, password hash and the two status flags;
// everything else is owned by the store.
type Account struct {
	ID            int64
	Username      string
	Email         string
	FullName      string
	AvatarURL     string
	Bio           string
	PasswordHash  string
	Role          Role
	Active        bool
	EmailVerified bool
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AccountSummary is the caller-facing identity payload returned with every
// session. It never carries the credential hash.
type AccountSummary struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	Role          Role   `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
}

// Session is returned by Register, Login and Refresh. ExpiresIn is the
// access-token lifetime in whole seconds (floored, not rounded).
type Session struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	TokenType    string         `json:"tokenType"`
	ExpiresIn    int64          `json:"expiresIn"`
	Account      AccountSummary `json:"account"`
}

// AuthResult is returned by [Service.Introspect]. It carries the
// authenticated account's identity explicitly — the Service holds no
// ambient "current user" state.
type AuthResult struct {
	AccountID int64
	Role      Role
}

// RegisterRequest is the input for [Service.Register].
type RegisterRequest struct {
	Username string
	Email    string
	Password string
	FullName string
}

// UserStore is the credential-store interface callers must implement to
// integrate courseauth with their user database. Lookup methods return
// (nil, nil) for an absent account; errors are reserved for infrastructure
// failures.
//
// The userstore subpackage provides the GORM implementation.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (*Account, error)
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Insert persists the account and assigns Account.ID.
	Insert(ctx context.Context, account *Account) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string, at time.Time) error
	UpdateEmailVerified(ctx context.Context, id int64, verified bool, at time.Time) error
	UpdateStatus(ctx context.Context, id int64, active bool, at time.Time) error
}

// PasswordHasher hashes and verifies credentials. Both hashers in the
// password subpackage satisfy it.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, encodedHash string) (bool, error)
}
