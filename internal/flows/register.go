package flows

import (
	"context"
	"time"
)

// RegisterFailureKind classifies registration failures for root-level
// mapping.
type RegisterFailureKind int

const (
	RegisterFailureNone RegisterFailureKind = iota
	RegisterFailureUsernameTaken
	RegisterFailureEmailTaken
	RegisterFailureHash
	RegisterFailureInsert
	RegisterFailureIssue
	RegisterFailureStore
)

// RegisterInput is the validated registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// RegisterResult carries the created account and its first session, or
// failure metadata. A duplicate-identifier failure performs no account
// mutation.
type RegisterResult struct {
	Failure      RegisterFailureKind
	Err          error
	Account      *AccountRecord
	AccessToken  string
	RefreshToken string
}

// RegisterDeps captures registration flow dependencies.
type RegisterDeps struct {
	DefaultRole string

	ExistsByUsername func(context.Context, string) (bool, error)
	ExistsByEmail    func(context.Context, string) (bool, error)
	HashPassword     func(string) (string, error)

	// Insert persists the record and assigns its ID.
	Insert func(context.Context, *AccountRecord) error

	IssueSession    func(context.Context, *AccountRecord) (access, refresh string, err error)
	UpdateLastLogin func(context.Context, int64, time.Time) error
	Now             func() time.Time
}

// RunRegister creates the account with the default role and immediately
// issues its first session (auto-login).
func RunRegister(ctx context.Context, input RegisterInput, deps RegisterDeps) RegisterResult {
	taken, err := deps.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return RegisterResult{Failure: RegisterFailureStore, Err: err}
	}
	if taken {
		return RegisterResult{Failure: RegisterFailureUsernameTaken}
	}

	taken, err = deps.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return RegisterResult{Failure: RegisterFailureStore, Err: err}
	}
	if taken {
		return RegisterResult{Failure: RegisterFailureEmailTaken}
	}

	hash, err := deps.HashPassword(input.Password)
	if err != nil {
		return RegisterResult{Failure: RegisterFailureHash, Err: err}
	}

	account := &AccountRecord{
		Username:      input.Username,
		Email:         input.Email,
		FullName:      input.FullName,
		PasswordHash:  hash,
		Role:          deps.DefaultRole,
		Active:        true,
		EmailVerified: false,
	}
	if err := deps.Insert(ctx, account); err != nil {
		return RegisterResult{Failure: RegisterFailureInsert, Err: err}
	}

	access, refresh, err := deps.IssueSession(ctx, account)
	if err != nil {
		return RegisterResult{Failure: RegisterFailureIssue, Err: err, Account: account}
	}

	if err := deps.UpdateLastLogin(ctx, account.ID, deps.Now()); err != nil {
		return RegisterResult{Failure: RegisterFailureStore, Err: err, Account: account}
	}

	return RegisterResult{
		Account:      account,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}
