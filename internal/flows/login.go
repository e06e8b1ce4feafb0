package flows

import (
	"context"
	"time"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureNotFound
	LoginFailureDisabled
	LoginFailurePassword
	LoginFailureVerify
	LoginFailureIssue
	LoginFailureStore
)

// LoginResult carries either the issued token pair or failure metadata.
type LoginResult struct {
	Failure      LoginFailureKind
	Err          error
	Account      *AccountRecord
	AccessToken  string
	RefreshToken string
}

// LoginDeps captures login flow dependencies. Lookup funcs return (nil, nil)
// for an absent account; only infrastructure failures surface as errors.
type LoginDeps struct {
	FindByUsername func(context.Context, string) (*AccountRecord, error)
	FindByEmail    func(context.Context, string) (*AccountRecord, error)
	VerifyPassword func(plain, hash string) (bool, error)

	// IssueSession mints the access+refresh pair and overwrites the stored
	// refresh-token record, which is what invalidates any prior session.
	IssueSession    func(context.Context, *AccountRecord) (access, refresh string, err error)
	UpdateLastLogin func(context.Context, int64, time.Time) error
	Now             func() time.Time
}

// RunLogin resolves the account by username with email fallback, checks the
// active flag, verifies the password and issues a fresh session.
func RunLogin(ctx context.Context, identifier, password string, deps LoginDeps) LoginResult {
	account, err := deps.FindByUsername(ctx, identifier)
	if err != nil {
		return LoginResult{Failure: LoginFailureStore, Err: err}
	}
	if account == nil {
		account, err = deps.FindByEmail(ctx, identifier)
		if err != nil {
			return LoginResult{Failure: LoginFailureStore, Err: err}
		}
	}
	if account == nil {
		return LoginResult{Failure: LoginFailureNotFound}
	}
	if !account.Active {
		return LoginResult{Failure: LoginFailureDisabled, Account: account}
	}

	ok, err := deps.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return LoginResult{Failure: LoginFailureVerify, Err: err, Account: account}
	}
	if !ok {
		return LoginResult{Failure: LoginFailurePassword, Account: account}
	}

	access, refresh, err := deps.IssueSession(ctx, account)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, Account: account}
	}

	if err := deps.UpdateLastLogin(ctx, account.ID, deps.Now()); err != nil {
		return LoginResult{Failure: LoginFailureStore, Err: err, Account: account}
	}

	return LoginResult{
		Account:      account,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}
