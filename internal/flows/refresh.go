package flows

import (
	"context"
	"errors"

	"github.com/progplatform/courseauth/token"
)

// RefreshFailureKind classifies refresh flow failures for root-level
// mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureEmpty
	RefreshFailureDecode
	RefreshFailureWrongClass
	RefreshFailureRevoked
	RefreshFailureNotFound
	RefreshFailureDisabled
	RefreshFailureIssue
	RefreshFailureCache
	RefreshFailureStore
)

// RefreshResult carries the reissued access token or failure metadata. The
// refresh token in a success result is always the one the caller presented;
// this flow never rotates it.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	Account      *AccountRecord
	Claims       *token.Claims
	AccessToken  string
	RefreshToken string
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	ParseToken     func(string) (*token.Claims, error)
	RequireRefresh func(*token.Claims) error

	// GetStoredToken returns the account's live refresh token;
	// NoActiveSession classifies its miss sentinel.
	GetStoredToken  func(context.Context, int64) (string, error)
	NoActiveSession error

	FindByID    func(context.Context, int64) (*AccountRecord, error)
	IssueAccess func(*AccountRecord) (string, error)
}

// RunRefresh exchanges a live refresh token for a new access token. The
// presented string must exactly match the stored record — anything else
// means the session was rotated out by a newer login or revoked by logout.
func RunRefresh(ctx context.Context, raw string, deps RefreshDeps) RefreshResult {
	if raw == "" {
		return RefreshResult{Failure: RefreshFailureEmpty}
	}

	claims, err := deps.ParseToken(raw)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureDecode, Err: err}
	}
	if err := deps.RequireRefresh(claims); err != nil {
		return RefreshResult{Failure: RefreshFailureWrongClass, Err: err, Claims: claims}
	}

	stored, err := deps.GetStoredToken(ctx, claims.AccountID)
	switch {
	case deps.NoActiveSession != nil && errors.Is(err, deps.NoActiveSession):
		return RefreshResult{Failure: RefreshFailureRevoked, Err: err, Claims: claims}
	case err != nil:
		return RefreshResult{Failure: RefreshFailureCache, Err: err, Claims: claims}
	case stored != raw:
		return RefreshResult{Failure: RefreshFailureRevoked, Claims: claims}
	}

	account, err := deps.FindByID(ctx, claims.AccountID)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureStore, Err: err, Claims: claims}
	}
	if account == nil {
		return RefreshResult{Failure: RefreshFailureNotFound, Claims: claims}
	}
	if !account.Active {
		return RefreshResult{Failure: RefreshFailureDisabled, Claims: claims, Account: account}
	}

	access, err := deps.IssueAccess(account)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, Claims: claims, Account: account}
	}

	return RefreshResult{
		Account:      account,
		Claims:       claims,
		AccessToken:  access,
		RefreshToken: raw,
	}
}
