package flows

import (
	"context"
	"time"

	"github.com/progplatform/courseauth/token"
)

// LogoutResult reports whether a session was actually revoked. An
// unparseable token is not an error: logout is idempotent by contract.
type LogoutResult struct {
	Revoked   bool
	AccountID int64
	Err       error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	ParseToken         func(string) (*token.Claims, error)
	DeleteRefreshToken func(context.Context, int64) error
	// Blacklist receives the remaining lifetime; the store no-ops when it
	// is not positive.
	Blacklist func(ctx context.Context, raw string, ttl time.Duration) error
	Now       func() time.Time
}

// RunLogout revokes the session identified by the bearer token: the
// account's refresh record is deleted and the presented access token is
// blacklisted for its remaining lifetime. A token that fails to parse is a
// silent no-op, so logging out twice never errors.
func RunLogout(ctx context.Context, raw string, deps LogoutDeps) LogoutResult {
	claims, err := deps.ParseToken(raw)
	if err != nil {
		return LogoutResult{}
	}

	if err := deps.DeleteRefreshToken(ctx, claims.AccountID); err != nil {
		return LogoutResult{AccountID: claims.AccountID, Err: err}
	}
	if err := deps.Blacklist(ctx, raw, token.Remaining(claims, deps.Now())); err != nil {
		return LogoutResult{AccountID: claims.AccountID, Err: err}
	}

	return LogoutResult{Revoked: true, AccountID: claims.AccountID}
}
