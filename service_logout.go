package courseauth

import (
	"context"
	"fmt"

	"github.com/progplatform/courseauth/internal/flows"
)

// Logout revokes the session identified by the bearer token: the account's
// stored refresh token is deleted and the presented access token is
// blacklisted for its remaining lifetime. Logout is idempotent; an
// unparseable or already-revoked token returns nil.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	if s == nil {
		return ErrServiceNotReady
	}

	result := flows.RunLogout(ctx, stripBearer(accessToken), flows.LogoutDeps{
		ParseToken:         s.tokens.Parse,
		DeleteRefreshToken: s.cache.DeleteRefreshToken,
		Blacklist:          s.cache.Blacklist,
		Now:                timeNow,
	})

	if result.Err != nil {
		s.emitAudit(ctx, AuditLogout, result.AccountID, false, result.Err, nil)
		s.logger.Error().Err(result.Err).Int64("account_id", result.AccountID).Msg("logout failed")
		return fmt.Errorf("logout: %w", result.Err)
	}
	if result.Revoked {
		s.metricInc(MetricLogout)
		s.emitAudit(ctx, AuditLogout, result.AccountID, true, nil, nil)
	}
	return nil
}
