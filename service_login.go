package courseauth

import (
	"context"
	"fmt"
	"strings"

	"github.com/progplatform/courseauth/internal/flows"
)

// Login authenticates by username, falling back to email when no username
// matches, and issues a fresh session. Issuing overwrites the account's
// stored refresh token, so any earlier session loses its refresh
// capability.
func (s *Service) Login(ctx context.Context, identifier, password string) (*Session, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}

	// No input short-circuit: an empty identifier resolves to nothing and
	// fails NotFound, an empty password fails verification. Both follow the
	// normal resolution order.
	identifier = strings.TrimSpace(identifier)

	result := flows.RunLogin(ctx, identifier, password, flows.LoginDeps{
		FindByUsername:  s.findRecordByUsername,
		FindByEmail:     s.findRecordByEmail,
		VerifyPassword:  s.hasher.Verify,
		IssueSession:    s.issueSession,
		UpdateLastLogin: s.users.UpdateLastLogin,
		Now:             timeNow,
	})

	switch result.Failure {
	case flows.LoginFailureNone:
		s.metricInc(MetricLoginSuccess)
		s.emitAudit(ctx, AuditLoginSuccess, result.Account.ID, true, nil, map[string]string{
			"username": result.Account.Username,
		})
		return s.session(result.Account, result.AccessToken, result.RefreshToken), nil

	case flows.LoginFailureNotFound:
		s.metricInc(MetricLoginFailure)
		s.emitAudit(ctx, AuditLoginFailure, 0, false, ErrUserNotFound, map[string]string{
			"identifier": identifier,
		})
		return nil, fmt.Errorf("%w: %q", ErrUserNotFound, identifier)

	case flows.LoginFailureDisabled:
		s.metricInc(MetricLoginFailure)
		s.emitAudit(ctx, AuditLoginFailure, result.Account.ID, false, ErrAccountDisabled, nil)
		return nil, ErrAccountDisabled

	case flows.LoginFailurePassword:
		s.metricInc(MetricLoginFailure)
		s.emitAudit(ctx, AuditLoginFailure, result.Account.ID, false, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials

	default:
		var accountID int64
		if result.Account != nil {
			accountID = result.Account.ID
		}
		s.metricInc(MetricLoginFailure)
		s.emitAudit(ctx, AuditLoginFailure, accountID, false, result.Err, nil)
		s.logger.Error().Err(result.Err).Str("identifier", identifier).Msg("login failed")
		return nil, fmt.Errorf("login: %w", result.Err)
	}
}
