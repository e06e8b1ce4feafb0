package courseauth

import (
	"context"
	"fmt"

	"github.com/progplatform/courseauth/internal/flows"
	"github.com/progplatform/courseauth/revocation"
	"github.com/progplatform/courseauth/token"
)

// Refresh exchanges a live refresh token for a new access token. The
// returned session carries the same refresh token the caller presented:
// refresh never rotates the long-lived credential, so its absolute expiry
// is fixed at login time.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}

	result := flows.RunRefresh(ctx, stripBearer(refreshToken), flows.RefreshDeps{
		ParseToken: s.tokens.Parse,
		RequireRefresh: func(claims *token.Claims) error {
			return s.tokens.RequireClass(claims, token.ClassRefresh)
		},
		GetStoredToken:  s.cache.GetRefreshToken,
		NoActiveSession: revocation.ErrNoActiveSession,
		FindByID: func(ctx context.Context, id int64) (*flows.AccountRecord, error) {
			return s.findRecordByID(ctx, id)
		},
		IssueAccess: func(account *flows.AccountRecord) (string, error) {
			return s.tokens.Issue(account.ID, account.Role, token.ClassAccess)
		},
	})

	switch result.Failure {
	case flows.RefreshFailureNone:
		s.metricInc(MetricRefreshSuccess)
		s.emitAudit(ctx, AuditRefreshSuccess, result.Account.ID, true, nil, nil)
		return s.session(result.Account, result.AccessToken, result.RefreshToken), nil

	case flows.RefreshFailureEmpty:
		s.metricInc(MetricRefreshFailure)
		return nil, ErrEmptyToken

	case flows.RefreshFailureDecode:
		s.metricInc(MetricRefreshFailure)
		s.emitAudit(ctx, AuditRefreshFailure, 0, false, result.Err, nil)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, result.Err)

	case flows.RefreshFailureWrongClass:
		s.metricInc(MetricRefreshFailure)
		s.emitAudit(ctx, AuditRefreshFailure, result.Claims.AccountID, false, result.Err, nil)
		return nil, ErrWrongTokenClass

	case flows.RefreshFailureRevoked:
		s.metricInc(MetricRefreshRevoked)
		s.emitAudit(ctx, AuditRefreshFailure, result.Claims.AccountID, false, ErrRefreshRevoked, nil)
		return nil, ErrRefreshRevoked

	case flows.RefreshFailureNotFound:
		s.metricInc(MetricRefreshFailure)
		s.emitAudit(ctx, AuditRefreshFailure, result.Claims.AccountID, false, ErrUserNotFound, nil)
		return nil, ErrUserNotFound

	case flows.RefreshFailureDisabled:
		s.metricInc(MetricRefreshFailure)
		s.emitAudit(ctx, AuditRefreshFailure, result.Claims.AccountID, false, ErrAccountDisabled, nil)
		return nil, ErrAccountDisabled

	default:
		var accountID int64
		if result.Claims != nil {
			accountID = result.Claims.AccountID
		}
		s.metricInc(MetricRefreshFailure)
		s.emitAudit(ctx, AuditRefreshFailure, accountID, false, result.Err, nil)
		s.logger.Error().Err(result.Err).Msg("refresh failed")
		return nil, fmt.Errorf("refresh: %w", result.Err)
	}
}
