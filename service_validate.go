package courseauth

import (
	"context"
	"fmt"

	"github.com/progplatform/courseauth/internal/flows"
	"github.com/progplatform/courseauth/token"
)

// Validate reports whether the access token is currently good: signature,
// expiry, class and the revocation blacklist all pass. It fails closed: a
// cache outage rejects the token rather than admitting a possibly revoked
// one.
func (s *Service) Validate(ctx context.Context, accessToken string) bool {
	_, err := s.Introspect(ctx, accessToken)
	return err == nil
}

// Introspect validates the access token and returns the authenticated
// identity. Middleware uses it to attach the caller's account to the
// request context.
func (s *Service) Introspect(ctx context.Context, accessToken string) (*AuthResult, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}

	raw := stripBearer(accessToken)
	if raw == "" {
		s.metricInc(MetricValidateRejected)
		return nil, ErrEmptyToken
	}

	result := flows.RunValidate(ctx, raw, flows.ValidateDeps{
		ParseToken: s.tokens.Parse,
		RequireAccess: func(claims *token.Claims) error {
			return s.tokens.RequireClass(claims, token.ClassAccess)
		},
		IsBlacklisted: s.cache.IsBlacklisted,
	})

	switch result.Failure {
	case flows.ValidateFailureNone:
		return &AuthResult{
			AccountID: result.Claims.AccountID,
			Role:      Role(result.Claims.Role),
		}, nil

	case flows.ValidateFailureDecode:
		s.metricInc(MetricValidateRejected)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, result.Err)

	case flows.ValidateFailureWrongClass:
		s.metricInc(MetricValidateRejected)
		return nil, ErrWrongTokenClass

	case flows.ValidateFailureBlacklisted:
		s.metricInc(MetricValidateRejected)
		s.metricInc(MetricBlacklistHit)
		return nil, fmt.Errorf("%w: token revoked", ErrInvalidToken)

	default:
		s.metricInc(MetricValidateRejected)
		s.logger.Error().Err(result.Err).Msg("token validation cache failure")
		return nil, fmt.Errorf("validate: %w", result.Err)
	}
}
