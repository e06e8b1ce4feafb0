package courseauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// RequestEmailVerification issues a single-use challenge for the account's
// email address and returns it for out-of-band delivery. The challenge
// expires after the configured TTL; requesting again issues a fresh one
// without invalidating earlier challenges.
func (s *Service) RequestEmailVerification(ctx context.Context, accountID int64) (string, error) {
	if s == nil {
		return "", ErrServiceNotReady
	}

	account, err := s.users.FindByID(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("request verification: %w", err)
	}
	if account == nil {
		return "", ErrUserNotFound
	}
	if account.EmailVerified {
		return "", fmt.Errorf("%w: email already verified", ErrVerificationInvalid)
	}

	challenge := uuid.NewString()
	if err := s.verifications.Save(ctx, challenge, accountID, s.config.Verification.ChallengeTTL); err != nil {
		return "", fmt.Errorf("request verification: %w", err)
	}

	s.metricInc(MetricVerificationRequest)
	s.emitAudit(ctx, AuditVerificationRequest, accountID, true, nil, nil)
	return challenge, nil
}

// ConfirmEmailVerification consumes a challenge and marks the account's
// email verified. A challenge can be consumed exactly once; unknown or
// expired challenges return [ErrVerificationInvalid].
func (s *Service) ConfirmEmailVerification(ctx context.Context, challenge string) error {
	if s == nil {
		return ErrServiceNotReady
	}
	if challenge == "" {
		s.metricInc(MetricVerificationFailure)
		return ErrVerificationInvalid
	}

	accountID, err := s.verifications.Consume(ctx, challenge)
	if errors.Is(err, errVerificationNotFound) {
		s.metricInc(MetricVerificationFailure)
		s.emitAudit(ctx, AuditVerificationConfirm, 0, false, ErrVerificationInvalid, nil)
		return ErrVerificationInvalid
	}
	if err != nil {
		return fmt.Errorf("confirm verification: %w", err)
	}

	if err := s.users.UpdateEmailVerified(ctx, accountID, true, timeNow()); err != nil {
		return fmt.Errorf("confirm verification: %w", err)
	}

	s.metricInc(MetricVerificationSuccess)
	s.emitAudit(ctx, AuditVerificationConfirm, accountID, true, nil, nil)
	return nil
}
