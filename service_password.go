package courseauth

import (
	"context"
	"fmt"
)

// ChangePassword verifies the current password, stores a hash of the new
// one and revokes the account's refresh token so old sessions cannot be
// extended past their access expiry.
func (s *Service) ChangePassword(ctx context.Context, accountID int64, currentPassword, newPassword string) error {
	if s == nil {
		return ErrServiceNotReady
	}
	if newPassword == "" {
		return fmt.Errorf("%w: new password must not be empty", ErrInvalidCredentials)
	}

	account, err := s.users.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if account == nil {
		return ErrUserNotFound
	}

	ok, err := s.hasher.Verify(currentPassword, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !ok {
		s.emitAudit(ctx, AuditPasswordChange, accountID, false, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, accountID, hash, timeNow()); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := s.cache.DeleteRefreshToken(ctx, accountID); err != nil {
		s.logger.Error().Err(err).Int64("account_id", accountID).Msg("refresh revocation after password change failed")
	}

	s.metricInc(MetricPasswordChange)
	s.emitAudit(ctx, AuditPasswordChange, accountID, true, nil, nil)
	return nil
}
