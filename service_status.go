package courseauth

import (
	"context"
	"fmt"
	"strconv"
)

// SetAccountActive flips the account's active flag. Deactivating revokes
// the stored refresh token so the session cannot be extended; live access
// tokens keep working until they expire.
func (s *Service) SetAccountActive(ctx context.Context, accountID int64, active bool) error {
	if s == nil {
		return ErrServiceNotReady
	}

	account, err := s.users.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("set account status: %w", err)
	}
	if account == nil {
		return ErrUserNotFound
	}

	if err := s.users.UpdateStatus(ctx, accountID, active, timeNow()); err != nil {
		return fmt.Errorf("set account status: %w", err)
	}
	if !active {
		if err := s.cache.DeleteRefreshToken(ctx, accountID); err != nil {
			s.logger.Error().Err(err).Int64("account_id", accountID).Msg("refresh revocation after deactivation failed")
		}
	}

	s.emitAudit(ctx, AuditAccountStatusChange, accountID, true, nil, map[string]string{
		"active": strconv.FormatBool(active),
	})
	return nil
}
