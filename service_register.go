package courseauth

import (
	"context"
	"fmt"
	"strings"

	"github.com/progplatform/courseauth/internal/flows"
)

// Register creates an account with the default role and immediately issues
// its first session. A taken username or email returns [ErrAccountExists]
// without touching the store.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalidCredentials)
	}

	result := flows.RunRegister(ctx, flows.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: strings.TrimSpace(req.FullName),
	}, flows.RegisterDeps{
		DefaultRole:      string(s.config.Account.DefaultRole),
		ExistsByUsername: s.users.ExistsByUsername,
		ExistsByEmail:    s.users.ExistsByEmail,
		HashPassword:     s.hasher.Hash,
		Insert: func(ctx context.Context, record *flows.AccountRecord) error {
			account := &Account{
				Username:      record.Username,
				Email:         record.Email,
				FullName:      record.FullName,
				PasswordHash:  record.PasswordHash,
				Role:          Role(record.Role),
				Active:        record.Active,
				EmailVerified: record.EmailVerified,
			}
			if err := s.users.Insert(ctx, account); err != nil {
				return err
			}
			record.ID = account.ID
			return nil
		},
		IssueSession:    s.issueSession,
		UpdateLastLogin: s.users.UpdateLastLogin,
		Now:             timeNow,
	})

	switch result.Failure {
	case flows.RegisterFailureNone:
		s.metricInc(MetricRegisterSuccess)
		s.emitAudit(ctx, AuditRegisterSuccess, result.Account.ID, true, nil, map[string]string{
			"username": result.Account.Username,
		})
		return s.session(result.Account, result.AccessToken, result.RefreshToken), nil

	case flows.RegisterFailureUsernameTaken:
		s.metricInc(MetricRegisterDuplicate)
		s.emitAudit(ctx, AuditRegisterFailure, 0, false, ErrAccountExists, map[string]string{
			"reason":   "username_taken",
			"username": req.Username,
		})
		return nil, fmt.Errorf("%w: username %q", ErrAccountExists, req.Username)

	case flows.RegisterFailureEmailTaken:
		s.metricInc(MetricRegisterDuplicate)
		s.emitAudit(ctx, AuditRegisterFailure, 0, false, ErrAccountExists, map[string]string{
			"reason": "email_taken",
		})
		return nil, fmt.Errorf("%w: email %q", ErrAccountExists, req.Email)

	default:
		var accountID int64
		if result.Account != nil {
			accountID = result.Account.ID
		}
		s.emitAudit(ctx, AuditRegisterFailure, accountID, false, result.Err, nil)
		s.logger.Error().Err(result.Err).Str("username", req.Username).Msg("register failed")
		return nil, fmt.Errorf("register: %w", result.Err)
	}
}
