package courseauth

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/progplatform/courseauth/internal/flows"
	"github.com/progplatform/courseauth/revocation"
	"github.com/progplatform/courseauth/token"
)

// timeNow is swapped in tests.
var timeNow = time.Now

// Service orchestrates the session-credential lifecycle. Construct it
// through [Builder.Build]; the zero value is not usable. All methods are
// safe for concurrent use: per-call state lives entirely in the credential
// store and the revocation cache.
type Service struct {
	config        Config
	tokens        *token.Manager
	cache         *revocation.Store
	verifications *emailVerificationStore
	users         UserStore
	hasher        PasswordHasher
	metrics       *Metrics
	audit         *auditDispatcher
	logger        zerolog.Logger
}

// Close flushes and stops the audit dispatcher. The Service must not be
// used after Close.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.audit.Close()
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (s *Service) AuditDropped() uint64 {
	if s == nil {
		return 0
	}
	return s.audit.Dropped()
}

// MetricsSnapshot copies the current counter values. Returns an empty
// snapshot when metrics are disabled.
func (s *Service) MetricsSnapshot() MetricsSnapshot {
	if s == nil || s.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return s.metrics.Snapshot()
}

func (s *Service) metricInc(id MetricID) {
	if s == nil {
		return
	}
	s.metrics.Inc(id)
}

func (s *Service) emitAudit(ctx context.Context, eventType string, accountID int64, success bool, cause error, metadata map[string]string) {
	if s == nil || s.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: timeNow(),
		EventType: eventType,
		AccountID: accountID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	s.audit.Emit(ctx, event)
}

// expiresIn is the access lifetime in whole seconds, floored.
func (s *Service) expiresIn() int64 {
	return s.config.JWT.AccessTTL.Milliseconds() / 1000
}

// issueSession mints the token pair and overwrites the account's
// refresh-token record. The overwrite is what enforces the one-session-per-
// account policy: a concurrent login simply wins the last write.
func (s *Service) issueSession(ctx context.Context, account *flows.AccountRecord) (string, string, error) {
	access, err := s.tokens.Issue(account.ID, account.Role, token.ClassAccess)
	if err != nil {
		return "", "", err
	}
	refresh, err := s.tokens.Issue(account.ID, account.Role, token.ClassRefresh)
	if err != nil {
		return "", "", err
	}
	if err := s.cache.PutRefreshToken(ctx, account.ID, refresh, s.tokens.RefreshTTL()); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *Service) session(account *flows.AccountRecord, access, refresh string) *Session {
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.expiresIn(),
		Account:      recordSummary(account),
	}
}

func toRecord(a *Account) *flows.AccountRecord {
	if a == nil {
		return nil
	}
	return &flows.AccountRecord{
		ID:            a.ID,
		Username:      a.Username,
		Email:         a.Email,
		FullName:      a.FullName,
		AvatarURL:     a.AvatarURL,
		PasswordHash:  a.PasswordHash,
		Role:          string(a.Role),
		Active:        a.Active,
		EmailVerified: a.EmailVerified,
	}
}

func recordSummary(r *flows.AccountRecord) AccountSummary {
	return AccountSummary{
		ID:            r.ID,
		Username:      r.Username,
		Email:         r.Email,
		FullName:      r.FullName,
		AvatarURL:     r.AvatarURL,
		Role:          Role(r.Role),
		EmailVerified: r.EmailVerified,
	}
}

// stripBearer removes an optional "Bearer " prefix.
func stripBearer(raw string) string {
	const bearer = "Bearer "
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, bearer) {
		return strings.TrimSpace(raw[len(bearer):])
	}
	return raw
}

func (s *Service) findRecordByUsername(ctx context.Context, username string) (*flows.AccountRecord, error) {
	account, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return toRecord(account), nil
}

func (s *Service) findRecordByEmail(ctx context.Context, email string) (*flows.AccountRecord, error) {
	account, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return toRecord(account), nil
}

func (s *Service) findRecordByID(ctx context.Context, id int64) (*flows.AccountRecord, error) {
	account, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toRecord(account), nil
}
