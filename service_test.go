package courseauth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// memoryStore is an in-memory UserStore for tests.
type memoryStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*Account
}

func newMemoryStore() *memoryStore {
	return &memoryStore{nextID: 1, byID: make(map[int64]*Account)}
}

func (m *memoryStore) FindByID(_ context.Context, id int64) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, nil
}

func (m *memoryStore) FindByUsername(_ context.Context, username string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Username == username {
			clone := *a
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) FindByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == email {
			clone := *a
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	a, err := m.FindByUsername(ctx, username)
	return a != nil, err
}

func (m *memoryStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	a, err := m.FindByEmail(ctx, email)
	return a != nil, err
}

func (m *memoryStore) Insert(_ context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account.ID = m.nextID
	m.nextID++
	clone := *account
	m.byID[account.ID] = &clone
	return nil
}

func (m *memoryStore) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		a.LastLoginAt = &at
	}
	return nil
}

func (m *memoryStore) UpdatePassword(_ context.Context, id int64, passwordHash string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		a.PasswordHash = passwordHash
		a.UpdatedAt = at
	}
	return nil
}

func (m *memoryStore) UpdateEmailVerified(_ context.Context, id int64, verified bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		a.EmailVerified = verified
		a.UpdatedAt = at
	}
	return nil
}

func (m *memoryStore) UpdateStatus(_ context.Context, id int64, active bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		a.Active = active
		a.UpdatedAt = at
	}
	return nil
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// plainHasher avoids slow KDF rounds in lifecycle tests.
type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) {
	return "plain$" + plaintext, nil
}

func (plainHasher) Verify(plaintext, encodedHash string) (bool, error) {
	return encodedHash == "plain$"+plaintext, nil
}

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis, *memoryStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("test-secret-at-least-32-bytes-long")
	cfg.Audit.Enabled = false

	store := newMemoryStore()
	svc, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserStore(store).
		WithPasswordHasher(plainHasher{}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc, mr, store
}

func register(t *testing.T, svc *Service, username string) *Session {
	t.Helper()
	session, err := svc.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "s3cret!pass",
		FullName: "Test " + username,
	})
	if err != nil {
		t.Fatalf("Register(%q): %v", username, err)
	}
	return session
}

func TestRegisterIssuesSession(t *testing.T) {
	svc, _, store := newTestService(t)

	session := register(t, svc, "alice")
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if session.AccessToken == session.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}
	if session.TokenType != "Bearer" {
		t.Fatalf("TokenType = %q, want Bearer", session.TokenType)
	}
	if want := int64(15 * 60); session.ExpiresIn != want {
		t.Fatalf("ExpiresIn = %d, want %d", session.ExpiresIn, want)
	}
	if session.Account.Role != RoleLearner {
		t.Fatalf("Role = %q, want %q", session.Account.Role, RoleLearner)
	}
	if session.Account.EmailVerified {
		t.Fatal("new account must start unverified")
	}

	stored, err := store.FindByID(context.Background(), session.Account.ID)
	if err != nil || stored == nil {
		t.Fatalf("FindByID: account=%v err=%v", stored, err)
	}
	if stored.PasswordHash == "s3cret!pass" {
		t.Fatal("password stored in plaintext")
	}
	if stored.LastLoginAt == nil {
		t.Fatal("auto-login must record last login")
	}
}

func TestRegisterDuplicateLeavesStoreUntouched(t *testing.T) {
	svc, _, store := newTestService(t)
	register(t, svc, "alice")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "pw123456",
	})
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("duplicate username: err = %v, want ErrAccountExists", err)
	}

	_, err = svc.Register(context.Background(), RegisterRequest{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "pw123456",
	})
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("duplicate email: err = %v, want ErrAccountExists", err)
	}

	if got := store.count(); got != 1 {
		t.Fatalf("store holds %d accounts, want 1", got)
	}
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "alice")
	ctx := context.Background()

	if _, err := svc.Login(ctx, "alice", "s3cret!pass"); err != nil {
		t.Fatalf("login by username: %v", err)
	}
	if _, err := svc.Login(ctx, "alice@example.com", "s3cret!pass"); err != nil {
		t.Fatalf("login by email: %v", err)
	}
}

func TestLoginRejections(t *testing.T) {
	svc, _, store := newTestService(t)
	session := register(t, svc, "alice")
	ctx := context.Background()

	if _, err := svc.Login(ctx, "nobody", "pw"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown identifier: err = %v, want ErrUserNotFound", err)
	}
	if _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad password: err = %v, want ErrInvalidCredentials", err)
	}
	// Empty inputs take the normal resolution order: an empty identifier
	// matches no account, an empty password fails verification.
	if _, err := svc.Login(ctx, "", "pw"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("empty identifier: err = %v, want ErrUserNotFound", err)
	}
	if _, err := svc.Login(ctx, "alice", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("empty password: err = %v, want ErrInvalidCredentials", err)
	}

	if err := store.UpdateStatus(ctx, session.Account.ID, false, time.Now()); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Login(ctx, "alice", "s3cret!pass"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("disabled account: err = %v, want ErrAccountDisabled", err)
	}
}

func TestRefreshReturnsSameRefreshToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := register(t, svc, "alice")
	ctx := context.Background()

	renewed, err := svc.Refresh(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if renewed.RefreshToken != session.RefreshToken {
		t.Fatal("refresh must not rotate the refresh token")
	}
	if renewed.AccessToken == "" {
		t.Fatal("expected a new access token")
	}
	if !svc.Validate(ctx, renewed.AccessToken) {
		t.Fatal("reissued access token must validate")
	}

	// The same refresh token keeps working.
	if _, err := svc.Refresh(ctx, session.RefreshToken); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
}

func TestRefreshRejectsWrongInputs(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := register(t, svc, "alice")
	ctx := context.Background()

	if _, err := svc.Refresh(ctx, ""); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("empty: err = %v, want ErrEmptyToken", err)
	}
	if _, err := svc.Refresh(ctx, "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage: err = %v, want ErrInvalidToken", err)
	}
	if _, err := svc.Refresh(ctx, session.AccessToken); !errors.Is(err, ErrWrongTokenClass) {
		t.Fatalf("access token on refresh path: err = %v, want ErrWrongTokenClass", err)
	}
}

func TestSecondLoginRevokesFirstRefresh(t *testing.T) {
	svc, _, _ := newTestService(t)
	first := register(t, svc, "alice")
	ctx := context.Background()

	second, err := svc.Login(ctx, "alice", "s3cret!pass")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("each login must issue a distinct refresh token")
	}

	if _, err := svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrRefreshRevoked) {
		t.Fatalf("old refresh token: err = %v, want ErrRefreshRevoked", err)
	}
	if _, err := svc.Refresh(ctx, second.RefreshToken); err != nil {
		t.Fatalf("new refresh token: %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := register(t, svc, "alice")
	ctx := context.Background()

	if !svc.Validate(ctx, session.AccessToken) {
		t.Fatal("fresh access token must validate")
	}
	if err := svc.Logout(ctx, session.AccessToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if svc.Validate(ctx, session.AccessToken) {
		t.Fatal("access token must be rejected after logout")
	}
	if _, err := svc.Refresh(ctx, session.RefreshToken); !errors.Is(err, ErrRefreshRevoked) {
		t.Fatalf("refresh after logout: err = %v, want ErrRefreshRevoked", err)
	}

	// Idempotent: a second logout and a garbage token both succeed.
	if err := svc.Logout(ctx, session.AccessToken); err != nil {
		t.Fatalf("repeat logout: %v", err)
	}
	if err := svc.Logout(ctx, "not-a-token"); err != nil {
		t.Fatalf("garbage logout: %v", err)
	}
}

func TestIntrospectReturnsIdentity(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := register(t, svc, "alice")
	ctx := context.Background()

	result, err := svc.Introspect(ctx, "Bearer "+session.AccessToken)
	if err != nil {
		t.Fatalf("Introspect: %v", err)
	}
	if result.AccountID != session.Account.ID {
		t.Fatalf("AccountID = %d, want %d", result.AccountID, session.Account.ID)
	}
	if result.Role != RoleLearner {
		t.Fatalf("Role = %q, want %q", result.Role, RoleLearner)
	}

	if _, err := svc.Introspect(ctx, session.RefreshToken); !errors.Is(err, ErrWrongTokenClass) {
		t.Fatalf("refresh token on validate path: err = %v, want ErrWrongTokenClass", err)
	}
	if _, err := svc.Introspect(ctx, ""); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("empty token: err = %v, want ErrEmptyToken", err)
	}
}

func TestValidateFailsClosedOnCacheOutage(t *testing.T) {
	svc, mr, _ := newTestService(t)
	session := register(t, svc, "alice")
	ctx := context.Background()

	mr.SetError("connection refused")
	defer mr.SetError("")

	if svc.Validate(ctx, session.AccessToken) {
		t.Fatal("validation must fail closed when the cache is unreachable")
	}
}

func TestValidateFalseAfterAccessExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("test-secret-at-least-32-bytes-long")
	cfg.JWT.AccessTTL = 50 * time.Millisecond
	cfg.Audit.Enabled = false

	svc, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserStore(newMemoryStore()).
		WithPasswordHasher(plainHasher{}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(svc.Close)

	session := register(t, svc, "alice")
	ctx := context.Background()

	if !svc.Validate(ctx, session.AccessToken) {
		t.Fatal("fresh access token must validate")
	}

	time.Sleep(100 * time.Millisecond)
	if svc.Validate(ctx, session.AccessToken) {
		t.Fatal("access token must be rejected after its lifetime elapses")
	}
	// The refresh token outlives the access token and still works.
	if _, err := svc.Refresh(ctx, session.RefreshToken); err != nil {
		t.Fatalf("refresh after access expiry: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := register(t, svc, "alice")
	ctx := context.Background()
	id := session.Account.ID

	if err := svc.ChangePassword(ctx, id, "wrong", "newpass123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong current password: err = %v, want ErrInvalidCredentials", err)
	}
	if err := svc.ChangePassword(ctx, id, "s3cret!pass", "newpass123"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "s3cret!pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password after change: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, "alice", "newpass123"); err != nil {
		t.Fatalf("new password: %v", err)
	}

	// The pre-change session lost its refresh capability.
	if _, err := svc.Refresh(ctx, session.RefreshToken); !errors.Is(err, ErrRefreshRevoked) {
		t.Fatalf("refresh after password change: err = %v, want ErrRefreshRevoked", err)
	}
}

func TestEmailVerificationLifecycle(t *testing.T) {
	svc, _, store := newTestService(t)
	session := register(t, svc, "alice")
	ctx := context.Background()
	id := session.Account.ID

	challenge, err := svc.RequestEmailVerification(ctx, id)
	if err != nil {
		t.Fatalf("RequestEmailVerification: %v", err)
	}
	if challenge == "" {
		t.Fatal("expected a non-empty challenge")
	}

	if err := svc.ConfirmEmailVerification(ctx, challenge); err != nil {
		t.Fatalf("ConfirmEmailVerification: %v", err)
	}
	account, _ := store.FindByID(ctx, id)
	if !account.EmailVerified {
		t.Fatal("account must be marked verified")
	}

	// Single use.
	if err := svc.ConfirmEmailVerification(ctx, challenge); !errors.Is(err, ErrVerificationInvalid) {
		t.Fatalf("reused challenge: err = %v, want ErrVerificationInvalid", err)
	}
	if err := svc.ConfirmEmailVerification(ctx, "unknown-challenge"); !errors.Is(err, ErrVerificationInvalid) {
		t.Fatalf("unknown challenge: err = %v, want ErrVerificationInvalid", err)
	}
	if _, err := svc.RequestEmailVerification(ctx, id); !errors.Is(err, ErrVerificationInvalid) {
		t.Fatalf("request for verified account: err = %v, want ErrVerificationInvalid", err)
	}
}

func TestVerificationChallengeExpires(t *testing.T) {
	svc, mr, _ := newTestService(t)
	session := register(t, svc, "alice")
	ctx := context.Background()

	challenge, err := svc.RequestEmailVerification(ctx, session.Account.ID)
	if err != nil {
		t.Fatal(err)
	}

	mr.FastForward(25 * time.Hour)
	if err := svc.ConfirmEmailVerification(ctx, challenge); !errors.Is(err, ErrVerificationInvalid) {
		t.Fatalf("expired challenge: err = %v, want ErrVerificationInvalid", err)
	}
}

func TestDeactivationRevokesRefresh(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := register(t, svc, "alice")
	ctx := context.Background()
	id := session.Account.ID

	if err := svc.SetAccountActive(ctx, id, false); err != nil {
		t.Fatalf("SetAccountActive: %v", err)
	}
	if _, err := svc.Refresh(ctx, session.RefreshToken); !errors.Is(err, ErrRefreshRevoked) {
		t.Fatalf("refresh after deactivation: err = %v, want ErrRefreshRevoked", err)
	}
	if _, err := svc.Login(ctx, "alice", "s3cret!pass"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("login after deactivation: err = %v, want ErrAccountDisabled", err)
	}

	if err := svc.SetAccountActive(ctx, id, true); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Login(ctx, "alice", "s3cret!pass"); err != nil {
		t.Fatalf("login after reactivation: %v", err)
	}
}

func TestMetricsCounters(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	register(t, svc, "alice")
	if _, err := svc.Login(ctx, "alice", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}
	if _, err := svc.Login(ctx, "alice", "s3cret!pass"); err != nil {
		t.Fatal(err)
	}

	snap := svc.MetricsSnapshot()
	if got := snap.Counters[MetricRegisterSuccess]; got != 1 {
		t.Fatalf("register counter = %d, want 1", got)
	}
	if got := snap.Counters[MetricLoginSuccess]; got != 1 {
		t.Fatalf("login success counter = %d, want 1", got)
	}
	if got := snap.Counters[MetricLoginFailure]; got != 1 {
		t.Fatalf("login failure counter = %d, want 1", got)
	}
}

func TestAuditEventsFlow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("test-secret-at-least-32-bytes-long")
	cfg.Audit.BufferSize = 16
	cfg.Audit.DropIfFull = false

	sink := NewChannelSink(16)
	svc, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserStore(newMemoryStore()).
		WithPasswordHasher(plainHasher{}).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx := WithClientIP(context.Background(), "203.0.113.7")
	if _, err := svc.Register(ctx, RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "pw123456",
	}); err != nil {
		t.Fatal(err)
	}
	svc.Close()

	select {
	case event := <-sink.Events():
		if event.EventType != AuditRegisterSuccess {
			t.Fatalf("EventType = %q, want %q", event.EventType, AuditRegisterSuccess)
		}
		if !event.Success {
			t.Fatal("expected a success event")
		}
		if event.IP != "203.0.113.7" {
			t.Fatalf("IP = %q, want the context client IP", event.IP)
		}
	case <-time.After(time.Second):
		t.Fatal("no audit event received")
	}
}

func TestBearerPrefixAccepted(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := register(t, svc, "alice")
	ctx := context.Background()

	if !svc.Validate(ctx, "Bearer "+session.AccessToken) {
		t.Fatal("Bearer-prefixed access token must validate")
	}
	if err := svc.Logout(ctx, "Bearer "+session.AccessToken); err != nil {
		t.Fatalf("Bearer-prefixed logout: %v", err)
	}
	if svc.Validate(ctx, session.AccessToken) {
		t.Fatal("token must be revoked after prefixed logout")
	}
}

func TestRefreshSurvivesWhitespace(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := register(t, svc, "alice")

	padded := "  " + session.RefreshToken + "  "
	if _, err := svc.Refresh(context.Background(), padded); err != nil {
		t.Fatalf("whitespace-padded refresh: %v", err)
	}
}
