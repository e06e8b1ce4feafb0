package courseauth

import (
	"errors"

	"github.com/progplatform/courseauth/token"
)

var (
	// ErrAccountExists is returned by Register when the username or email is
	// already taken. No account mutation happens on this path.
	ErrAccountExists = errors.New("account already exists")
	// ErrUserNotFound is returned when no account resolves for the given
	// identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when password verification fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled is returned when the account's active flag is off.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrEmptyToken is returned when a token-consuming operation receives an
	// empty string.
	ErrEmptyToken = errors.New("token must not be empty")
	// ErrInvalidToken mirrors token.ErrInvalidToken at the service surface.
	ErrInvalidToken = token.ErrInvalidToken
	// ErrWrongTokenClass mirrors token.ErrWrongClass at the service surface.
	ErrWrongTokenClass = token.ErrWrongClass
	// ErrRefreshRevoked is returned when the presented refresh token no
	// longer matches the stored record — it was rotated out by a newer login
	// or revoked by logout.
	ErrRefreshRevoked = errors.New("refresh token revoked")
	// ErrVerificationInvalid is returned when an email-verification
	// challenge is unknown or expired.
	ErrVerificationInvalid = errors.New("email verification challenge invalid")
	// ErrServiceNotReady is returned when a Service method is called on a
	// nil or incompletely built Service.
	ErrServiceNotReady = errors.New("service not ready")
)
