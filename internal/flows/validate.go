package flows

import (
	"context"

	"github.com/progplatform/courseauth/token"
)

// ValidateFailureKind classifies validation failures for root-level
// mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureDecode
	ValidateFailureWrongClass
	ValidateFailureBlacklisted
	ValidateFailureCache
)

// ValidateResult returns decoded claims on success or a classified failure.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  *token.Claims
}

// ValidateDeps captures validation flow dependencies.
type ValidateDeps struct {
	ParseToken    func(string) (*token.Claims, error)
	RequireAccess func(*token.Claims) error
	IsBlacklisted func(context.Context, string) (bool, error)
}

// RunValidate checks an access token: signature, expiry, class and the
// revocation blacklist, in that order. Cache failures are classified
// separately so the root can fail closed while still logging the cause.
func RunValidate(ctx context.Context, raw string, deps ValidateDeps) ValidateResult {
	claims, err := deps.ParseToken(raw)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureDecode, Err: err}
	}
	if err := deps.RequireAccess(claims); err != nil {
		return ValidateResult{Failure: ValidateFailureWrongClass, Err: err, Claims: claims}
	}

	listed, err := deps.IsBlacklisted(ctx, raw)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureCache, Err: err, Claims: claims}
	}
	if listed {
		return ValidateResult{Failure: ValidateFailureBlacklisted, Claims: claims}
	}

	return ValidateResult{Claims: claims}
}
