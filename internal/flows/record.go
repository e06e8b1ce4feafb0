package flows

// AccountRecord is the flow-level view of an account. It mirrors the fields
// the credential store exposes without importing the root package.
type AccountRecord struct {
	ID            int64
	Username      string
	Email         string
	FullName      string
	AvatarURL     string
	PasswordHash  string
	Role          string
	Active        bool
	EmailVerified bool
}
