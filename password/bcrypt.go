package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes and verifies passwords with bcrypt. Accounts imported from
// the previous platform carry bcrypt hashes; new deployments should prefer
// [Argon2].
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt hasher. A cost of 0 selects bcrypt.DefaultCost.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	return &Bcrypt{cost: cost}, nil
}

// Hash derives a bcrypt hash with a fresh random salt.
func (b *Bcrypt) Hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether password matches encodedHash. A mismatch is not an
// error; errors indicate a malformed hash.
func (b *Bcrypt) Verify(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
