package identity

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/lastmile/admin-api/internal/core/ports"
)

// BcryptHasher implements ports.CredentialVerifier with bcrypt.
type BcryptHasher struct {
	cost int
}

var _ ports.CredentialVerifier = BcryptHasher{}

func NewBcryptHasher() BcryptHasher {
	return BcryptHasher{cost: bcrypt.DefaultCost}
}

func (h BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
