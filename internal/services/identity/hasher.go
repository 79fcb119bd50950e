package identity

import (
	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher is the production PasswordHasher.
type BcryptHasher struct {
	Cost int
}

var _ interfaces.PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher creates a hasher at the default cost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: bcrypt.DefaultCost}
}

// Hash derives a bcrypt hash from the plaintext.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify compares plaintext against a stored hash.
func (h *BcryptHasher) Verify(plaintext, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)); err != nil {
		return models.NewError(models.CodeUnauthenticated, "invalid credentials")
	}
	return nil
}
