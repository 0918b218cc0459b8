package services

import (
	"fmt"

	"github.com/hkunkel2/habit-quest-api/internal/crypto"
	"github.com/hkunkel2/habit-quest-api/internal/models"
)

// EncryptionService protects the personal fields of a user record.
type EncryptionService struct {
	cipher *crypto.FieldCipher
}

func NewEncryptionService(encryptionKey, blindIndexKey []byte) (*EncryptionService, error) {
	c, err := crypto.NewFieldCipher(encryptionKey, blindIndexKey)
	if err != nil {
		return nil, err
	}
	return &EncryptionService{cipher: c}, nil
}

// SealUser encrypts the email in place and sets its blind index.
func (s *EncryptionService) SealUser(u *models.User) error {
	sealed, err := s.cipher.Seal(u.Email)
	if err != nil {
		return fmt.Errorf("seal user email: %w", err)
	}
	u.EmailBlindIndex = s.cipher.BlindIndex(u.Email)
	u.Email = sealed
	return nil
}

// OpenUser decrypts the email in place.
func (s *EncryptionService) OpenUser(u *models.User) error {
	plain, err := s.cipher.Open(u.Email)
	if err != nil {
		return fmt.Errorf("open user %s email: %w", u.ID, err)
	}
	u.Email = plain
	return nil
}

func (s *EncryptionService) EmailIndex(email string) string {
	return s.cipher.BlindIndex(email)
}
