package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/glowcart-dev/glowcart/internal/assert"
	"github.com/glowcart-dev/glowcart/internal/models"
)

const (
	codeDigits = 6
	codeTTL    = 10 * time.Minute
)

var (
	ErrNotFound    = errors.New("no pending verification for this email")
	ErrExpired     = errors.New("verification code expired")
	ErrMismatch    = errors.New("verification code does not match")
	ErrNotVerified = errors.New("email has not been verified")
	ErrAlreadyUsed = errors.New("verification already used")
)

// Service issues and checks one-time email verification codes
type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewService creates a new OTP service
func NewService(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "otp").Logger(),
	}
}

// Issue creates a fresh code for the email/purpose pair, replacing any
// earlier pending challenge. The plaintext code is returned once for
// delivery and only its hash is stored.
func (s *Service) Issue(email, purpose string) (string, *models.EmailVerification, error) {
	code, err := generateCode()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate code: %w", err)
	}

	// A new request invalidates older pending challenges for the same pair
	if err := s.db.
		Where("email = ? AND purpose = ? AND verified = ?", email, purpose, false).
		Delete(&models.EmailVerification{}).Error; err != nil {
		return "", nil, fmt.Errorf("failed to clear pending verifications: %w", err)
	}

	verification := &models.EmailVerification{
		Email:     email,
		CodeHash:  hashCode(code),
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(codeTTL),
	}
	if err := s.db.Create(verification).Error; err != nil {
		return "", nil, fmt.Errorf("failed to store verification: %w", err)
	}

	s.logger.Info().
		Str("verification_id", verification.ID).
		Str("purpose", purpose).
		Msg("OTP issued")

	return code, verification, nil
}

// Verify checks a submitted code and marks the challenge verified on match.
func (s *Service) Verify(email, code, purpose string) (*models.EmailVerification, error) {
	var verification models.EmailVerification
	err := s.db.
		Where("email = ? AND purpose = ? AND verified = ?", email, purpose, false).
		Order("created_at DESC").
		First(&verification).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load verification: %w", err)
	}

	if time.Now().After(verification.ExpiresAt) {
		return nil, ErrExpired
	}
	if hashCode(code) != verification.CodeHash {
		return nil, ErrMismatch
	}

	verification.Verified = true
	if err := s.db.Save(&verification).Error; err != nil {
		return nil, fmt.Errorf("failed to mark verification: %w", err)
	}

	s.logger.Info().
		Str("verification_id", verification.ID).
		Str("purpose", purpose).
		Msg("OTP verified")

	return &verification, nil
}

// Consume marks a verified challenge as used. Registration calls this so a
// verified email cannot back two accounts.
func (s *Service) Consume(email, purpose string) error {
	var verification models.EmailVerification
	err := s.db.
		Where("email = ? AND purpose = ? AND verified = ?", email, purpose, true).
		Order("created_at DESC").
		First(&verification).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotVerified
		}
		return fmt.Errorf("failed to load verification: %w", err)
	}

	if verification.UsedAt != nil {
		return ErrAlreadyUsed
	}

	now := time.Now()
	verification.UsedAt = &now
	if err := s.db.Save(&verification).Error; err != nil {
		return fmt.Errorf("failed to consume verification: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired unverified challenges. Returns rows removed.
func (s *Service) PurgeExpired() (int64, error) {
	result := s.db.
		Where("expires_at < ? AND verified = ?", time.Now(), false).
		Delete(&models.EmailVerification{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge verifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// generateCode produces a uniformly random 6-digit code
func generateCode() (string, error) {
	max := big.NewInt(1)
	max.Exp(big.NewInt(10), big.NewInt(codeDigits), nil)

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	code := fmt.Sprintf("%0*d", codeDigits, n)
	assert.Length(code, codeDigits)
	assert.Digits(code)
	return code, nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
