package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"nextlevel/api/internal/apperrors"
	"nextlevel/api/internal/cache"
	"nextlevel/api/internal/config"
	"nextlevel/api/internal/models"
	"nextlevel/api/internal/strutil"
)

// OTPStore is the storage contract for one-time codes.
type OTPStore interface {
	Upsert(ctx context.Context, email, codeHash string, expiresAt time.Time) (models.OTP, error)
	FindByEmail(ctx context.Context, email string) (models.OTP, error)
	IncrementAttempts(ctx context.Context, email string) error
	DeleteByEmail(ctx context.Context, email string) error
}

// OTPSender delivers the code to the user. The SMTP mailer implements
// it; tests substitute a recorder.
type OTPSender interface {
	SendOTP(ctx context.Context, to, code string, expiry time.Duration) error
}

// VerifyResult reports the outcome of a verification attempt without
// raising; invalid codes are expected traffic, not errors.
type VerifyResult struct {
	Success bool
	Message string
}

type OTPService struct {
	store  OTPStore
	sender OTPSender
	cache  *cache.Cache
	cfg    config.OTPConfig
	log    zerolog.Logger
}

func NewOTPService(store OTPStore, sender OTPSender, c *cache.Cache, cfg config.OTPConfig, log zerolog.Logger) *OTPService {
	return &OTPService{
		store:  store,
		sender: sender,
		cache:  c,
		cfg:    cfg,
		log:    log,
	}
}

// generateCode builds a crypto-random numeric code of the given width.
func generateCode(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		fmt.Fprintf(&b, "%d", n.Int64())
	}
	return b.String(), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Request generates a fresh 6-digit code for the email, upserts its
// hash and emails the plaintext code. A Redis cooldown guard rejects
// rapid re-requests for the same address.
func (s *OTPService) Request(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	}

	if s.cache != nil && s.cfg.ResendCooldown > 0 {
		ok, err := s.cache.SetNX(ctx, "otp:cooldown:"+email, "1", s.cfg.ResendCooldown)
		if err != nil {
			s.log.Warn().Err(err).Msg("otp cooldown check failed")
		} else if !ok {
			return fmt.Errorf("%w: please wait before requesting another code", apperrors.ErrValidation)
		}
	}

	code, err := generateCode(6)
	if err != nil {
		return err
	}

	expiresAt := time.Now().UTC().Add(s.cfg.Expiry)
	if _, err := s.store.Upsert(ctx, email, hashCode(code), expiresAt); err != nil {
		return err
	}

	if err := s.sender.SendOTP(ctx, email, code, s.cfg.Expiry); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}

	s.log.Info().Str("email", strutil.Mask(email, 2, 4)).Msg("otp sent")
	return nil
}

// Verify checks a submitted code against the stored hash. Wrong codes
// burn an attempt; expiry and the attempt ceiling both invalidate the
// record for this flow. The record is deleted on success.
func (s *OTPService) Verify(ctx context.Context, email, code string) (VerifyResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	record, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return VerifyResult{Message: "OTP not found."}, nil
		}
		return VerifyResult{}, err
	}

	if record.ExpiresAt.Before(time.Now()) {
		return VerifyResult{Message: "OTP has expired."}, nil
	}

	if record.Attempts >= s.cfg.MaxAttempts {
		return VerifyResult{Message: "Too many attempts. Please request a new OTP."}, nil
	}

	if hashCode(code) != record.CodeHash {
		if err := s.store.IncrementAttempts(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("otp attempt increment failed")
		}
		return VerifyResult{Message: "Invalid OTP."}, nil
	}

	if err := s.store.DeleteByEmail(ctx, email); err != nil {
		return VerifyResult{}, err
	}

	return VerifyResult{Success: true, Message: "OTP verified successfully."}, nil
}

// Clear drops any pending code for the email.
func (s *OTPService) Clear(ctx context.Context, email string) error {
	return s.store.DeleteByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
}
