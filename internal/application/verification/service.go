package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shop-api-nosql/internal/domain"
	"github.com/shop-api-nosql/internal/pkg/otp"
)

// Account is the capability every verifiable account kind implements.
// Users and drivers both satisfy it, so the code lifecycle below never
// needs to know which concrete entity it is serving.
type Account interface {
	AccountID() string
	ContactEmail() string
}

// Distinct failure kinds for code redemption. Handlers collapse Invalid
// and Expired into one uniform client message; the sentinels stay
// separate so logs and callers can tell them apart.
var (
	ErrCodeNotFound = fmt.Errorf("no verification code outstanding: %w", domain.ErrNotFound)
	ErrCodeInvalid  = fmt.Errorf("verification code mismatch: %w", domain.ErrUnauthorized)
	ErrCodeExpired  = fmt.Errorf("verification code expired: %w", domain.ErrUnauthorized)
)

type codeStore interface {
	Put(ctx context.Context, v *domain.VerificationCode) error
	Get(ctx context.Context, ownerID string) (*domain.VerificationCode, error)
	Delete(ctx context.Context, ownerID string) error
}

// Service owns the one-time code lifecycle: issue, redeem, reissue.
// An account has at most one live code; issuing overwrites any previous
// one and restarts the validity window from zero.
type Service interface {
	Issue(ctx context.Context, account Account, purpose string) (string, error)
	Validate(ctx context.Context, ownerID, submitted, purpose string) error
	Resend(ctx context.Context, account Account, purpose string) (string, error)
}

type service struct {
	codes      codeStore
	codeLength int
	validity   time.Duration
	now        func() time.Time
}

type ServiceDeps struct {
	CodeRepo   codeStore
	CodeLength int           // zero means otp.DefaultLength
	Validity   time.Duration // zero means 60 minutes
	Now        func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		codes:      deps.CodeRepo,
		codeLength: deps.CodeLength,
		validity:   deps.Validity,
		now:        deps.Now,
	}
	if s.codeLength <= 0 {
		s.codeLength = otp.DefaultLength
	}
	if s.validity <= 0 {
		s.validity = 60 * time.Minute
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Issue generates a fresh code for the account and stores it, replacing
// any outstanding one. The plaintext code is returned for the caller to
// hand to the mailer or SMS sender; it is never persisted anywhere else.
func (s *service) Issue(ctx context.Context, account Account, purpose string) (string, error) {
	code, err := otp.Generate(s.codeLength)
	if err != nil {
		return "", err
	}
	v := &domain.VerificationCode{
		OwnerID:  account.AccountID(),
		Code:     code,
		Purpose:  purpose,
		IssuedAt: s.now().Unix(),
	}
	if err := s.codes.Put(ctx, v); err != nil {
		return "", fmt.Errorf("store verification code: %w", err)
	}
	return code, nil
}

// Validate redeems a submitted code. Checks run in a fixed order:
// existence, then match, then expiry — so an expired record with a wrong
// code reports a mismatch, never revealing whether the submitted value
// was once correct. A mismatch leaves the stored record untouched.
// The record's purpose must match the redeeming flow, so a password
// reset code cannot confirm an email address or vice versa. Success
// deletes the record, so a second submission of the same code fails
// with ErrCodeNotFound.
func (s *service) Validate(ctx context.Context, ownerID, submitted, purpose string) error {
	v, err := s.codes.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrCodeNotFound
		}
		return err
	}
	if v.Code != submitted {
		slog.Info("verification code rejected", "owner_id", ownerID, "reason", "mismatch")
		return ErrCodeInvalid
	}
	if v.Purpose != purpose {
		slog.Info("verification code rejected", "owner_id", ownerID, "reason", "purpose")
		return ErrCodeInvalid
	}
	if s.now().Sub(time.Unix(v.IssuedAt, 0)) > s.validity {
		slog.Info("verification code rejected", "owner_id", ownerID, "reason", "expired")
		return ErrCodeExpired
	}
	// Consumption must be durable or the code could be replayed.
	if err := s.codes.Delete(ctx, ownerID); err != nil {
		return fmt.Errorf("consume verification code: %w", err)
	}
	return nil
}

// Resend is a full reissue: same path as Issue, fresh code, fresh window.
func (s *service) Resend(ctx context.Context, account Account, purpose string) (string, error) {
	return s.Issue(ctx, account, purpose)
}
