package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shop-api-nosql/internal/application/verification"
	"github.com/shop-api-nosql/internal/domain"
	"github.com/shop-api-nosql/internal/pkg/id"
	pkgtoken "github.com/shop-api-nosql/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldActive       = "active"
	fieldVerified     = "verified"
	fieldPasswordHash = "password_hash"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Bearer       string
	RefreshToken string
	Session      *domain.Session
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type ResendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirm struct {
	Email           string `json:"email" validate:"required,email"`
	Code            string `json:"code" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	VerifyEmail(ctx context.Context, req VerifyEmailRequest) error
	ResendCode(ctx context.Context, req ResendCodeRequest) error
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
	Logout(ctx context.Context, sessionID string) error
	LogoutAll(ctx context.Context, userID string) error
	RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error
	ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirm) error
	ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error
}

type userStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
	DisableByUser(ctx context.Context, userID string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type jwtSigner interface {
	Sign(accountID, role, sessionID string) (string, error)
}

type service struct {
	users           userStore
	sessions        sessionStore
	codes           verification.Service
	mailer          mailer
	jwtProvider     jwtSigner
	refreshTokenDur time.Duration
	validityMinutes int
	renderVerify    func(code string, validityMinutes int) (string, string)
	renderReset     func(code string, validityMinutes int) (string, string)
}

type ServiceDeps struct {
	UserRepo        userStore
	SessionRepo     sessionStore
	Verification    verification.Service
	Mailer          mailer
	JWTProvider     jwtSigner
	RefreshTokenDur time.Duration
	OTPValidity     time.Duration
	// Email templates; wired from the smtp package in main.
	RenderVerificationEmail  func(code string, validityMinutes int) (subject, body string)
	RenderPasswordResetEmail func(code string, validityMinutes int) (subject, body string)
}

func NewService(deps ServiceDeps) Service {
	validityMinutes := int(deps.OTPValidity.Minutes())
	if validityMinutes <= 0 {
		validityMinutes = 60
	}
	return &service{
		users:           deps.UserRepo,
		sessions:        deps.SessionRepo,
		codes:           deps.Verification,
		mailer:          deps.Mailer,
		jwtProvider:     deps.JWTProvider,
		refreshTokenDur: deps.RefreshTokenDur,
		validityMinutes: validityMinutes,
		renderVerify:    deps.RenderVerificationEmail,
		renderReset:     deps.RenderPasswordResetEmail,
	}
}

// Register creates the account inactive and unverified, then issues a
// signup code and emails it. The account stays unusable until VerifyEmail
// flips it on.
func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Active:       false,
		Verified:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}
	if err := s.sendCode(ctx, u, domain.PurposeSignup); err != nil {
		return nil, err
	}
	return u, nil
}

// VerifyEmail redeems a signup code and activates the account.
func (s *service) VerifyEmail(ctx context.Context, req VerifyEmailRequest) error {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if err := s.codes.Validate(ctx, u.UserID, req.Code, domain.PurposeSignup); err != nil {
		return err
	}
	return s.users.Update(ctx, u.UserID, map[string]interface{}{
		fieldVerified: true,
		fieldActive:   true,
	})
}

// ResendCode reissues the signup code. The previous code stops working
// immediately and the validity window restarts.
func (s *service) ResendCode(ctx context.Context, req ResendCodeRequest) error {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if u.Verified {
		return fmt.Errorf("account already verified: %w", domain.ErrConflict)
	}
	return s.sendCode(ctx, u, domain.PurposeSignup)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.Verified || !u.Active {
		return nil, fmt.Errorf("account is not active, verify your email first: %w", domain.ErrForbidden)
	}

	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		Role:             u.Role,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return &LoginResult{Bearer: bearer, RefreshToken: refreshToken, Session: sess}, nil
}

// Refresh rotates the refresh token: the presented token is replaced in
// the session record, so it cannot be reused.
func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("invalid or expired refresh token: %w", domain.ErrUnauthorized)
	}
	if !sess.Enable || sess.RefreshExpiresAt < time.Now().Unix() {
		return "", "", fmt.Errorf("invalid or expired refresh token: %w", domain.ErrUnauthorized)
	}
	role := sess.Role
	if role != domain.RoleDriver {
		// User sessions re-read the account so a role change or a
		// disabled account takes effect on the next refresh. Driver
		// sessions carry their role on the record.
		u, err := s.users.Get(ctx, sess.UserID)
		if err != nil {
			return "", "", err
		}
		if !u.Active {
			return "", "", fmt.Errorf("account is disabled: %w", domain.ErrForbidden)
		}
		role = u.Role
	}
	newToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	if err := s.sessions.Update(ctx, sess.SessionID, map[string]interface{}{
		"refresh_token":      newToken,
		"refresh_expires_at": time.Now().Add(s.refreshTokenDur).Unix(),
	}); err != nil {
		return "", "", err
	}
	bearer, err := s.jwtProvider.Sign(sess.UserID, role, sess.SessionID)
	if err != nil {
		return "", "", err
	}
	return bearer, newToken, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Update(ctx, sessionID, map[string]interface{}{"enable": false})
}

// LogoutAll disables every session of the user, invalidating all their
// outstanding refresh tokens at once.
func (s *service) LogoutAll(ctx context.Context, userID string) error {
	return s.sessions.DisableByUser(ctx, userID)
}

// RequestPasswordReset issues a reset code and emails it. An unknown
// email is treated as success so the endpoint cannot be used to probe
// which addresses have accounts; the miss is still logged.
func (s *service) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}
	return s.sendCode(ctx, u, domain.PurposePasswordReset)
}

// ConfirmPasswordReset redeems the reset code and overwrites the password.
func (s *service) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirm) error {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if err := s.codes.Validate(ctx, u.UserID, req.Code, domain.PurposePasswordReset); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, u.UserID, map[string]interface{}{fieldPasswordHash: string(hash)})
}

func (s *service) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{fieldPasswordHash: string(hash)})
}

// sendCode issues (or reissues) a code for the account and delivers it by
// email. Delivery failure surfaces to the caller as a server error; there
// is no internal retry — the user can request a resend.
func (s *service) sendCode(ctx context.Context, u *domain.User, purpose string) error {
	code, err := s.codes.Issue(ctx, u, purpose)
	if err != nil {
		return err
	}
	var subject, body string
	if purpose == domain.PurposePasswordReset {
		subject, body = s.renderReset(code, s.validityMinutes)
	} else {
		subject, body = s.renderVerify(code, s.validityMinutes)
	}
	if err := s.mailer.SendEmail(u.Email, subject, body); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}
