package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shop-api-nosql/internal/application/verification"
	"github.com/shop-api-nosql/internal/domain"
	"github.com/shop-api-nosql/internal/pkg/id"
	pkgtoken "github.com/shop-api-nosql/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

const (
	fieldActive    = "active"
	fieldVerified  = "verified"
	fieldKYCStatus = "kyc_status"
)

type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type ResendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ReviewKYCRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Bearer       string
	RefreshToken string
}

type Service interface {
	Register(ctx context.Context, req domain.CreateDriverRequest) (*domain.Driver, error)
	Verify(ctx context.Context, req VerifyRequest) error
	ResendCode(ctx context.Context, req ResendRequest) error
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Get(ctx context.Context, driverID string) (*domain.Driver, error)
	SubmitKYC(ctx context.Context, driverID string) error
	ReviewKYC(ctx context.Context, driverID string, req ReviewKYCRequest) error
}

type driverStore interface {
	Put(ctx context.Context, d *domain.Driver) error
	Get(ctx context.Context, driverID string) (*domain.Driver, error)
	GetByEmail(ctx context.Context, email string) (*domain.Driver, error)
	Update(ctx context.Context, driverID string, updates map[string]interface{}) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
}

type jwtSigner interface {
	Sign(accountID, role, sessionID string) (string, error)
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type service struct {
	drivers         driverStore
	sessions        sessionStore
	codes           verification.Service
	mailer          mailer
	sms             smsSender
	jwtProvider     jwtSigner
	refreshTokenDur time.Duration
	validityMinutes int
	renderVerify    func(code string, validityMinutes int) (string, string)
	renderKYC       func() (string, string)
}

type ServiceDeps struct {
	DriverRepo      driverStore
	SessionRepo     sessionStore
	Verification    verification.Service
	Mailer          mailer
	SMSSender       smsSender // optional; email is used when nil or no phone
	JWTProvider     jwtSigner
	RefreshTokenDur time.Duration
	OTPValidity     time.Duration

	RenderVerificationEmail func(code string, validityMinutes int) (subject, body string)
	RenderKYCSubmittedEmail func() (subject, body string)
}

func NewService(deps ServiceDeps) Service {
	validityMinutes := int(deps.OTPValidity.Minutes())
	if validityMinutes <= 0 {
		validityMinutes = 60
	}
	return &service{
		drivers:         deps.DriverRepo,
		sessions:        deps.SessionRepo,
		codes:           deps.Verification,
		mailer:          deps.Mailer,
		sms:             deps.SMSSender,
		jwtProvider:     deps.JWTProvider,
		refreshTokenDur: deps.RefreshTokenDur,
		validityMinutes: validityMinutes,
		renderVerify:    deps.RenderVerificationEmail,
		renderKYC:       deps.RenderKYCSubmittedEmail,
	}
}

// Register creates a driver account inactive and unverified, then sends
// a verification code. Drivers go through exactly the same code
// lifecycle as users — the verification service only sees an account ID.
func (s *service) Register(ctx context.Context, req domain.CreateDriverRequest) (*domain.Driver, error) {
	if _, err := s.drivers.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	d := &domain.Driver{
		DriverID:      id.New(),
		Email:         req.Email,
		Phone:         req.Phone,
		PasswordHash:  string(hash),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		LicenseNumber: req.LicenseNumber,
		VehicleReg:    req.VehicleReg,
		KYCStatus:     domain.KYCNotSubmitted,
		Active:        false,
		Verified:      false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.drivers.Put(ctx, d); err != nil {
		return nil, err
	}
	if err := s.sendCode(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) Verify(ctx context.Context, req VerifyRequest) error {
	d, err := s.drivers.GetByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("driver not found: %w", domain.ErrNotFound)
	}
	if err := s.codes.Validate(ctx, d.DriverID, req.Code, domain.PurposeSignup); err != nil {
		return err
	}
	return s.drivers.Update(ctx, d.DriverID, map[string]interface{}{
		fieldVerified: true,
		fieldActive:   true,
	})
}

func (s *service) ResendCode(ctx context.Context, req ResendRequest) error {
	d, err := s.drivers.GetByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("driver not found: %w", domain.ErrNotFound)
	}
	if d.Verified {
		return fmt.Errorf("account already verified: %w", domain.ErrConflict)
	}
	return s.sendCode(ctx, d)
}

// Login authenticates a driver. The session goes into the same table as
// user sessions; the role on the record is what lets refresh and the
// role middleware tell the two apart.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	d, err := s.drivers.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !d.Verified || !d.Active {
		return nil, fmt.Errorf("account is not active, verify it first: %w", domain.ErrForbidden)
	}

	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           d.DriverID,
		Role:             domain.RoleDriver,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := s.jwtProvider.Sign(d.DriverID, domain.RoleDriver, sess.SessionID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Bearer: bearer, RefreshToken: refreshToken}, nil
}

func (s *service) Get(ctx context.Context, driverID string) (*domain.Driver, error) {
	return s.drivers.Get(ctx, driverID)
}

// SubmitKYC flags the driver for admin review and sends the
// acknowledgement email. The ack is best-effort: the submission stands
// even if the email bounces.
func (s *service) SubmitKYC(ctx context.Context, driverID string) error {
	d, err := s.drivers.Get(ctx, driverID)
	if err != nil {
		return err
	}
	if !d.Verified {
		return fmt.Errorf("verify your email before submitting KYC: %w", domain.ErrForbidden)
	}
	if d.KYCStatus == domain.KYCApproved {
		return fmt.Errorf("KYC already approved: %w", domain.ErrConflict)
	}
	if err := s.drivers.Update(ctx, driverID, map[string]interface{}{fieldKYCStatus: domain.KYCSubmitted}); err != nil {
		return err
	}
	subject, body := s.renderKYC()
	if err := s.mailer.SendEmail(d.Email, subject, body); err != nil {
		slog.Warn("failed to send KYC acknowledgement", "driver_id", driverID, "err", err)
	}
	return nil
}

func (s *service) ReviewKYC(ctx context.Context, driverID string, req ReviewKYCRequest) error {
	d, err := s.drivers.Get(ctx, driverID)
	if err != nil {
		return err
	}
	if d.KYCStatus != domain.KYCSubmitted {
		return fmt.Errorf("driver has no submitted KYC to review: %w", domain.ErrConflict)
	}
	return s.drivers.Update(ctx, driverID, map[string]interface{}{fieldKYCStatus: req.Status})
}

// sendCode issues a code and delivers it over SMS when the driver has a
// phone number and an SMS channel is configured; email otherwise.
func (s *service) sendCode(ctx context.Context, d *domain.Driver) error {
	code, err := s.codes.Issue(ctx, d, domain.PurposeSignup)
	if err != nil {
		return err
	}
	if s.sms != nil && d.Phone != nil {
		msg := fmt.Sprintf("Your verification code is %s. It is valid for %d minutes.", code, s.validityMinutes)
		if err := s.sms.SendSMS(ctx, *d.Phone, msg); err != nil {
			return fmt.Errorf("send verification sms: %w", err)
		}
		return nil
	}
	subject, body := s.renderVerify(code, s.validityMinutes)
	if err := s.mailer.SendEmail(d.Email, subject, body); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}
