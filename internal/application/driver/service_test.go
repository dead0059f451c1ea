package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shop-api-nosql/internal/application/verification"
	"github.com/shop-api-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockDriverStore struct {
	mock.Mock
}

func (m *mockDriverStore) Put(ctx context.Context, d *domain.Driver) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *mockDriverStore) Get(ctx context.Context, driverID string) (*domain.Driver, error) {
	args := m.Called(ctx, driverID)
	if d := args.Get(0); d != nil {
		return d.(*domain.Driver), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDriverStore) GetByEmail(ctx context.Context, email string) (*domain.Driver, error) {
	args := m.Called(ctx, email)
	if d := args.Get(0); d != nil {
		return d.(*domain.Driver), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDriverStore) Update(ctx context.Context, driverID string, updates map[string]interface{}) error {
	args := m.Called(ctx, driverID, updates)
	return args.Error(0)
}

type mockVerification struct {
	mock.Mock
}

func (m *mockVerification) Issue(ctx context.Context, account verification.Account, purpose string) (string, error) {
	args := m.Called(ctx, account, purpose)
	return args.String(0), args.Error(1)
}

func (m *mockVerification) Validate(ctx context.Context, ownerID, submitted, purpose string) error {
	args := m.Called(ctx, ownerID, submitted, purpose)
	return args.Error(0)
}

func (m *mockVerification) Resend(ctx context.Context, account verification.Account, purpose string) (string, error) {
	args := m.Called(ctx, account, purpose)
	return args.String(0), args.Error(1)
}

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

type mockJWTSigner struct {
	mock.Mock
}

func (m *mockJWTSigner) Sign(accountID, role, sessionID string) (string, error) {
	args := m.Called(accountID, role, sessionID)
	return args.String(0), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendEmail(to, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}

type mockSMSSender struct {
	mock.Mock
}

func (m *mockSMSSender) SendSMS(ctx context.Context, to, message string) error {
	args := m.Called(ctx, to, message)
	return args.Error(0)
}

func renderVerify(code string, validityMinutes int) (string, string) {
	return "Verify your account", "code " + code
}

func renderKYC() (string, string) {
	return "KYC received", "we got it"
}

func newService(drivers *mockDriverStore, codes *mockVerification, m *mockMailer, sms smsSender) Service {
	return NewService(ServiceDeps{
		DriverRepo:              drivers,
		Verification:            codes,
		Mailer:                  m,
		SMSSender:               sms,
		OTPValidity:             60 * time.Minute,
		RenderVerificationEmail: renderVerify,
		RenderKYCSubmittedEmail: renderKYC,
	})
}

func strPtr(s string) *string { return &s }

func registerReq() domain.CreateDriverRequest {
	return domain.CreateDriverRequest{
		Email:           "driver@example.com",
		Password:        "password123",
		PasswordConfirm: "password123",
		FirstName:       "Dana",
		LastName:        "Reyes",
		LicenseNumber:   "DL-4471",
	}
}

func TestRegisterSendsCodeByEmail(t *testing.T) {
	drivers := new(mockDriverStore)
	codes := new(mockVerification)
	m := new(mockMailer)

	drivers.On("GetByEmail", mock.Anything, "driver@example.com").Return(nil, domain.ErrNotFound)
	drivers.On("Put", mock.Anything, mock.Anything).Return(nil)
	codes.On("Issue", mock.Anything, mock.Anything, domain.PurposeSignup).Return("4821", nil)
	m.On("SendEmail", "driver@example.com", "Verify your account", "code 4821").Return(nil)

	svc := newService(drivers, codes, m, nil)
	d, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)
	assert.False(t, d.Active)
	assert.False(t, d.Verified)
	assert.Equal(t, domain.KYCNotSubmitted, d.KYCStatus)
	m.AssertExpectations(t)
}

func TestRegisterPrefersSMSWhenPhonePresent(t *testing.T) {
	drivers := new(mockDriverStore)
	codes := new(mockVerification)
	m := new(mockMailer)
	sms := new(mockSMSSender)

	req := registerReq()
	req.Phone = strPtr("+15550101")

	drivers.On("GetByEmail", mock.Anything, req.Email).Return(nil, domain.ErrNotFound)
	drivers.On("Put", mock.Anything, mock.Anything).Return(nil)
	codes.On("Issue", mock.Anything, mock.Anything, domain.PurposeSignup).Return("4821", nil)
	sms.On("SendSMS", mock.Anything, "+15550101", mock.MatchedBy(func(msg string) bool {
		return msg == "Your verification code is 4821. It is valid for 60 minutes."
	})).Return(nil)

	svc := newService(drivers, codes, m, sms)
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	m.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
	sms.AssertExpectations(t)
}

func TestLoginIssuesDriverRoleSession(t *testing.T) {
	drivers := new(mockDriverStore)
	sessions := new(mockSessionStore)
	signer := new(mockJWTSigner)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	d := &domain.Driver{
		DriverID: "d1", Email: "driver@example.com",
		PasswordHash: string(hash), Verified: true, Active: true,
	}
	drivers.On("GetByEmail", mock.Anything, d.Email).Return(d, nil)
	sessions.On("Put", mock.Anything, mock.MatchedBy(func(s *domain.Session) bool {
		return s.UserID == "d1" && s.Role == domain.RoleDriver && s.Enable
	})).Return(nil)
	signer.On("Sign", "d1", domain.RoleDriver, mock.Anything).Return("bearer", nil)

	svc := NewService(ServiceDeps{
		DriverRepo:  drivers,
		SessionRepo: sessions,
		JWTProvider: signer,
	})
	res, err := svc.Login(context.Background(), LoginRequest{Email: d.Email, Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.Bearer)
	assert.NotEmpty(t, res.RefreshToken)
	sessions.AssertExpectations(t)
}

func TestLoginRefusesUnverifiedDriver(t *testing.T) {
	drivers := new(mockDriverStore)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	d := &domain.Driver{DriverID: "d1", Email: "driver@example.com", PasswordHash: string(hash)}
	drivers.On("GetByEmail", mock.Anything, d.Email).Return(d, nil)

	svc := NewService(ServiceDeps{DriverRepo: drivers})
	_, err = svc.Login(context.Background(), LoginRequest{Email: d.Email, Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLoginWrongPassword(t *testing.T) {
	drivers := new(mockDriverStore)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	d := &domain.Driver{DriverID: "d1", Email: "driver@example.com", PasswordHash: string(hash), Verified: true, Active: true}
	drivers.On("GetByEmail", mock.Anything, d.Email).Return(d, nil)

	svc := NewService(ServiceDeps{DriverRepo: drivers})
	_, err = svc.Login(context.Background(), LoginRequest{Email: d.Email, Password: "nope"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	drivers := new(mockDriverStore)
	drivers.On("GetByEmail", mock.Anything, "driver@example.com").Return(&domain.Driver{DriverID: "d1"}, nil)

	svc := newService(drivers, new(mockVerification), new(mockMailer), nil)
	_, err := svc.Register(context.Background(), registerReq())
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegisterSMSFailureSurfaces(t *testing.T) {
	drivers := new(mockDriverStore)
	codes := new(mockVerification)
	sms := new(mockSMSSender)

	req := registerReq()
	req.Phone = strPtr("+15550101")

	drivers.On("GetByEmail", mock.Anything, req.Email).Return(nil, domain.ErrNotFound)
	drivers.On("Put", mock.Anything, mock.Anything).Return(nil)
	codes.On("Issue", mock.Anything, mock.Anything, domain.PurposeSignup).Return("4821", nil)
	sms.On("SendSMS", mock.Anything, "+15550101", mock.Anything).Return(errors.New("sns down"))

	svc := newService(drivers, codes, new(mockMailer), sms)
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send verification sms")
}

func TestVerifyActivatesDriver(t *testing.T) {
	drivers := new(mockDriverStore)
	codes := new(mockVerification)

	d := &domain.Driver{DriverID: "d1", Email: "driver@example.com"}
	drivers.On("GetByEmail", mock.Anything, d.Email).Return(d, nil)
	codes.On("Validate", mock.Anything, "d1", "4821", domain.PurposeSignup).Return(nil)
	drivers.On("Update", mock.Anything, "d1", map[string]interface{}{
		fieldVerified: true,
		fieldActive:   true,
	}).Return(nil)

	svc := newService(drivers, codes, new(mockMailer), nil)
	err := svc.Verify(context.Background(), VerifyRequest{Email: d.Email, Code: "4821"})
	require.NoError(t, err)
	drivers.AssertExpectations(t)
}

func TestVerifyBadCodeDoesNotActivate(t *testing.T) {
	drivers := new(mockDriverStore)
	codes := new(mockVerification)

	d := &domain.Driver{DriverID: "d1", Email: "driver@example.com"}
	drivers.On("GetByEmail", mock.Anything, d.Email).Return(d, nil)
	codes.On("Validate", mock.Anything, "d1", "0000", domain.PurposeSignup).Return(verification.ErrCodeInvalid)

	svc := newService(drivers, codes, new(mockMailer), nil)
	err := svc.Verify(context.Background(), VerifyRequest{Email: d.Email, Code: "0000"})
	assert.ErrorIs(t, err, verification.ErrCodeInvalid)
	drivers.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestResendAlreadyVerified(t *testing.T) {
	drivers := new(mockDriverStore)
	d := &domain.Driver{DriverID: "d1", Email: "driver@example.com", Verified: true}
	drivers.On("GetByEmail", mock.Anything, d.Email).Return(d, nil)

	svc := newService(drivers, new(mockVerification), new(mockMailer), nil)
	err := svc.ResendCode(context.Background(), ResendRequest{Email: d.Email})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSubmitKYCRequiresVerifiedAccount(t *testing.T) {
	drivers := new(mockDriverStore)
	drivers.On("Get", mock.Anything, "d1").Return(&domain.Driver{DriverID: "d1"}, nil)

	svc := newService(drivers, new(mockVerification), new(mockMailer), nil)
	err := svc.SubmitKYC(context.Background(), "d1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSubmitKYCFlagsAndAcks(t *testing.T) {
	drivers := new(mockDriverStore)
	m := new(mockMailer)

	d := &domain.Driver{DriverID: "d1", Email: "driver@example.com", Verified: true, KYCStatus: domain.KYCNotSubmitted}
	drivers.On("Get", mock.Anything, "d1").Return(d, nil)
	drivers.On("Update", mock.Anything, "d1", map[string]interface{}{fieldKYCStatus: domain.KYCSubmitted}).Return(nil)
	m.On("SendEmail", d.Email, "KYC received", "we got it").Return(nil)

	svc := newService(drivers, new(mockVerification), m, nil)
	require.NoError(t, svc.SubmitKYC(context.Background(), "d1"))
	drivers.AssertExpectations(t)
	m.AssertExpectations(t)
}

func TestSubmitKYCSurvivesAckFailure(t *testing.T) {
	drivers := new(mockDriverStore)
	m := new(mockMailer)

	d := &domain.Driver{DriverID: "d1", Email: "driver@example.com", Verified: true, KYCStatus: domain.KYCRejected}
	drivers.On("Get", mock.Anything, "d1").Return(d, nil)
	drivers.On("Update", mock.Anything, "d1", mock.Anything).Return(nil)
	m.On("SendEmail", d.Email, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	svc := newService(drivers, new(mockVerification), m, nil)
	assert.NoError(t, svc.SubmitKYC(context.Background(), "d1"))
}

func TestReviewKYCApprove(t *testing.T) {
	drivers := new(mockDriverStore)
	d := &domain.Driver{DriverID: "d1", KYCStatus: domain.KYCSubmitted}
	drivers.On("Get", mock.Anything, "d1").Return(d, nil)
	drivers.On("Update", mock.Anything, "d1", map[string]interface{}{fieldKYCStatus: domain.KYCApproved}).Return(nil)

	svc := newService(drivers, new(mockVerification), new(mockMailer), nil)
	err := svc.ReviewKYC(context.Background(), "d1", ReviewKYCRequest{Status: domain.KYCApproved})
	require.NoError(t, err)
	drivers.AssertExpectations(t)
}

func TestReviewKYCNothingSubmitted(t *testing.T) {
	drivers := new(mockDriverStore)
	drivers.On("Get", mock.Anything, "d1").Return(&domain.Driver{DriverID: "d1", KYCStatus: domain.KYCNotSubmitted}, nil)

	svc := newService(drivers, new(mockVerification), new(mockMailer), nil)
	err := svc.ReviewKYC(context.Background(), "d1", ReviewKYCRequest{Status: domain.KYCApproved})
	assert.ErrorIs(t, err, domain.ErrConflict)
}
