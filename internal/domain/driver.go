package domain

import "time"

// KYC review states for driver accounts.
const (
	KYCNotSubmitted = "not_submitted"
	KYCSubmitted    = "submitted"
	KYCApproved     = "approved"
	KYCRejected     = "rejected"
)

// Driver is the second account kind that goes through OTP verification.
// It shares the verification flow with User via the verification.Account
// interface instead of type switches.
type Driver struct {
	DriverID      string    `json:"id" dynamodbav:"driver_id"`
	Email         string    `json:"email" dynamodbav:"email"`
	Phone         *string   `json:"phone" dynamodbav:"phone"`
	PasswordHash  string    `json:"-" dynamodbav:"password_hash"`
	FirstName     string    `json:"first_name" dynamodbav:"first_name"`
	LastName      string    `json:"last_name" dynamodbav:"last_name"`
	LicenseNumber string    `json:"license_number" dynamodbav:"license_number"`
	VehicleReg    *string   `json:"vehicle_reg" dynamodbav:"vehicle_reg"`
	KYCStatus     string    `json:"kyc_status" dynamodbav:"kyc_status"`
	Active        bool      `json:"active" dynamodbav:"active"`
	Verified      bool      `json:"verified" dynamodbav:"verified"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}

func (d *Driver) AccountID() string    { return d.DriverID }
func (d *Driver) ContactEmail() string { return d.Email }
func (d *Driver) ContactPhone() *string {
	return d.Phone
}

type CreateDriverRequest struct {
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string  `json:"password_confirm" validate:"required,eqfield=Password"`
	FirstName       string  `json:"first_name" validate:"required"`
	LastName        string  `json:"last_name" validate:"required"`
	Phone           *string `json:"phone"`
	LicenseNumber   string  `json:"license_number" validate:"required"`
	VehicleReg      *string `json:"vehicle_reg"`
}
